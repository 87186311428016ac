package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is the authenticated caller as handed over by the OAuth bridge.
type Identity struct {
	OwnerID   uuid.UUID
	AvatarURL string
}

var ErrInvalidToken = errors.New("invalid token")

type identityClaims struct {
	AvatarURL string `json:"avatar_url,omitempty"`
	jwt.RegisteredClaims
}

// IdentityService issues and validates identity tokens.
type IdentityService struct {
	jwtSecret []byte
}

func NewIdentityService(jwtSecret string) *IdentityService {
	return &IdentityService{jwtSecret: []byte(jwtSecret)}
}

// IssueToken signs a token for id that expires after ttl.
func (s *IdentityService) IssueToken(id Identity, ttl time.Duration) (string, error) {
	if id.OwnerID == uuid.Nil {
		return "", fmt.Errorf("owner id is required")
	}
	now := time.Now()
	claims := identityClaims{
		AvatarURL: id.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.OwnerID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken parses tokenString and returns the identity it carries.
func (s *IdentityService) ValidateToken(tokenString string) (*Identity, error) {
	var claims identityClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	ownerID, err := uuid.Parse(claims.Subject)
	if err != nil || ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: subject is not an owner id", ErrInvalidToken)
	}

	return &Identity{OwnerID: ownerID, AvatarURL: claims.AvatarURL}, nil
}
