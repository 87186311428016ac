package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thornlink/thorn/backend/internal/logging"
	"github.com/thornlink/thorn/backend/internal/mocks"
	"github.com/thornlink/thorn/backend/internal/models"
	"github.com/thornlink/thorn/backend/internal/service"
	"github.com/thornlink/thorn/backend/internal/testhelpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(validator TokenValidator) *gin.Engine {
	r := gin.New()
	r.GET("/editor", AuthMiddleware(validator, "/login"), func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"owner_id": id.OwnerID.String()})
	})
	return r
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	validator := new(mocks.MockTokenValidator)
	id := &service.Identity{OwnerID: uuid.New(), AvatarURL: "a.png"}
	validator.On("ValidateToken", "good").Return(id, nil)

	req := httptest.NewRequest(http.MethodGet, "/editor", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	newAuthRouter(validator).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), id.OwnerID.String())
	validator.AssertExpectations(t)
}

func TestAuthMiddlewareWithoutIdentity(t *testing.T) {
	validator := new(mocks.MockTokenValidator)
	validator.On("ValidateToken", "bad").Return(nil, service.ErrInvalidToken)

	tests := []struct {
		name       string
		header     string
		accept     string
		wantStatus int
	}{
		{"api client without header", "", "application/json", http.StatusUnauthorized},
		{"api client with malformed header", "Token abc", "", http.StatusUnauthorized},
		{"api client with invalid token", "Bearer bad", "application/json", http.StatusUnauthorized},
		{"browser without header", "", "text/html,application/xhtml+xml", http.StatusFound},
		{"browser with invalid token", "Bearer bad", "text/html", http.StatusFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/editor", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			w := httptest.NewRecorder()
			newAuthRouter(validator).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusFound {
				assert.Equal(t, "/login", w.Header().Get("Location"))
				return
			}
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "/login", body["redirect"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestErrorHandlerMapsErrorKinds(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"validation", models.NewValidationError("display_name", "display name is required"), http.StatusBadRequest, "display name is required"},
		{"conflict", &models.ConflictError{Reason: models.ReasonUsernameTaken}, http.StatusConflict, "username already taken"},
		{"not found", &models.NotFoundError{What: "profile"}, http.StatusNotFound, "profile not found"},
		{"transport", &models.TransportError{Op: "save profile", Err: errors.New("refused")}, http.StatusServiceUnavailable, "storage temporarily unavailable, please retry"},
		{"index", &models.IndexError{Index: 4, Len: 1}, http.StatusBadRequest, ""},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorHandler(logging.Nop{}))
			r.GET("/", func(c *gin.Context) { _ = c.Error(tt.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body.Error)
			}
		})
	}
}

func TestErrorHandlerDetailAndField(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(logging.Nop{}))
	r.GET("/", func(c *gin.Context) {
		_ = c.Error(models.NewValidationError("title", "link title is required")).SetMeta(gin.H{"links": 2})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"link title is required","field":"title","detail":{"links":2}}`, w.Body.String())
}

func TestErrorHandlerLeavesWrittenResponses(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(logging.Nop{}))
	r.GET("/", func(c *gin.Context) {
		_ = c.Error(errors.New("logged only"))
		c.JSON(http.StatusAccepted, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://thorn.bio"}))
	r.PATCH("/api/v1/editor/session", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/editor/session", nil)
	req.Header.Set("Origin", "https://thorn.bio")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://thorn.bio", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/editor/session", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "request_id=req-42")
	assert.Contains(t, out, "status=404")
	assert.Contains(t, out, "path=/missing")
}

func rateLimitedRouter(rl *RateLimiter, owner uuid.UUID) *gin.Engine {
	r := gin.New()
	r.POST("/claim", func(c *gin.Context) {
		c.Set(identityKey, service.Identity{OwnerID: owner})
		c.Next()
	}, rl.RateLimitMiddleware(), func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func TestRateLimiterWithoutRedisAllowsAll(t *testing.T) {
	r := rateLimitedRouter(NewClaimRateLimiter(nil), uuid.New())
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/claim", nil))
		assert.Equal(t, http.StatusCreated, w.Code)
	}
}

func TestRateLimiterEnforcesWindow(t *testing.T) {
	client := testhelpers.SetupRedis(t)
	rl := NewRateLimiter(client, RateLimitConfig{Window: time.Hour, Limit: 2, KeyPrefix: "rate_limit:test"})
	// pin the clock to the start of a window so the test never straddles two
	fixed := time.Now().Truncate(time.Hour).Add(time.Minute)
	rl.now = func() time.Time { return fixed }
	owner := uuid.New()
	r := rateLimitedRouter(rl, owner)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/claim", nil))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/claim", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	// another identity has its own budget
	w = httptest.NewRecorder()
	rateLimitedRouter(rl, uuid.New()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/claim", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
}
