package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/thornlink/thorn/backend/config"
	"github.com/thornlink/thorn/backend/internal/api"
	"github.com/thornlink/thorn/backend/internal/logging"
	"github.com/thornlink/thorn/backend/internal/middleware"
	"github.com/thornlink/thorn/backend/internal/repository"
)

// Deps are the collaborators the HTTP server is built from. Redis is
// optional; without it rate limits are off.
type Deps struct {
	Profiles   repository.ProfileStore
	Editor     api.Editor
	Media      api.MediaUploader
	Identities middleware.TokenValidator
	Redis      *redis.Client
	Health     map[string]api.HealthCheck
	Log        logging.Logger
}

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	log    logging.Logger
}

// New creates a new server instance with every route registered
func New(cfg *config.Config, deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = logging.Nop{}
	}
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(deps.Log),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.ErrorHandler(deps.Log),
	)

	auth := middleware.AuthMiddleware(deps.Identities, cfg.LoginURL)
	claimLimit := middleware.NewClaimRateLimiter(deps.Redis).RateLimitMiddleware()
	commitLimit := middleware.NewCommitRateLimiter(deps.Redis).RateLimitMiddleware()

	api.NewHealthHandler(deps.Health).RegisterRoutes(router)

	v1 := router.Group("/api/v1")
	api.NewPublicHandler(deps.Profiles).RegisterRoutes(v1)
	api.NewProfileHandler(deps.Editor).RegisterRoutes(v1, auth, claimLimit)
	api.NewEditorHandler(deps.Editor).RegisterRoutes(v1, auth, commitLimit)
	if deps.Media != nil {
		api.NewMediaHandler(deps.Media, deps.Editor).RegisterRoutes(v1, auth)
	}

	return &Server{
		router: router,
		log:    deps.Log,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until SIGINT/SIGTERM or ctx is done, then shuts down
// gracefully
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "http server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.log.Info(shutdownCtx, "shutting down http server")
	return s.Stop(shutdownCtx)
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
