package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/macrotrack/apiserver/config"
	"github.com/macrotrack/apiserver/internal/handlers"
	"github.com/macrotrack/apiserver/internal/logging"
	"github.com/macrotrack/apiserver/internal/mq"
	"github.com/macrotrack/apiserver/internal/services"
	"github.com/sirupsen/logrus"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer   *http.Server
	healthServer *http.Server
	router       *chi.Mux
	health       *chi.Mux
	repos        *Repositories
	broker       *mq.MQ
	log          logrus.FieldLogger
}

// New connects the configured backend and broker and builds the router.
func New(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*Server, error) {
	repos, err := OpenRepositories(ctx, cfg)
	if err != nil {
		return nil, err
	}

	broker, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	var publisher services.Publisher
	if broker != nil {
		publisher = broker
	}

	srv, err := NewWithRepositories(cfg, repos, publisher, log)
	if err != nil {
		_ = repos.Close()
		if broker != nil {
			_ = broker.Close()
		}
		return nil, err
	}
	srv.broker = broker
	return srv, nil
}

// NewWithRepositories builds a Server over already opened repositories.
// publisher may be nil to disable domain events.
func NewWithRepositories(cfg config.Config, repos *Repositories, publisher services.Publisher, log logrus.FieldLogger) (*Server, error) {
	authenticator, err := newAuthenticator(cfg.Auth, repos.AllowList)
	if err != nil {
		return nil, err
	}

	var notifier *services.Notifier
	if publisher != nil {
		notifier = services.NewNotifier(publisher, log)
	}

	goalService := services.NewGoalService(repos.Goals, notifier)
	mealService := services.NewMealService(repos.Meals, notifier)
	summaryService := services.NewSummaryService(goalService, mealService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logging.Requests(log),
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)
	handlers.MacroRouter(
		router,
		handlers.NewMacroHandler(goalService, mealService, summaryService, log),
		handlers.RequireIdentity(authenticator, log),
	)

	// router serves only the tracking routes; liveness has its own listener.
	health := chi.NewRouter()
	health.Get("/healthz", handlers.Healthz)
	health.NotFound(handlers.NotFound)
	health.MethodNotAllowed(handlers.NotFound)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var healthServer *http.Server
	if cfg.HealthPort > 0 && cfg.HealthPort != port {
		healthServer = &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.HealthPort),
			Handler:      health,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		}
	}

	return &Server{
		httpServer:   httpServer,
		healthServer: healthServer,
		router:       router,
		health:       health,
		repos:        repos,
		log:          log,
	}, nil
}

func newAuthenticator(cfg config.AuthConfig, allowList services.AllowListRepository) (services.Authenticator, error) {
	switch cfg.Mode {
	case "", config.AuthModeHeader:
		header := cfg.Header
		if header == "" {
			header = "X-Security-Key"
		}
		return services.NewHeaderAuthenticator(header, allowList), nil
	case config.AuthModeJWT:
		if cfg.JWTSecret == "" {
			return nil, errors.New("JWT_SECRET is required")
		}
		return services.NewJWTAuthenticator(cfg.JWTSecret, allowList), nil
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Mode)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the API handler. It serves only the tracking routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HealthHandler returns the liveness handler served on HEALTH_PORT.
func (s *Server) HealthHandler() http.Handler {
	return s.health
}

// Start runs the API listener, and the health listener when configured,
// until Shutdown is called.
func (s *Server) Start() error {
	if s.healthServer != nil {
		go func() {
			s.log.WithField("addr", s.healthServer.Addr).Info("health listener started")
			if err := s.healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.log.WithError(err).Error("health listener failed")
			}
		}()
	}

	s.log.WithField("addr", s.httpServer.Addr).Info("server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases backend connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.healthServer != nil {
		_ = s.healthServer.Shutdown(ctx)
	}
	err := s.httpServer.Shutdown(ctx)
	if s.broker != nil {
		_ = s.broker.Close()
	}
	if s.repos != nil {
		_ = s.repos.Close()
	}
	return err
}
