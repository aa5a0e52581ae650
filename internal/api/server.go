package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/projecthub/internal/account"
	"github.com/nerrad567/projecthub/internal/identity"
	"github.com/nerrad567/projecthub/internal/infrastructure/config"
	"github.com/nerrad567/projecthub/internal/infrastructure/database"
	"github.com/nerrad567/projecthub/internal/infrastructure/influxdb"
	"github.com/nerrad567/projecthub/internal/infrastructure/logging"
	"github.com/nerrad567/projecthub/internal/project"
)

// gracefulShutdownTimeout bounds how long Close waits for in-flight requests.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker is implemented by optional backends reported on /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Logger   *logging.Logger
	DB       *database.DB
	Identity *identity.Service
	Accounts *account.Service
	Projects *project.Service

	// Tickets stores WebSocket tickets. Defaults to an in-memory store.
	Tickets   TicketStore
	TicketTTL time.Duration

	// Hub receives domain events. If nil the server creates its own.
	Hub *Hub

	// Optional backends.
	MQTT    HealthChecker
	Metrics *influxdb.Client

	Version string
}

// Server is the HTTP API server.
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	db        *database.DB
	identity  *identity.Service
	accounts  *account.Service
	projects  *project.Service
	tickets   TicketStore
	ticketTTL time.Duration
	hub       *Hub
	ownHub    bool
	mqtt      HealthChecker
	metrics   *influxdb.Client
	version   string
	startTime time.Time

	server *http.Server
	cancel context.CancelFunc
}

// New creates an API server. It is not listening until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Identity == nil || deps.Accounts == nil || deps.Projects == nil {
		return nil, fmt.Errorf("identity, account and project services are required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger,
		db:        deps.DB,
		identity:  deps.Identity,
		accounts:  deps.Accounts,
		projects:  deps.Projects,
		tickets:   deps.Tickets,
		ticketTTL: deps.TicketTTL,
		hub:       deps.Hub,
		mqtt:      deps.MQTT,
		metrics:   deps.Metrics,
		version:   deps.Version,
		startTime: time.Now(),
	}
	if s.ticketTTL <= 0 {
		s.ticketTTL = defaultTicketTTL
	}
	if s.tickets == nil {
		s.tickets = NewMemoryTicketStore(s.ticketTTL)
	}
	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
		s.ownHub = true
	}
	return s, nil
}

// Hub returns the server's WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections in the background.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.ownHub {
		go s.hub.Run(srvCtx)
	}
	if janitor, ok := s.tickets.(interface{ Run(context.Context) }); ok {
		go janitor.Run(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS", "address", s.server.Addr, "cert", s.cfg.TLS.CertFile)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close waits up to gracefulShutdownTimeout for in-flight requests, then
// stops background goroutines.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
