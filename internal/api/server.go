package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-feeder/internal/bus"
	"github.com/nerrad567/gray-logic-feeder/internal/hass"
	"github.com/nerrad567/gray-logic-feeder/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-feeder/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-feeder/internal/netmon"
	"github.com/nerrad567/gray-logic-feeder/internal/transport"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Bus is the part of the message bus the API uses.
type Bus interface {
	Publish(topic string, payload []byte) error
	SubscribeMessages(pattern string, handler bus.MessageHandler) error
	Do(ctx context.Context, fn func()) error
	Stats() bus.Stats
}

// BridgeStatus reports the discovery bridge state. Status is only called
// from the bus dispatch goroutine via Bus.Do.
type BridgeStatus interface {
	Status() hass.Status
}

// RelayStats reports broker relay counters.
type RelayStats interface {
	Stats() transport.Stats
}

// NetworkStatus reports the last network sample.
type NetworkStatus interface {
	Status() netmon.Status
}

// DBStats reports connection pool statistics.
type DBStats interface {
	Stats() sql.DBStats
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Bus      Bus

	// Optional. Endpoints backed by a missing dependency answer 503.
	Bridge  BridgeStatus
	Relay   RelayStats
	Network NetworkStatus
	DB      DBStats

	Version string
}

// Server is the feeder's local HTTP API.
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	secCfg    config.SecurityConfig
	logger    *logging.Logger
	bus       Bus
	bridge    BridgeStatus
	relay     RelayStats
	network   NetworkStatus
	db        DBStats
	version   string
	startTime time.Time
	tickets   *ticketStore
	server    *http.Server
	hub       *Hub
	cancel    context.CancelFunc
}

// New creates a new API server. The server is not started until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, ErrLoggerRequired
	}
	if deps.Bus == nil {
		return nil, ErrBusRequired
	}

	return &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		secCfg:    deps.Security,
		logger:    deps.Logger,
		bus:       deps.Bus,
		bridge:    deps.Bridge,
		relay:     deps.Relay,
		network:   deps.Network,
		db:        deps.DB,
		version:   deps.Version,
		startTime: time.Now(),
		tickets:   newTicketStore(),
		hub:       NewHub(deps.WS, deps.Logger, deps.Bus.Publish),
	}, nil
}

// Start subscribes the websocket hub to the bus and launches the HTTP
// listener in a background goroutine. The server is stopped with Close.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)
	go s.cleanTicketsLoop(srvCtx)

	if err := s.bus.SubscribeMessages("#", s.hub.Forward); err != nil {
		return fmt.Errorf("subscribing websocket monitor: %w", err)
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
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
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

// Close gracefully shuts down the API server, waiting up to 10 seconds for
// in-flight requests.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return ErrNotStarted
	}
	return nil
}

// authEnabled reports whether bearer tokens are required.
func (s *Server) authEnabled() bool {
	return s.secCfg.JWT.Secret != ""
}
