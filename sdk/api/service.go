// Package api serves the FHE helper routes used by web front ends: server
// side encryption, plus informational decrypt, compute and key endpoints.
// Decryption itself always happens client side with the user's signature.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fhevm-network/fhevm-sdk/sdk"
	"github.com/labstack/echo/v4"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type ServiceConfig struct {
	// Bind is the listen address, defaults to localhost.
	Bind string `mapstructure:"bind"`
	// Port defaults to 3000.
	Port uint `mapstructure:"port"`
	// AllowedOrigins for CORS. Empty allows all origins.
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	Fhevm sdk.FhevmConfig `mapstructure:"fhevm"`
}

func (c ServiceConfig) address() string {
	bind, port := c.Bind, c.Port
	if bind == "" {
		bind = "localhost"
	}
	if port == 0 {
		port = 3000
	}
	return fmt.Sprintf("%s:%d", bind, port)
}

// Service owns one FhevmClient for its whole lifetime. The client is
// initialised on the first encrypt request, or eagerly through Init.
type Service struct {
	config    ServiceConfig
	client    *sdk.FhevmClient
	mu        sync.RWMutex
	provider  sdk.Provider
	echo      *echo.Echo
	startTime time.Time
}

func NewService(config ServiceConfig, opts ...sdk.ClientOption) *Service {
	s := &Service{
		config:    config,
		client:    sdk.NewFhevmClient(config.Fhevm, opts...),
		echo:      echo.New(),
		startTime: time.Now(),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.registerRoutes()
	return s
}

func (s *Service) registerRoutes() {
	s.echo.GET("/health", s.health)
	g := s.echo.Group("/api")
	g.POST("/fhe/encrypt", s.encrypt)
	g.POST("/fhe/decrypt", s.decrypt)
	g.POST("/fhe/compute", s.compute)
	g.GET("/keys", s.getKeys)
	g.POST("/keys", s.postKeys)
}

// Init initialises the client with provider, dialing RpcUrl when nil. The
// provider is kept for re-initialisation after a key rotation.
func (s *Service) Init(ctx context.Context, provider sdk.Provider) error {
	s.mu.Lock()
	s.provider = provider
	s.mu.Unlock()
	return s.client.Init(ctx, provider, nil)
}

func (s *Service) getProvider() sdk.Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider
}

func (s *Service) Client() *sdk.FhevmClient {
	return s.client
}

func (s *Service) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(s.echo)
}

// Serve blocks until SIGINT/SIGTERM or a server failure.
func (s *Service) Serve() error {
	stopCtx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer done()
	errG, errGCtx := errgroup.WithContext(context.Background())

	address := s.config.address()
	httpServer := &http.Server{Addr: address, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errG.Go(func() error {
		log.Info().Str("address", address).Uint64("chain_id", s.config.Fhevm.Network.ChainId).Msg(">> serving fhe api")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server crashed: %w", err)
		}
		return nil
	})

	var err error
	select {
	case <-errGCtx.Done():
		err = errGCtx.Err()
	case <-stopCtx.Done():
	}

	log.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdownErr := httpServer.Shutdown(shutdownCtx)
	s.client.Close()
	return errors.Join(err, shutdownErr, errG.Wait())
}
