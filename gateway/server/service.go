package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fhevm-network/fhevm-sdk/common/utils"
	"github.com/fhevm-network/fhevm-sdk/fhe"
	"github.com/fhevm-network/fhevm-sdk/gateway"
	"github.com/fhevm-network/fhevm-sdk/store"
	"github.com/labstack/echo/v4"
	"github.com/philippgille/gokv"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const networkKeyStoreKey = "kms-network-key"

type Service struct {
	svr    *server
	config ServiceConfig
	echo   *echo.Echo
}

type server struct {
	chainId uint64
	kms     *fhe.KMS
	// hex encoded, served by GET /keys
	publicKey string

	store gokv.Store
}

type networkKeyRecord struct {
	SecretKey []byte
	PublicKey []byte
}

// NewService opens the ciphertext store and loads the network key from it,
// generating and persisting a fresh key on first start.
func NewService(config ServiceConfig) (*Service, error) {
	if config.ChainId == 0 {
		return nil, fmt.Errorf("chain id is required")
	}
	s, err := store.InitStore(config.PersistenceType, config.PersistenceOptions)
	if err != nil {
		return nil, fmt.Errorf("InitStore err: %w", err)
	}
	kms, err := loadOrCreateKMS(s)
	if err != nil {
		s.Close()
		return nil, err
	}
	pk, err := kms.PublicKey()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("kms.PublicKey err: %w", err)
	}
	svr := &server{
		chainId:   config.ChainId,
		kms:       kms,
		publicKey: utils.ToHexString(pk),
		store:     s,
	}
	svc := &Service{svr: svr, config: config, echo: echo.New()}
	svc.echo.HideBanner = true
	svc.echo.HidePort = true
	svc.registerRoutes()
	return svc, nil
}

func loadOrCreateKMS(s gokv.Store) (*fhe.KMS, error) {
	var rec networkKeyRecord
	found, err := s.Get(networkKeyStoreKey, &rec)
	if err != nil {
		return nil, fmt.Errorf("store.Get err: %w", err)
	}
	if found {
		log.Info().Msg("loaded network key from store")
		return fhe.LoadKMS(rec.SecretKey, rec.PublicKey)
	}

	log.Info().Msg("generating network key")
	kms, err := fhe.GenerateKMS()
	if err != nil {
		return nil, err
	}
	rec.SecretKey, err = kms.MarshalSecretKey()
	if err != nil {
		return nil, err
	}
	rec.PublicKey, err = kms.PublicKey()
	if err != nil {
		return nil, err
	}
	if err = s.Set(networkKeyStoreKey, rec); err != nil {
		return nil, fmt.Errorf("store.Set err: %w", err)
	}
	return kms, nil
}

func (s *Service) registerRoutes() {
	s.echo.GET(gateway.PathKeys, s.svr.getKeys)
	s.echo.POST(gateway.PathCiphertexts, s.svr.postCiphertext)
	s.echo.POST(gateway.PathReencrypt, s.svr.postReencrypt)
}

// Handler returns the CORS wrapped HTTP handler, useful for embedding the
// gateway in tests or another server.
func (s *Service) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(s.echo)
}

// Serve blocks until SIGINT/SIGTERM or a server failure, then shuts down and
// closes the store.
func (s *Service) Serve() error {
	stopCtx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer done()
	errG, errGCtx := errgroup.WithContext(context.Background())

	address := fmt.Sprintf("%s:%d", s.config.GetBind(), s.config.GetPort())
	httpServer := &http.Server{Addr: address, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errG.Go(func() error {
		log.Info().Str("address", address).Uint64("chain_id", s.svr.chainId).Msg(">> serving decryption gateway")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("gateway server crashed: %w", err)
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
	waitErr := errG.Wait()
	return errors.Join(err, shutdownErr, waitErr, s.Close())
}

func (s *Service) Close() error {
	return s.svr.store.Close()
}
