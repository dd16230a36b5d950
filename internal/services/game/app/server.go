package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/usurper.games/internal/platform/config"
	"github.com/louisbranch/usurper.games/internal/platform/telemetry"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/engine"
	"github.com/louisbranch/usurper.games/internal/services/game/domain/event"
	"github.com/louisbranch/usurper.games/internal/services/game/storage/integrity"
	gamesqlite "github.com/louisbranch/usurper.games/internal/services/game/storage/sqlite"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServiceName is the gRPC health service name the game server reports
// under.
const HealthServiceName = "usurper.game"

type serverEnv struct {
	DBPath string `env:"USURPER_GAME_DB_PATH"`
}

func loadServerEnv() serverEnv {
	var cfg serverEnv
	_ = config.ParseEnv(&cfg)
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "game.db")
	}
	return cfg
}

// ServerConfig carries the listen addresses and optional HTTP mounts.
type ServerConfig struct {
	// GRPCAddr is the health probe listener address, e.g. ":8082".
	GRPCAddr string
	// HTTPAddr is the HTTP listener address serving /up, the event feed,
	// and any mounted handlers. Empty disables the HTTP surface.
	HTTPAddr string
	// Mounts attaches extra HTTP handlers by path once the service exists.
	// The MCP surface mounts itself here to avoid owning the listener.
	Mounts func(svc *Service) (map[string]http.Handler, error)
}

// Server hosts the game service runtime: sqlite store, gRPC health, and the
// HTTP surface with the websocket event feed.
type Server struct {
	listener     net.Listener
	grpcServer   *grpc.Server
	health       *health.Server
	httpListener net.Listener
	httpServer   *http.Server
	store        *gamesqlite.Store
	service      *Service
	feed         *Feed
}

// NewServer creates a configured game server. The store path and integrity
// keyring come from the environment.
func NewServer(cfg ServerConfig) (*Server, error) {
	listener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.GRPCAddr, err)
	}

	env := loadServerEnv()
	store, err := openGameStore(env.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	feed := NewFeed()
	service, err := NewService(ServiceConfig{
		Store:   store,
		Emitter: telemetry.NewEmitter(store),
		Feed:    feed,
	})
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(HealthServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	server := &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		store:      store,
		service:    service,
		feed:       feed,
	}

	if strings.TrimSpace(cfg.HTTPAddr) != "" {
		httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			server.Close()
			return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
		}
		mux := http.NewServeMux()
		mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		})
		mux.Handle("/ws", feed.Handler())
		if cfg.Mounts != nil {
			mounts, err := cfg.Mounts(service)
			if err != nil {
				_ = httpListener.Close()
				server.Close()
				return nil, err
			}
			for path, handler := range mounts {
				mux.Handle(path, handler)
			}
		}
		server.httpListener = httpListener
		server.httpServer = &http.Server{Handler: mux}
	}

	return server, nil
}

// NewEnvService opens the environment-configured store and builds a service
// over it, without any listeners. The returned closer releases the store.
// The stdio MCP binary uses this to share the daemon's database.
func NewEnvService() (*Service, func() error, error) {
	env := loadServerEnv()
	store, err := openGameStore(env.DBPath)
	if err != nil {
		return nil, nil, err
	}
	service, err := NewService(ServiceConfig{
		Store:   store,
		Emitter: telemetry.NewEmitter(store),
	})
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return service, store.Close, nil
}

func openGameStore(path string) (*gamesqlite.Store, error) {
	keyring, err := integrity.KeyringFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load integrity keyring: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	eventRegistry, err := storeEventRegistry()
	if err != nil {
		return nil, err
	}
	store, err := gamesqlite.Open(path, keyring, eventRegistry)
	if err != nil {
		return nil, fmt.Errorf("open game store: %w", err)
	}
	return store, nil
}

// storeEventRegistry builds the validated event registry the store signs
// and validates appends against.
func storeEventRegistry() (*event.Registry, error) {
	registries, err := engine.BuildRegistries()
	if err != nil {
		return nil, fmt.Errorf("build registries: %w", err)
	}
	return registries.Events, nil
}

// Service exposes the application service, used by mounted surfaces and
// in-process tests.
func (s *Server) Service() *Service {
	if s == nil {
		return nil
	}
	return s.service
}

// Addr returns the gRPC listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// HTTPAddr returns the HTTP listener address, empty when the HTTP surface
// is disabled.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// Serve runs the gRPC and HTTP listeners until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("game server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 2)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()
	if s.httpServer != nil {
		log.Printf("game http surface listening at %v", s.httpListener.Addr())
		go func() {
			err := s.httpServer.Serve(s.httpListener)
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			serveErr <- err
		}()
	}

	select {
	case <-ctx.Done():
		s.shutdown()
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	}
}

func (s *Server) shutdown() {
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}
	s.grpcServer.GracefulStop()
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.httpListener != nil {
		_ = s.httpListener.Close()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close game store: %v", err)
		}
	}
}
