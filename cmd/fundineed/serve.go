package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/okian/fundineed/internal/adapters/cache"
	"github.com/okian/fundineed/internal/adapters/http/api"
	"github.com/okian/fundineed/internal/adapters/http/site"
	"github.com/okian/fundineed/internal/adapters/http/swagger"
	"github.com/okian/fundineed/internal/adapters/repository"
	service "github.com/okian/fundineed/internal/app"
	"github.com/okian/fundineed/internal/auth"
	"github.com/okian/fundineed/internal/config"
	"github.com/okian/fundineed/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	systemMetricsInterval  = 10 * time.Second
	serviceMetricsInterval = 5 * time.Second
	generatedSecretBytes   = 32
)

func serveCmd(c *cli) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Serve the public pages, the calculator and form APIs, the tracking
endpoint and the admin dashboard until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				c.cfg.Addr = addr
			}
			return runServe(cmd.Context(), c.cfg, nil)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config addr)")
	return cmd
}

// runServe blocks until ctx is cancelled. When ready is non-nil it receives
// the bound address once the listener is up.
func runServe(ctx context.Context, cfg *config.Config, ready chan<- string) error {
	// Default Go collectors stay off; system metrics are collected by the
	// service on its own registry.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	log := logger.Get()

	store, err := repository.Open(cfg.StoreDriver, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	c, err := openCache(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return err
	}

	secret := cfg.JWTSecret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			_ = store.Close()
			return err
		}
		log.Warn(ctx, "jwt_secret not set; generated one for this process, tokens will not survive a restart")
	}
	if !cfg.AdminEnabled() {
		log.Warn(ctx, "admin_password not set; admin login is disabled")
	}
	authn, err := auth.New(cfg.AdminUsername, cfg.AdminPassword, secret,
		auth.WithTokenTTL(cfg.TokenTTL),
		auth.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("failed to create authenticator: %w", err)
	}

	svc := service.New(
		service.WithLogger(log),
		service.WithStore(store),
		service.WithCache(c),
		service.WithCacheTTL(cfg.CacheTTL),
		service.WithAuthenticator(authn),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
	)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return fmt.Errorf("failed to start service: %w", err)
	}

	go service.RunSystemMetrics(ctx, systemMetricsInterval)
	go service.RunServiceMetrics(ctx, svc, serviceMetricsInterval)

	mux := http.NewServeMux()
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, authn,
		api.WithMaxBodyBytes(cfg.MaxBodyBytes),
		api.WithLoginRateLimit(cfg.LoginRateLimit, cfg.RateLimitWindow),
		api.WithFormRateLimit(cfg.FormRateLimit, cfg.RateLimitWindow),
	).Register(ctx, mux)

	srv := &http.Server{
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		stopService(ctx, svc, cfg.ShutdownTimeout)
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", ln.Addr().String()),
			logger.String("store", cfg.StoreDriver),
			logger.Bool("redis", cfg.RedisAddr != ""))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	if ready != nil {
		ready <- ln.Addr().String()
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	stopService(ctx, svc, cfg.ShutdownTimeout)

	log.Info(ctx, "server stopped")
	if serveErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serveErr)
	}
	return nil
}

// openCache returns Redis when configured and reachable, else the in-memory
// cache. An unreachable Redis is a startup error.
func openCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	rc := cache.NewRedisCache(cfg.RedisAddr,
		cache.WithPassword(cfg.RedisPassword),
		cache.WithDB(cfg.RedisDB),
	)
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	return rc, nil
}

func stopService(ctx context.Context, svc *service.Service, timeout time.Duration) {
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := svc.Stop(stopCtx); err != nil {
		logger.Get().Error(ctx, "service stop failed", logger.Error(err))
	}
}

func randomSecret() (string, error) {
	b := make([]byte, generatedSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate jwt secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
