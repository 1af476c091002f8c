package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/pribylovaa/go-attendance/internal/cache"
	"github.com/pribylovaa/go-attendance/internal/config"
	"github.com/pribylovaa/go-attendance/internal/password"
	"github.com/pribylovaa/go-attendance/internal/service"
	"github.com/pribylovaa/go-attendance/internal/storage"
	"github.com/pribylovaa/go-attendance/internal/storage/memory"
	"github.com/pribylovaa/go-attendance/internal/storage/postgres"
	"github.com/pribylovaa/go-attendance/internal/token"
	authhttp "github.com/pribylovaa/go-attendance/internal/transport/http"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting attendance-auth", "env", cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("service_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("service_stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	str, err := openStorage(rootCtx, cfg.DB, log)
	if err != nil {
		return err
	}
	defer str.Close()

	codec, err := token.New(cfg.Auth)
	if err != nil {
		return err
	}

	hasher, err := password.New(cfg.Auth)
	if err != nil {
		return err
	}

	srvc, err := service.New(str, hasher, codec, cfg.Auth)
	if err != nil {
		return err
	}

	if cfg.Redis.Enabled() {
		cacheCtx, cacheCancel := context.WithTimeout(rootCtx, 5*time.Second)
		cc, err := cache.NewRedisCache(cacheCtx, cfg.Redis.RedisURL, cfg.Redis.Prefix, cfg.Redis.TTL)
		cacheCancel()
		if err != nil {
			return err
		}

		defer func() {
			if cerr := cc.Close(); cerr != nil {
				log.Warn("redis_close_failed", slog.String("err", cerr.Error()))
			}
		}()

		srvc.SetCredentialCache(cc)
		log.Info("credential_cache_enabled", slog.Duration("ttl", cfg.Redis.TTL))
	}

	log.Info("service_initialized",
		slog.String("db_driver", cfg.DB.Driver),
		slog.String("jwt_alg", codec.Algorithm()),
		slog.String("password_alg", cfg.Auth.PasswordAlgorithm),
	)

	var ready int32 // 0 — not ready; 1 — ready

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handler := authhttp.NewRouter(srvc, authhttp.Options{
		Logger:  log,
		Timeout: cfg.Timeouts.Request,
		Ready: func(ctx context.Context) error {
			if atomic.LoadInt32(&ready) == 0 {
				return errors.New("shutting down")
			}
			return str.Ping(ctx)
		},
		Registry: reg,
	})

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return fmt.Errorf("http listen %s: %w", httpAddr, err)
	}

	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)
	log.Info("service_ready")

	var serveErr error
	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case serveErr = <-serveErrCh:
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.Shutdown)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	return serveErr
}

// openStorage выбирает хранилище по db.driver и применяет миграции для PostgreSQL.
func openStorage(ctx context.Context, cfg config.DBConfig, log *slog.Logger) (storage.Storage, error) {
	if cfg.Driver == config.DriverMemory {
		log.Warn("using in-memory storage: data is lost on restart")
		return memory.New(), nil
	}

	// Подключение к БД c таймаутом.
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	str, err := postgres.New(dbCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Info("postgres_connected")

	if cfg.SkipMigrations {
		log.Info("migrations_skipped")
		return str, nil
	}

	if err := str.RunMigrations(dbCtx); err != nil {
		str.Close()
		return nil, err
	}
	log.Info("migrations_applied")

	return str, nil
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
