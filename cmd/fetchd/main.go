// fetchd runs a directory of declarative job documents: each decodes
// into a task.Job, runs its tasks concurrently against their
// configured sources and pipelines, and exposes a small HTTP surface
// for health and status checks.
//
// Bootstrap shape (logger, optional OTel tracer, Vault secrets, HTTP
// server, signal-driven graceful shutdown) is grounded on
// discovery-service/cmd/api/main.go.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/arc-self/fetchd/internal/config"
	"github.com/arc-self/fetchd/internal/ferr"
	"github.com/arc-self/fetchd/internal/httpx"
	"github.com/arc-self/fetchd/internal/persist/filestore"
	"github.com/arc-self/fetchd/internal/persist/pg"
	"github.com/arc-self/fetchd/internal/persist/redisstore"
	"github.com/arc-self/fetchd/internal/task"
	"github.com/arc-self/fetchd/internal/telemetry"
)

const (
	exitOK          = 0
	exitConfigError = 1
	exitRuntimeErr  = 2
	exitVerifyFail  = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	verify := flag.Bool("verify", false, "decode and build every job document, then exit without running")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	v := viper.New()
	v.SetEnvPrefix("fetchd")
	v.AutomaticEnv()
	v.SetDefault("jobs_dir", "./jobs")
	v.SetDefault("persist_backend", "file")
	v.SetDefault("persist_dir", "./data")
	v.SetDefault("vault_addr", "http://localhost:8200")
	v.SetDefault("vault_token", "root")
	v.SetDefault("vault_mount", "secret/data/fetchd")
	v.SetDefault("http_addr", ":8080")

	if cfgFile := v.GetString("config_file"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			logger.Error("failed to read config file", zap.Error(err))
			return exitConfigError
		}
	}

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint != "" {
		tp, err := telemetry.InitTracer(context.Background(), "fetchd", otelEndpoint)
		if err != nil {
			logger.Error("failed to init OTel tracer", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
			logger.Info("OTel tracer initialized", zap.String("endpoint", otelEndpoint))
		}
	}

	creds, err := config.NewVaultCredentials(v.GetString("vault_addr"), v.GetString("vault_token"), v.GetString("vault_mount"))
	if err != nil {
		logger.Error("failed to init vault credentials", zap.Error(err))
		return exitConfigError
	}

	store, closeStore, err := buildStore(v, logger)
	if err != nil {
		logger.Error("failed to init persistence store", zap.Error(err))
		return exitConfigError
	}
	if closeStore != nil {
		defer closeStore()
	}

	env := config.NewEnvironment(creds, store)
	defer env.Close()

	jobs, err := loadJobs(v.GetString("jobs_dir"), env, logger)
	if err != nil {
		logger.Error("failed to load job documents", zap.Error(err))
		if *verify {
			return exitVerifyFail
		}
		return exitConfigError
	}

	if *verify {
		logger.Info("verify: all job documents decoded and built successfully", zap.Int("jobs", len(jobs)))
		return exitOK
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		go func(j *task.Job) {
			defer wg.Done()
			j.Run(ctx)
		}(j)
	}

	e := newServer(logger, jobs)
	go func() {
		addr := v.GetString("http_addr")
		logger.Info("fetchd HTTP server listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failure", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown error", zap.Error(err))
	}

	wg.Wait()
	logger.Info("fetchd shut down cleanly")
	return exitOK
}

// storeCloser lets main defer-close whichever backend buildStore picked.
type storeCloser func()

func buildStore(v *viper.Viper, logger *zap.Logger) (config.Store, storeCloser, error) {
	switch strings.ToLower(v.GetString("persist_backend")) {
	case "pg", "postgres":
		s, err := pg.Open(context.Background(), v.GetString("pg_url"))
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "redis":
		db, _ := strconv.Atoi(v.GetString("redis_db"))
		s, err := redisstore.Open(context.Background(), v.GetString("redis_addr"), v.GetString("redis_password"), db)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "file", "":
		return filestore.New(v.GetString("persist_dir")), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown persist_backend %q", v.GetString("persist_backend"))
	}
}

// loadJobs decodes and builds every *.yaml/*.yml document under dir
// into a runnable task.Job, skipping documents whose disabled flag is set.
func loadJobs(dir string, env *config.Environment, logger *zap.Logger) ([]*task.Job, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ferr.NewConfigError("read jobs dir "+dir, err)
	}

	var jobs []*task.Job
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		ext := filepath.Ext(de.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		name := strings.TrimSuffix(de.Name(), ext)
		raw, err := os.ReadFile(filepath.Join(dir, de.Name()))
		if err != nil {
			return nil, ferr.NewConfigError("read job document "+de.Name(), err)
		}

		doc, err := config.DecodeJobDocument(raw, env)
		if errors.Is(err, config.ErrDisabled) {
			logger.Info("job disabled, skipping", zap.String("job", name))
			continue
		}
		if err != nil {
			return nil, ferr.NewConfigError("decode job document "+de.Name(), err)
		}

		job, err := config.BuildJob(name, doc, env, logger)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
		logger.Info("job built", zap.String("job", name), zap.Int("tasks", len(job.Tasks)))
	}
	return jobs, nil
}

func newServer(logger *zap.Logger, jobs []*task.Job) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(otelecho.Middleware("fetchd"))
	e.Use(middleware.Recover())
	e.Use(httpx.NullToEmptyArray())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, val middleware.RequestLoggerValues) error {
			logger.Info("HTTP request", zap.String("uri", val.URI), zap.Int("status", val.Status))
			return nil
		},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/status", func(c echo.Context) error {
		names := make([]string, 0, len(jobs))
		for _, j := range jobs {
			names = append(names, j.Name)
		}
		return c.JSON(http.StatusOK, map[string]any{"jobs": names})
	})

	return e
}
