// Command server serves the dataset HTTP API.
//
// Usage:
//
//	go run ./cmd/server -config configs/service.json -env .env
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"csvdataset/internal/api"
	"csvdataset/internal/app"
	"csvdataset/internal/config"
)

// server is the part of *http.Server that run drives.
type server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// newServer is a test hook.
var newServer = func(addr string, h http.Handler) server {
	return &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
}

func main() {
	logger := log.New(os.Stderr, "", log.LstdFlags)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], logger); err != nil {
		logger.Fatal(err)
	}
}

func run(ctx context.Context, args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfgPath := fs.String("config", "", "service config JSON path (optional)")
	envFile := fs.String("env", ".env", "dotenv file with CSVDATASET_* overrides (optional)")
	addr := fs.String("addr", "", "listen address (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*cfgPath, *envFile)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	issues := config.Validate(cfg)
	for _, iss := range issues {
		if iss.Severity == config.SeverityWarning {
			logger.Printf("config: %s", iss)
		}
	}
	if err := config.Errors(issues); err != nil {
		return err
	}

	metricsHandler, flush := app.SetupMetrics(cfg.Metrics, cfg.Job, logger)
	defer flush()

	c, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	h := api.NewRouter(c.Manager, api.Config{
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxUploadBytes: cfg.Dataset.MaxUploadBytes,
		Metrics:        metricsHandler,
		Logger:         logger,
	})
	srv := newServer(cfg.Server.Addr, h)

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Printf("listening on %s", cfg.Server.Addr)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Printf("shutting down")
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Duration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
