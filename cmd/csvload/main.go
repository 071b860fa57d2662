// Command csvload loads one CSV file as the current dataset, replacing any
// previous one, using the same pipeline as the HTTP upload.
//
// Usage:
//
//	go run ./cmd/csvload -file people.csv -config configs/service.json
//	go run ./cmd/csvload -file people.csv -dry-run   # print SQL, touch nothing
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"csvdataset/internal/app"
	"csvdataset/internal/config"
	"csvdataset/internal/dataset"
)

func main() {
	logger := log.New(os.Stderr, "", log.LstdFlags)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, logger); err != nil {
		logger.Fatal(err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, logger *log.Logger) error {
	fs := flag.NewFlagSet("csvload", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		file        = fs.String("file", "", "CSV file to load (required)")
		cfgPath     = fs.String("config", "", "service config JSON path (optional)")
		envFile     = fs.String("env", ".env", "dotenv file with CSVDATASET_* overrides (optional)")
		dryRun      = fs.Bool("dry-run", false, "print the CREATE TABLE and INSERT script instead of loading")
		validate    = fs.Bool("validate", false, "validate the configuration and exit")
		backendFlg  = fs.String("metrics-backend", "", "metrics backend (none, prometheus, datadog); overrides config")
		pushGateway = fs.String("pushgateway-url", "", "Pushgateway base URL; overrides config")
		verbose     = fs.Bool("v", false, "enable verbose logs")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*cfgPath, *envFile)
	if err != nil {
		return err
	}
	if *backendFlg != "" {
		cfg.Metrics.Backend = *backendFlg
	}
	if *pushGateway != "" {
		cfg.Metrics.PushgatewayURL = *pushGateway
	}
	issues := config.Validate(cfg)
	for _, iss := range issues {
		if iss.Severity == config.SeverityWarning && *verbose {
			logger.Printf("config: %s", iss)
		}
	}
	if err := config.Errors(issues); err != nil {
		return err
	}
	if *validate {
		logger.Printf("configuration is valid")
		return nil
	}
	if *file == "" {
		return errors.New("-file is required")
	}

	data, err := readInput(*file)
	if err != nil {
		return err
	}
	name := filepath.Base(*file)
	start := time.Now()

	if *dryRun {
		d, err := app.DialectFor(cfg.Storage.Kind)
		if err != nil {
			return err
		}
		p, err := app.NewParser(cfg.Parser, logger)
		if err != nil {
			return err
		}
		plan, err := dataset.Prepare(p, d, cfg.Dataset.Table, data)
		if err != nil {
			return err
		}
		script, err := plan.Script(d)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(stdout, script); err != nil {
			return err
		}
		logger.Printf("loader: dry-run file=%s dialect=%s rows=%d skipped=%d statements=%d",
			name, d.Name(), len(plan.Rows), plan.Skipped, len(plan.Inserts))
		return nil
	}

	_, flush := app.SetupMetrics(cfg.Metrics, cfg.Job, logger)
	defer flush()

	c, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	res, err := c.Manager.Upload(ctx, dataset.UploadRequest{
		Data:        data,
		Filename:    name,
		ContentType: contentType(name),
	})
	if err != nil {
		return err
	}
	if *verbose {
		logger.Printf("loader: completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// readInput reads the whole file with a sequential-access hint.
func readInput(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	adviseSequential(f)
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return b, nil
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "text/csv"
}
