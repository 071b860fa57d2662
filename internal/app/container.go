// Package app wires a config.Service into a ready dataset.Manager. Both
// commands build their dependencies through it so the CLI layer never
// imports drivers or backend packages directly.
package app

import (
	"context"
	"fmt"
	"log"

	"csvdataset/internal/analysis"
	"csvdataset/internal/blobstore"
	"csvdataset/internal/config"
	"csvdataset/internal/dataset"
	"csvdataset/internal/ddl"
	"csvdataset/internal/parser"
	csvparser "csvdataset/internal/parser/csv"
	"csvdataset/internal/storage"
	mssqlddl "csvdataset/internal/storage/mssql/ddl"
	mysqlddl "csvdataset/internal/storage/mysql/ddl"
	postgresddl "csvdataset/internal/storage/postgres/ddl"
	sqliteddl "csvdataset/internal/storage/sqlite/ddl"

	// register every storage and blob backend; config picks one.
	_ "csvdataset/internal/blobstore/all"
	_ "csvdataset/internal/storage/all"
)

// Container holds the long-lived dependencies of a process.
type Container struct {
	Repo    storage.Repository
	Blobs   blobstore.Store
	Manager *dataset.Manager
}

// Build opens the storage and blob backends named by cfg and constructs the
// dataset manager. The caller must Close the container.
func Build(ctx context.Context, cfg config.Service, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}
	p, err := NewParser(cfg.Parser, logger)
	if err != nil {
		return nil, err
	}

	var analyzer dataset.Analyzer
	if cfg.Analysis.BaseURL != "" {
		c, err := analysis.NewClient(cfg.Analysis.ClientConfig())
		if err != nil {
			return nil, err
		}
		analyzer = c
	} else {
		logger.Printf("app: analysis.base_url not set; uploads are not forwarded")
	}

	blobs, err := blobstore.New(ctx, cfg.Blob.StoreConfig())
	if err != nil {
		return nil, err
	}
	repo, err := storage.New(ctx, cfg.Storage.StorageConfig())
	if err != nil {
		return nil, err
	}

	m, err := dataset.NewManager(ctx, repo, blobs, analyzer, p, dataset.Options{
		Table:          cfg.Dataset.Table,
		MaxPageSize:    cfg.Dataset.MaxPageSize,
		MaxUploadBytes: cfg.Dataset.MaxUploadBytes,
		Job:            cfg.Job,
		Logger:         logger,
	})
	if err != nil {
		repo.Close()
		return nil, err
	}
	logger.Printf("app: storage=%s blob=%s table=%s", cfg.Storage.Kind, cfg.Blob.Kind, m.Table())
	return &Container{Repo: repo, Blobs: blobs, Manager: m}, nil
}

// Close releases the storage connection.
func (c *Container) Close() {
	if c != nil && c.Repo != nil {
		c.Repo.Close()
	}
}

// NewParser builds the parser selected by cfg.
func NewParser(cfg config.Parser, logger *log.Logger) (parser.Parser, error) {
	switch cfg.Kind {
	case "", "csv":
		opt := csvparser.OptionsFrom(cfg.Options)
		opt.Logger = logger
		return csvparser.NewParser(opt), nil
	default:
		return nil, fmt.Errorf("unsupported parser.kind=%s", cfg.Kind)
	}
}

// DialectFor returns the SQL dialect of a storage kind without connecting.
func DialectFor(kind string) (ddl.Dialect, error) {
	switch kind {
	case "postgres":
		return postgresddl.Dialect{}, nil
	case "sqlite":
		return sqliteddl.Dialect{}, nil
	case "mssql":
		return mssqlddl.Dialect{}, nil
	case "mysql":
		return mysqlddl.Dialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported storage.kind=%s", kind)
	}
}
