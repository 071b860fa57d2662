package mysql

import (
	"context"
	"testing"

	"csvdataset/internal/storage"
)

func TestAdapterRegistration(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var gotCfg Config
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		gotCfg = cfg
		return &Repository{}, func() {}, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{Kind: "mysql", DSN: "u:p@tcp(localhost:3306)/db"})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	defer repo.Close()
	if gotCfg.DSN != "u:p@tcp(localhost:3306)/db" {
		t.Fatalf("DSN = %q", gotCfg.DSN)
	}
	if got := repo.Dialect().Name(); got != "mysql" {
		t.Fatalf("Dialect().Name() = %q", got)
	}
}

func TestNewRepository_BadDSN(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{DSN: "not a dsn"}); err == nil {
		t.Fatalf("NewRepository with malformed DSN: want error")
	}
}
