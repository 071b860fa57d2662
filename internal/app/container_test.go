package app

import (
	"context"
	"io"
	"log"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"csvdataset/internal/config"
	"csvdataset/internal/dataset"
)

var quiet = log.New(io.Discard, "", 0)

func TestBuild_SQLiteMemoryBlobs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cfg := config.Defaults()
	cfg.Storage.DSN = filepath.Join(t.TempDir(), "app.db")
	cfg.Blob = config.Blob{Kind: "memory"}
	cfg.Dataset.MaxPageSize = 2

	c, err := Build(ctx, cfg, quiet)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer c.Close()

	if _, err := c.Manager.Upload(ctx, dataset.UploadRequest{Data: []byte("a\n1\n2\n3\n"), Filename: "a.csv"}); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	p, err := c.Manager.Page(ctx, 1, 50)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if p.PageSize != 2 || len(p.Rows) != 2 || p.LastPage != 2 {
		t.Fatalf("page = size %d rows %d last %d, want clamped to 2", p.PageSize, len(p.Rows), p.LastPage)
	}
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Service)
		want   string
	}{
		{"storage kind", func(s *config.Service) { s.Storage.Kind = "oracle" }, "unsupported storage.kind=oracle"},
		{"blob kind", func(s *config.Service) { s.Blob.Kind = "ftp" }, "unsupported blobstore.kind=ftp"},
		{"parser kind", func(s *config.Service) { s.Parser.Kind = "xml" }, "unsupported parser.kind=xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.Defaults()
			cfg.Storage.DSN = filepath.Join(t.TempDir(), "app.db")
			cfg.Blob = config.Blob{Kind: "memory"}
			tt.mutate(&cfg)

			_, err := Build(context.Background(), cfg, quiet)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Build err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestDialectFor(t *testing.T) {
	t.Parallel()

	for _, kind := range []string{"postgres", "sqlite", "mssql", "mysql"} {
		d, err := DialectFor(kind)
		if err != nil {
			t.Fatalf("DialectFor(%q): %v", kind, err)
		}
		if d.Name() != kind {
			t.Fatalf("DialectFor(%q).Name() = %q", kind, d.Name())
		}
	}
	if _, err := DialectFor("oracle"); err == nil {
		t.Fatalf("DialectFor(oracle): want error")
	}
}

// TestSetupMetrics is not parallel: it installs the process-wide backend.
func TestSetupMetrics(t *testing.T) {
	h, closeFn := SetupMetrics(config.Metrics{Backend: "none"}, "job", quiet)
	if h != nil {
		t.Fatalf("none: handler = %v, want nil", h)
	}
	closeFn()

	h, closeFn = SetupMetrics(config.Metrics{Backend: "bogus"}, "job", quiet)
	if h != nil {
		t.Fatalf("bogus: handler = %v, want nil", h)
	}
	closeFn()

	h, closeFn = SetupMetrics(config.Metrics{Backend: "prometheus"}, "job", quiet)
	defer closeFn()
	if h == nil {
		t.Fatalf("prometheus: handler = nil")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("GET /metrics = %d", rec.Code)
	}
}
