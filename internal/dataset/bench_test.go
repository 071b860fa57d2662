package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"csvdataset/internal/blobstore"
	"csvdataset/internal/parser/csv"
	"csvdataset/internal/storage"
	sqliteddl "csvdataset/internal/storage/sqlite/ddl"
)

// benchCSV builds an upload with one column of each type.
func benchCSV(rows int) []byte {
	var sb strings.Builder
	sb.WriteString("id_ext,name,amount,active,registered\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&sb, "%d,name %d,%d.25,%t,2023-%02d-%02d\n", i, i, i, i%2 == 0, i%12+1, i%28+1)
	}
	return []byte(sb.String())
}

// BenchmarkPrepare covers parse, inference, coercion and statement rendering.
// Run with:
//
//	go test ./internal/dataset -run=^$ -bench ^BenchmarkPrepare$ -benchmem
func BenchmarkPrepare(b *testing.B) {
	data := benchCSV(10_000)
	p := csv.NewParser(csv.Options{Logger: quiet})
	d := sqliteddl.Dialect{}

	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		if _, err := Prepare(p, d, "data", data); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkUpload_SQLite measures a full replace-on-upload cycle.
func BenchmarkUpload_SQLite(b *testing.B) {
	ctx := context.Background()
	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: filepath.Join(b.TempDir(), "bench.db")})
	if err != nil {
		b.Fatal(err)
	}
	defer repo.Close()
	m, err := NewManager(ctx, repo, blobstore.NewMemory(), nil, csv.NewParser(csv.Options{Logger: quiet}), Options{Logger: quiet})
	if err != nil {
		b.Fatal(err)
	}
	req := UploadRequest{Data: benchCSV(2_000), Filename: "bench.csv"}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := m.Upload(ctx, req); err != nil {
			b.Fatal(err)
		}
	}
}
