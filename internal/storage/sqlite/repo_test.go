package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"csvdataset/internal/storage"
)

func newRepo(tb testing.TB) *Repository {
	tb.Helper()
	dsn := filepath.Join(tb.TempDir(), "test.db")
	r, closeFn, err := NewRepository(context.Background(), Config{DSN: dsn})
	if err != nil {
		tb.Fatalf("NewRepository: %v", err)
	}
	tb.Cleanup(closeFn)
	return r
}

func mustExec(tb testing.TB, q storage.Querier, stmt string, args ...any) {
	tb.Helper()
	if _, err := q.Exec(context.Background(), stmt, args...); err != nil {
		tb.Fatalf("exec %q: %v", stmt, err)
	}
}

func TestNewRepository_EmptyDSN(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{}); err == nil {
		t.Fatalf("NewRepository with empty DSN: want error")
	}
}

// TestCatalog checks TableExists and Columns against a real table.
func TestCatalog(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()

	ok, err := r.TableExists(ctx, "people")
	if err != nil || ok {
		t.Fatalf("TableExists before create = %v, %v; want false", ok, err)
	}
	mustExec(t, r, `CREATE TABLE "people" ("id" INTEGER PRIMARY KEY AUTOINCREMENT, "name" TEXT, "active" BOOLEAN)`)

	ok, err = r.TableExists(ctx, "people")
	if err != nil || !ok {
		t.Fatalf("TableExists after create = %v, %v; want true", ok, err)
	}
	cols, err := r.Columns(ctx, "people")
	if err != nil {
		t.Fatalf("Columns: %v", err)
	}
	want := []storage.Column{
		{Name: "id", DBType: "INTEGER"},
		{Name: "name", DBType: "TEXT"},
		{Name: "active", DBType: "BOOLEAN"},
	}
	if len(cols) != len(want) {
		t.Fatalf("Columns = %v, want %v", cols, want)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Fatalf("Columns[%d] = %v, want %v", i, cols[i], want[i])
		}
	}
}

// TestInTx_RollbackUndoesDDL verifies that a failing transaction leaves no
// table behind.
func TestInTx_RollbackUndoesDDL(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := r.InTx(ctx, func(ctx context.Context, q storage.Querier) error {
		mustExec(t, q, `CREATE TABLE "t" ("a" TEXT)`)
		mustExec(t, q, `INSERT INTO "t" ("a") VALUES (?)`, "x")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx err = %v, want boom", err)
	}
	if ok, _ := r.TableExists(ctx, "t"); ok {
		t.Fatalf("table survived rollback")
	}
}

func TestInTx_Commit(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()

	err := r.InTx(ctx, func(ctx context.Context, q storage.Querier) error {
		mustExec(t, q, `CREATE TABLE "t" ("a" TEXT)`)
		n, err := q.Exec(ctx, `INSERT INTO "t" ("a") VALUES (?), (?)`, "x", "y")
		if err != nil {
			return err
		}
		if n != 2 {
			t.Errorf("affected = %d, want 2", n)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
	rows, err := r.Query(ctx, `SELECT "a" FROM "t" ORDER BY "a"`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(rows) != 2 || rows[0][0] != "x" || rows[1][0] != "y" {
		t.Fatalf("rows = %#v, want x,y", rows)
	}
}

// TestFactoryRegistration ensures init wired the "sqlite" kind.
func TestFactoryRegistration(t *testing.T) {
	t.Parallel()

	repo, err := storage.New(context.Background(), storage.Config{Kind: "sqlite", DSN: filepath.Join(t.TempDir(), "f.db")})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	defer repo.Close()
	if got := repo.Dialect().Name(); got != "sqlite" {
		t.Fatalf("Dialect().Name() = %q, want sqlite", got)
	}
}
