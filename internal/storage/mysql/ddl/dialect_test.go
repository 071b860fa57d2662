package ddl

import (
	"testing"
	"time"

	gddl "csvdataset/internal/ddl"
	"csvdataset/internal/schema"
)

func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	d := Dialect{}
	def, err := gddl.DatasetTable("data", []string{"n", "s"}, schema.Types{"n": schema.Numeric, "s": schema.Text}, d)
	if err != nil {
		t.Fatalf("DatasetTable: %v", err)
	}
	got, err := d.CreateTableSQL(def)
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	want := "CREATE TABLE IF NOT EXISTS `data` (\n" +
		"  `id` BIGINT AUTO_INCREMENT PRIMARY KEY,\n" +
		"  `n` DOUBLE,\n" +
		"  `s` LONGTEXT,\n" +
		"  `created_at` DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),\n" +
		"  `updated_at` DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)\n" +
		");"
	if got != want {
		t.Fatalf("CreateTableSQL =\n%s\nwant\n%s", got, want)
	}
}

func TestDialectDetails(t *testing.T) {
	t.Parallel()

	d := Dialect{}
	if d.TransactionalDDL() {
		t.Fatalf("MySQL DDL must not be reported as transactional")
	}
	if got := QuoteIdent("a`b"); got != "`a``b`" {
		t.Fatalf("QuoteIdent = %q", got)
	}
	ts := time.Date(2023, 1, 1, 12, 0, 0, 500000000, time.UTC)
	if got, want := d.Literal(ts), "'2023-01-01 12:00:00.5'"; got != want {
		t.Fatalf("Literal(ts) = %q, want %q", got, want)
	}
	if got, ok := d.LogicalType("tinyint"); !ok || got != schema.Boolean {
		t.Fatalf("LogicalType(tinyint) = %v, %v", got, ok)
	}
}
