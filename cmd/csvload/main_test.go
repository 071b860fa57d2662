package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"csvdataset/internal/dataset"
)

var quiet = log.New(io.Discard, "", 0)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRun_DryRun(t *testing.T) {
	t.Parallel()
	csvPath := writeFile(t, "people.csv", "name,age\nann,31\nbob,\n")
	cfg := writeFile(t, "service.json", `{"storage":{"kind":"postgres","dsn":"postgres://unused"},"dataset":{"table":"people"}}`)

	var out bytes.Buffer
	if err := run(context.Background(), []string{"-file", csvPath, "-config", cfg, "-env", "", "-dry-run"}, &out, quiet); err != nil {
		t.Fatalf("run: %v", err)
	}
	script := out.String()
	for _, want := range []string{
		`CREATE TABLE IF NOT EXISTS "people"`,
		`"age" DOUBLE PRECISION`,
		`INSERT INTO "people" ("name", "age", "created_at", "updated_at") VALUES ('ann', 31, NOW(), NOW()), ('bob', NULL, NOW(), NOW());`,
	} {
		if !strings.Contains(script, want) {
			t.Fatalf("script missing %q:\n%s", want, script)
		}
	}
}

func TestRun_Load(t *testing.T) {
	t.Parallel()
	csvPath := writeFile(t, "flags.csv", "k,on\na,true\nb,false\n")
	dsn := filepath.Join(t.TempDir(), "load.db")
	cfg := writeFile(t, "service.json", fmt.Sprintf(`{"storage":{"kind":"sqlite","dsn":%q},"blob":{"kind":"memory"}}`, dsn))

	var out bytes.Buffer
	if err := run(context.Background(), []string{"-file", csvPath, "-config", cfg, "-env", ""}, &out, quiet); err != nil {
		t.Fatalf("run: %v", err)
	}
	var res dataset.UploadResult
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("decode output %q: %v", out.String(), err)
	}
	if res.Rows != 2 || res.Table != "data" || res.Blob.Filename != "flags.csv" {
		t.Fatalf("result = %+v", res)
	}
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown flag", []string{"-bogus"}, "flag provided but not defined"},
		{"missing file flag", []string{"-env", ""}, "-file is required"},
		{"missing input", []string{"-env", "", "-file", "/nonexistent/x.csv"}, "open input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := run(context.Background(), tt.args, io.Discard, quiet)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("run err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestRun_ValidateOnly(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := run(context.Background(), []string{"-env", "", "-validate"}, io.Discard, log.New(&buf, "", 0)); err != nil {
		t.Fatalf("run -validate: %v", err)
	}
	if !strings.Contains(buf.String(), "configuration is valid") {
		t.Fatalf("log = %q", buf.String())
	}
}
