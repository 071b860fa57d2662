package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CSVDATASET_"

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// Load builds a Service from defaults, the JSON file at path (optional) and
// the environment. Variables in envFile (optional, dotenv format) are used
// only where the process environment does not define them.
//
// String values in the JSON file may reference variables as ${VAR} or $VAR.
func Load(path, envFile string) (Service, error) {
	fileEnv, err := ReadEnvFile(envFile)
	if err != nil {
		return Service{}, err
	}
	lookup := func(k string) (string, bool) {
		if v, ok := os.LookupEnv(k); ok {
			return v, true
		}
		v, ok := fileEnv[k]
		return v, ok
	}

	s := Defaults()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Service{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := Decode(b, &s, lookup); err != nil {
			return Service{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	if err := ApplyEnv(&s, lookup); err != nil {
		return Service{}, err
	}
	return s, nil
}

// ReadEnvFile parses a dotenv file without touching the process
// environment. A missing file yields an empty map.
func ReadEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	m, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s file: %w", path, err)
	}
	return m, nil
}

// Decode expands ${VAR} references in b using lookup and decodes the result
// over s, so fields absent from b keep their current values.
func Decode(b []byte, s *Service, lookup LookupFunc) error {
	expanded := os.Expand(string(b), func(k string) string {
		v, _ := lookup(k)
		return jsonEscape(v)
	})
	dec := json.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.DisallowUnknownFields()
	return dec.Decode(s)
}

// jsonEscape escapes v for embedding inside a JSON string literal.
func jsonEscape(v string) string {
	b, _ := json.Marshal(v)
	return string(b[1 : len(b)-1])
}

// envVar binds one CSVDATASET_* variable to a Service field.
type envVar struct {
	name string
	set  func(s *Service, v string) error
}

var envVars = []envVar{
	{"JOB", func(s *Service, v string) error { s.Job = v; return nil }},
	{"ADDR", func(s *Service, v string) error { s.Server.Addr = v; return nil }},
	{"CORS_ORIGINS", func(s *Service, v string) error { s.Server.CORSOrigins = splitList(v); return nil }},
	{"SHUTDOWN_TIMEOUT", func(s *Service, v string) (err error) { s.Server.ShutdownTimeout, err = parseDuration(v); return err }},
	{"STORAGE_KIND", func(s *Service, v string) error { s.Storage.Kind = v; return nil }},
	{"STORAGE_DSN", func(s *Service, v string) error { s.Storage.DSN = v; return nil }},
	{"BLOB_KIND", func(s *Service, v string) error { s.Blob.Kind = v; return nil }},
	{"BLOB_DIR", func(s *Service, v string) error { s.Blob.Dir = v; return nil }},
	{"BLOB_BASE_URL", func(s *Service, v string) error { s.Blob.BaseURL = v; return nil }},
	{"S3_BUCKET", func(s *Service, v string) error { s.Blob.Bucket = v; return nil }},
	{"S3_REGION", func(s *Service, v string) error { s.Blob.Region = v; return nil }},
	{"S3_ENDPOINT", func(s *Service, v string) error { s.Blob.Endpoint = v; return nil }},
	{"S3_ACCESS_KEY_ID", func(s *Service, v string) error { s.Blob.AccessKeyID = v; return nil }},
	{"S3_SECRET_ACCESS_KEY", func(s *Service, v string) error { s.Blob.SecretAccessKey = v; return nil }},
	{"ANALYSIS_URL", func(s *Service, v string) error { s.Analysis.BaseURL = v; return nil }},
	{"ANALYSIS_TIMEOUT", func(s *Service, v string) (err error) { s.Analysis.Timeout, err = parseDuration(v); return err }},
	{"TABLE", func(s *Service, v string) error { s.Dataset.Table = v; return nil }},
	{"MAX_PAGE_SIZE", func(s *Service, v string) (err error) { s.Dataset.MaxPageSize, err = strconv.Atoi(v); return err }},
	{"MAX_UPLOAD_BYTES", func(s *Service, v string) (err error) {
		s.Dataset.MaxUploadBytes, err = strconv.ParseInt(v, 10, 64)
		return err
	}},
	{"METRICS_BACKEND", func(s *Service, v string) error { s.Metrics.Backend = v; return nil }},
	{"PUSHGATEWAY_URL", func(s *Service, v string) error { s.Metrics.PushgatewayURL = v; return nil }},
	{"DATADOG_ADDR", func(s *Service, v string) error { s.Metrics.DatadogAddr = v; return nil }},
}

// ApplyEnv overrides fields of s from CSVDATASET_* variables.
func ApplyEnv(s *Service, lookup LookupFunc) error {
	for _, ev := range envVars {
		v, ok := lookup(EnvPrefix + ev.name)
		if !ok {
			continue
		}
		if err := ev.set(s, strings.TrimSpace(v)); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, ev.name, err)
		}
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
