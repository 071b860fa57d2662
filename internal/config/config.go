// Package config defines the JSON configuration of the csvdataset service
// and the csvload command.
//
// A configuration is built in three layers: built-in defaults, an optional
// JSON file, then CSVDATASET_* environment variables (which may come from a
// .env file). Validate reports static problems as a list of issues.
//
// Example (trimmed):
//
//	{
//	  "job": "csvdataset",
//	  "server":   { "addr": ":8080", "cors_origins": ["http://localhost:5173"] },
//	  "storage":  { "kind": "postgres", "dsn": "postgresql://app@db/app" },
//	  "blob":     { "kind": "s3", "bucket": "datasets", "endpoint": "https://fsn1.your-objectstorage.com" },
//	  "analysis": { "base_url": "http://analysis:8000", "timeout": "2m" },
//	  "parser":   { "kind": "csv", "options": { "trim_space": true } },
//	  "dataset":  { "table": "data", "max_page_size": 500 },
//	  "metrics":  { "backend": "prometheus" }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"csvdataset/internal/analysis"
	"csvdataset/internal/blobstore"
	"csvdataset/internal/storage"
)

// Service is the top-level configuration object.
type Service struct {
	// Job labels metrics emitted by this process.
	Job string `json:"job"`

	Server   Server   `json:"server"`
	Storage  Storage  `json:"storage"`
	Blob     Blob     `json:"blob"`
	Analysis Analysis `json:"analysis"`
	Parser   Parser   `json:"parser"`
	Dataset  Dataset  `json:"dataset"`
	Metrics  Metrics  `json:"metrics"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr string `json:"addr"`

	// CORSOrigins enables CORS for the listed origins. Empty disables CORS.
	CORSOrigins []string `json:"cors_origins"`

	ShutdownTimeout Duration `json:"shutdown_timeout"`
}

// Storage selects the SQL backend holding the dataset table.
type Storage struct {
	// Kind is one of postgres, sqlite, mssql, mysql.
	Kind string `json:"kind"`
	DSN  string `json:"dsn"`

	// LockName overrides the name of the lock serializing dataset mutations.
	LockName string `json:"lock_name,omitempty"`
}

// Blob selects where raw uploads are kept.
type Blob struct {
	// Kind is one of memory, local, s3.
	Kind string `json:"kind"`

	Dir string `json:"dir,omitempty"`

	Bucket          string   `json:"bucket,omitempty"`
	Region          string   `json:"region,omitempty"`
	Endpoint        string   `json:"endpoint,omitempty"`
	AccessKeyID     string   `json:"access_key_id,omitempty"`
	SecretAccessKey string   `json:"secret_access_key,omitempty"`
	PresignExpiry   Duration `json:"presign_expiry,omitempty"`

	Prefix  string `json:"prefix,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
}

// Analysis configures the analysis service client. An empty BaseURL
// disables forwarding.
type Analysis struct {
	BaseURL            string   `json:"base_url"`
	Timeout            Duration `json:"timeout,omitempty"`
	MaxRetries         int      `json:"max_retries,omitempty"`
	InsecureSkipVerify bool     `json:"insecure_skip_verify,omitempty"`
}

// Parser selects how uploads are turned into rows.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind"`

	// Options is interpreted by the parser. For CSV: comma (string),
	// trim_space (bool), dynamic_typing (bool), header_map (object).
	Options Options `json:"options"`
}

// Dataset configures the materialized table and its readers.
type Dataset struct {
	Table string `json:"table"`

	// MaxPageSize clamps requested page sizes; 0 means unbounded.
	MaxPageSize int `json:"max_page_size"`

	// MaxUploadBytes rejects larger uploads; 0 means unbounded.
	MaxUploadBytes int64 `json:"max_upload_bytes"`
}

// Metrics selects a metrics backend.
type Metrics struct {
	// Backend is one of none, prometheus, datadog.
	Backend string `json:"backend"`

	// PushgatewayURL, when set, is where the prometheus backend pushes on flush.
	PushgatewayURL string `json:"pushgateway_url,omitempty"`

	DatadogAddr string   `json:"datadog_addr,omitempty"`
	Namespace   string   `json:"namespace,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Defaults returns the configuration used before any file or environment
// layer is applied: a local SQLite database and filesystem blob directory.
func Defaults() Service {
	return Service{
		Job: "csvdataset",
		Server: Server{
			Addr:            ":8080",
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Storage: Storage{Kind: "sqlite", DSN: "csvdataset.db"},
		Blob:    Blob{Kind: "local", Dir: "blobs"},
		Parser:  Parser{Kind: "csv", Options: Options{}},
		Dataset: Dataset{Table: "data"},
		Metrics: Metrics{Backend: "none"},
	}
}

// StorageConfig converts to the storage factory configuration.
func (s Storage) StorageConfig() storage.Config {
	return storage.Config{Kind: s.Kind, DSN: s.DSN, LockName: s.LockName}
}

// StoreConfig converts to the blobstore factory configuration.
func (b Blob) StoreConfig() blobstore.Config {
	return blobstore.Config{
		Kind:            b.Kind,
		Dir:             b.Dir,
		Bucket:          b.Bucket,
		Region:          b.Region,
		Endpoint:        b.Endpoint,
		AccessKeyID:     b.AccessKeyID,
		SecretAccessKey: b.SecretAccessKey,
		PresignExpiry:   time.Duration(b.PresignExpiry),
		Prefix:          b.Prefix,
		BaseURL:         b.BaseURL,
	}
}

// ClientConfig converts to the analysis client configuration.
func (a Analysis) ClientConfig() analysis.Config {
	return analysis.Config{
		BaseURL:            a.BaseURL,
		Timeout:            time.Duration(a.Timeout),
		MaxRetries:         a.MaxRetries,
		InsecureSkipVerify: a.InsecureSkipVerify,
	}
}

// Duration is a time.Duration that decodes from a Go duration string
// ("30s", "2m") or from a number of seconds.
type Duration time.Duration

// String implements fmt.Stringer.
func (d Duration) String() string { return time.Duration(d).String() }

// MarshalJSON encodes d as a duration string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*d = 0
	case float64:
		*d = Duration(x * float64(time.Second))
	case string:
		parsed, err := parseDuration(x)
		if err != nil {
			return err
		}
		*d = parsed
	default:
		return fmt.Errorf("invalid duration %s", b)
	}
	return nil
}

func parseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return Duration(v), nil
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It purposefully
// performs only minimal type coercion and returns provided defaults when a key
// is absent or of an unexpected type.
//
// Options carries parser-specific settings whose shape varies by parser.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
// If the value is neither float64 nor int, def is returned.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. This is useful for single-character parser settings such as
// a CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty map
// when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of strings
// (or an array of interface values containing strings). Returns nil when the
// key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// Any returns the raw value for key (which may itself be a nested
// map[string]any, []any, or primitive). This is useful for retrieving nested
// configuration blocks that will be unmarshaled into a typed struct by the
// caller (e.g., an inline validation contract).
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null "options"
// object in JSON decodes to a non-nil, empty Options map. This simplifies call
// sites by removing the need to nil-check Options values.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
