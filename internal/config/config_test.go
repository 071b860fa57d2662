package config

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
	"unicode/utf8"
)

// -----------------------------------------------------------------------------
// Service decoding tests
// -----------------------------------------------------------------------------

func TestService_DecodeOverDefaults(t *testing.T) {
	t.Parallel()

	const js = `{
	  "server":   { "addr": ":9090", "cors_origins": ["https://app.example.com"], "shutdown_timeout": "3s" },
	  "storage":  { "kind": "postgres", "dsn": "postgresql://app@db/app" },
	  "blob":     { "kind": "s3", "bucket": "datasets", "presign_expiry": 900 },
	  "analysis": { "base_url": "http://analysis:8000", "timeout": "2m", "max_retries": 2 },
	  "parser":   { "kind": "csv", "options": { "comma": ";", "trim_space": true } },
	  "dataset":  { "max_page_size": 500 }
	}`

	s := Defaults()
	if err := Decode([]byte(js), &s, noEnv); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if s.Job != "csvdataset" {
		t.Fatalf("job = %q, want default csvdataset", s.Job)
	}
	if s.Server.Addr != ":9090" || time.Duration(s.Server.ShutdownTimeout) != 3*time.Second {
		t.Fatalf("server = %+v", s.Server)
	}
	if !reflect.DeepEqual(s.Server.CORSOrigins, []string{"https://app.example.com"}) {
		t.Fatalf("cors_origins = %v", s.Server.CORSOrigins)
	}
	if got := s.Storage.StorageConfig(); got.Kind != "postgres" || got.DSN != "postgresql://app@db/app" {
		t.Fatalf("storage = %+v", got)
	}
	bc := s.Blob.StoreConfig()
	if bc.Kind != "s3" || bc.Bucket != "datasets" || bc.PresignExpiry != 15*time.Minute {
		t.Fatalf("blob = %+v", bc)
	}
	ac := s.Analysis.ClientConfig()
	if ac.BaseURL != "http://analysis:8000" || ac.Timeout != 2*time.Minute || ac.MaxRetries != 2 {
		t.Fatalf("analysis = %+v", ac)
	}
	if s.Parser.Options.Rune("comma", ',') != ';' || !s.Parser.Options.Bool("trim_space", false) {
		t.Fatalf("parser options = %v", s.Parser.Options)
	}
	if s.Dataset.Table != "data" || s.Dataset.MaxPageSize != 500 {
		t.Fatalf("dataset = %+v", s.Dataset)
	}
}

func TestService_DecodeRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	s := Defaults()
	if err := Decode([]byte(`{"storage":{"knd":"sqlite"}}`), &s, noEnv); err == nil {
		t.Fatalf("Decode with typo: want error")
	}
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{`"30s"`, 30 * time.Second, false},
		{`"1h30m"`, 90 * time.Minute, false},
		{`1.5`, 1500 * time.Millisecond, false},
		{`""`, 0, false},
		{`null`, 0, false},
		{`"soon"`, 0, true},
		{`true`, 0, true},
	}
	for _, tt := range tests {
		var d Duration
		err := json.Unmarshal([]byte(tt.in), &d)
		if (err != nil) != tt.wantErr {
			t.Fatalf("Unmarshal(%s) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err == nil && time.Duration(d) != tt.want {
			t.Fatalf("Unmarshal(%s) = %v, want %v", tt.in, time.Duration(d), tt.want)
		}
	}
	b, err := json.Marshal(Duration(2 * time.Second))
	if err != nil || string(b) != `"2s"` {
		t.Fatalf("Marshal = %s, %v", b, err)
	}
}

// -----------------------------------------------------------------------------
// Options helper tests (hermetic).
// -----------------------------------------------------------------------------
//
// Minimal, deliberate coercion behavior and defaults.

func TestOptions_String_Bool_Int_Rune_DefaultsAndCoercion(t *testing.T) {
	t.Parallel()

	o := Options{
		"s": "hello",
		"b": true,
		"i": float64(42), // encoding/json decodes numbers as float64
		"r": ",",         // first rune will be used
	}

	// String
	if got := o.String("s", "def"); got != "hello" {
		t.Fatalf("String(s) = %q, want hello", got)
	}
	if got := o.String("missing", "def"); got != "def" {
		t.Fatalf("String(missing) = %q, want def", got)
	}

	// Bool
	if got := o.Bool("b", false); got != true {
		t.Fatalf("Bool(b) = %v, want true", got)
	}
	if got := o.Bool("missing", true); got != true {
		t.Fatalf("Bool(missing) = %v, want true", got)
	}

	// Int (float64 → int)
	if got := o.Int("i", 0); got != 42 {
		t.Fatalf("Int(i) = %d, want 42", got)
	}
	if got := o.Int("missing", 7); got != 7 {
		t.Fatalf("Int(missing) = %d, want 7", got)
	}

	// Rune (first rune from string)
	if got := o.Rune("r", ';'); got != ',' {
		t.Fatalf("Rune(r) = %q, want ','", got)
	}
	if got := o.Rune("missing", 'X'); got != 'X' {
		t.Fatalf("Rune(missing) = %q, want 'X'", got)
	}

	// Validate that Rune picks the FIRST rune (not byte) for multi-byte char.
	o["r2"] = "ž" // multi-byte UTF-8 rune
	r := o.Rune("r2", 'x')
	if r == 0 || !utf8.ValidRune(r) {
		t.Fatalf("Rune(r2) = %#U, want valid rune", r)
	}
	if string(r) != "ž" {
		t.Fatalf("Rune(r2) = %#U (%q), want ž", r, string(r))
	}
}

func TestOptions_StringMap_StringSlice_Any(t *testing.T) {
	t.Parallel()

	o := Options{
		"m": map[string]any{"A": "a", "B": "b", "X": 1}, // non-string value "X" must be ignored
		"s1": []any{
			"alpha", "beta", 3, // ints ignored
		},
		"s2": []string{"gamma", "delta"},
		"nested": map[string]any{
			"k": "v",
		},
	}

	// StringMap should include only string values and skip non-strings.
	sm := o.StringMap("m")
	if !reflect.DeepEqual(sm, map[string]string{"A": "a", "B": "b"}) {
		t.Fatalf("StringMap(m) = %#v, want {A:a B:b}", sm)
	}
	// Missing key → empty map (not nil).
	sm2 := o.StringMap("missing")
	if sm2 == nil || len(sm2) != 0 {
		t.Fatalf("StringMap(missing) = %#v, want empty map", sm2)
	}

	// StringSlice supports []any with strings and filters non-strings.
	ss1 := o.StringSlice("s1")
	if !reflect.DeepEqual(ss1, []string{"alpha", "beta"}) {
		t.Fatalf("StringSlice(s1) = %#v, want [alpha beta]", ss1)
	}
	// And the native []string case.
	ss2 := o.StringSlice("s2")
	if !reflect.DeepEqual(ss2, []string{"gamma", "delta"}) {
		t.Fatalf("StringSlice(s2) = %#v, want [gamma delta]", ss2)
	}
	// Missing key → nil (intentional to distinguish unspecified from empty).
	if got := o.StringSlice("missing"); got != nil {
		t.Fatalf("StringSlice(missing) = %#v, want nil", got)
	}

	// Any returns raw nested values for callers to unmarshal later.
	anyv := o.Any("nested")
	m, ok := anyv.(map[string]any)
	if !ok || m["k"] != "v" {
		t.Fatalf("Any(nested) = %#v, want map with k=v", anyv)
	}
	if o.Any("missing") != nil {
		t.Fatalf("Any(missing) should be nil when key absent")
	}
}

// -----------------------------------------------------------------------------
// Options.UnmarshalJSON behavior tests
// -----------------------------------------------------------------------------
//
// A missing or null options object decodes to a non-nil, empty map.

func TestOptions_UnmarshalJSON_NullYieldsEmptyMap(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		Opts Options `json:"options"`
	}

	// options is explicitly null → non-nil, empty Options.
	const jsNull = `{"options": null}`
	var w wrapper
	if err := json.Unmarshal([]byte(jsNull), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.Opts == nil || len(w.Opts) != 0 {
		t.Fatalf("Opts after null unmarshal = %#v, want non-nil empty map", w.Opts)
	}
}

func TestOptions_UnmarshalJSON_MissingYieldsEmptyMap(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		Opts Options `json:"options"`
	}

	// options is missing entirely → non-nil, empty Options.
	const jsMissing = `{}`
	var w wrapper
	if err := json.Unmarshal([]byte(jsMissing), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.Opts == nil || len(w.Opts) != 0 {
		t.Fatalf("Opts after missing unmarshal = %#v, want non-nil empty map", w.Opts)
	}
}

func TestOptions_UnmarshalJSON_ObjectDecodesAsMap(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		Opts Options `json:"options"`
	}

	const jsObj = `{"options": {"a":"x","b":true,"n": 3}}`
	var w wrapper
	if err := json.Unmarshal([]byte(jsObj), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if w.Opts.String("a", "") != "x" {
		t.Fatalf("Opts.String(a) = %q, want x", w.Opts.String("a", ""))
	}
	if w.Opts.Bool("b", false) != true {
		t.Fatalf("Opts.Bool(b) = %v, want true", w.Opts.Bool("b", false))
	}
	if w.Opts.Int("n", 0) != 3 {
		t.Fatalf("Opts.Int(n) = %d, want 3", w.Opts.Int("n", 0))
	}
}
