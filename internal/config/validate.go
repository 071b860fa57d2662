package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"csvdataset/internal/ddl"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "blob.bucket"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Errors joins the error-severity issues into one error, or returns nil.
func Errors(issues []Issue) error {
	var errs []error
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			errs = append(errs, iss)
		}
	}
	return errors.Join(errs...)
}

// Validate performs static validation of s. It does not mutate s or open
// any connection.
func Validate(s Service) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; metrics will be emitted without a job label",
		})
	}
	issues = append(issues, validateServer(s.Server)...)
	issues = append(issues, validateStorage(s.Storage)...)
	issues = append(issues, validateBlob(s.Blob)...)
	issues = append(issues, validateAnalysis(s.Analysis)...)
	issues = append(issues, validateParser(s.Parser)...)
	issues = append(issues, validateDataset(s.Dataset)...)
	issues = append(issues, validateMetrics(s.Metrics)...)
	return issues
}

func validateServer(s Server) []Issue {
	var issues []Issue
	if strings.TrimSpace(s.Addr) == "" {
		issues = append(issues, Issue{SeverityError, "server.addr", "server.addr must not be empty"})
	}
	if s.ShutdownTimeout < 0 {
		issues = append(issues, Issue{SeverityError, "server.shutdown_timeout", "shutdown_timeout must not be negative"})
	}
	for i, o := range s.CORSOrigins {
		if o != "*" && !isHTTPURL(o) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("server.cors_origins[%d]", i),
				Message:  fmt.Sprintf("origin %q must be * or an http(s) URL", o),
			})
		}
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		return append(issues, Issue{SeverityError, "storage.kind", "storage.kind must not be empty"})
	}
	known := map[string]struct{}{
		"postgres": {},
		"mysql":    {},
		"mssql":    {},
		"sqlite":   {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; want postgres, mysql, mssql or sqlite", s.Kind),
		})
	}
	if strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{SeverityError, "storage.dsn", "storage.dsn must not be empty"})
	}
	return issues
}

func validateBlob(b Blob) []Issue {
	var issues []Issue

	switch b.Kind {
	case "memory":
		issues = append(issues, Issue{SeverityWarning, "blob.kind", "memory blob store loses uploads on restart"})
	case "local":
		if strings.TrimSpace(b.Dir) == "" {
			issues = append(issues, Issue{SeverityError, "blob.dir", "local blob store requires a directory"})
		}
	case "s3":
		if strings.TrimSpace(b.Bucket) == "" {
			issues = append(issues, Issue{SeverityError, "blob.bucket", "s3 blob store requires a bucket"})
		}
		if b.Endpoint != "" && !isHTTPURL(b.Endpoint) {
			issues = append(issues, Issue{SeverityError, "blob.endpoint", fmt.Sprintf("endpoint %q is not an http(s) URL", b.Endpoint)})
		}
		if (b.AccessKeyID == "") != (b.SecretAccessKey == "") {
			issues = append(issues, Issue{SeverityError, "blob.access_key_id", "access_key_id and secret_access_key must be set together"})
		}
		if b.PresignExpiry < 0 {
			issues = append(issues, Issue{SeverityError, "blob.presign_expiry", "presign_expiry must not be negative"})
		}
	case "":
		issues = append(issues, Issue{SeverityError, "blob.kind", "blob.kind must not be empty"})
	default:
		issues = append(issues, Issue{SeverityError, "blob.kind", fmt.Sprintf("unknown blob kind %q; want memory, local or s3", b.Kind)})
	}
	if b.BaseURL != "" && !isHTTPURL(b.BaseURL) {
		issues = append(issues, Issue{SeverityError, "blob.base_url", fmt.Sprintf("base_url %q is not an http(s) URL", b.BaseURL)})
	}
	return issues
}

func validateAnalysis(a Analysis) []Issue {
	var issues []Issue

	if strings.TrimSpace(a.BaseURL) == "" {
		return append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "analysis.base_url",
			Message:  "analysis.base_url is empty; uploads are not forwarded and summary endpoints fail",
		})
	}
	if !isHTTPURL(a.BaseURL) {
		issues = append(issues, Issue{SeverityError, "analysis.base_url", fmt.Sprintf("base_url %q is not an http(s) URL", a.BaseURL)})
	}
	if a.MaxRetries < 0 {
		issues = append(issues, Issue{SeverityError, "analysis.max_retries", "max_retries must not be negative"})
	}
	if a.Timeout < 0 {
		issues = append(issues, Issue{SeverityError, "analysis.timeout", "timeout must not be negative"})
	}
	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue

	if p.Kind != "csv" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unsupported parser kind %q; only csv is available", p.Kind),
		})
	}
	if c := p.Options.String("comma", ","); utf8.RuneCountInString(c) != 1 || c == "\n" || c == "\r" || c == `"` {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.options.comma",
			Message:  fmt.Sprintf("comma %q must be a single character other than quote or newline", c),
		})
	}
	return issues
}

func validateDataset(d Dataset) []Issue {
	var issues []Issue

	switch t := strings.TrimSpace(d.Table); {
	case t == "":
		issues = append(issues, Issue{SeverityError, "dataset.table", "dataset.table must not be empty"})
	case ddl.SanitizeIdent(t) != t:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "dataset.table",
			Message:  fmt.Sprintf("table %q may only contain letters, digits and underscores", t),
		})
	}
	if d.MaxPageSize < 0 {
		issues = append(issues, Issue{SeverityError, "dataset.max_page_size", "max_page_size must not be negative"})
	}
	if d.MaxUploadBytes < 0 {
		issues = append(issues, Issue{SeverityError, "dataset.max_upload_bytes", "max_upload_bytes must not be negative"})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", "none":
	case "prometheus":
		if m.PushgatewayURL != "" && !isHTTPURL(m.PushgatewayURL) {
			issues = append(issues, Issue{SeverityError, "metrics.pushgateway_url", fmt.Sprintf("pushgateway_url %q is not an http(s) URL", m.PushgatewayURL)})
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{SeverityError, "metrics.datadog_addr", "datadog backend requires datadog_addr"})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; want none, prometheus or datadog", m.Backend),
		})
	}
	return issues
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
