// Package analysis is the HTTP client for the external analysis service.
//
// The service receives the raw CSV as a multipart upload and answers with
// JSON that is passed back to callers unchanged. Three endpoints are used:
//
//	POST /upload                   summary statistics ("cards")
//	POST /smart-question-examples  suggested questions
//	POST /question-answer          answer to a free-text question
//
// Retries with exponential backoff are available but off by default.
package analysis

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"csvdataset/internal/domain"
)

// EmptySummary is returned in place of a summary when no dataset exists.
var EmptySummary = json.RawMessage(`{"empty":true}`)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 32 << 20

// Config configures the client.
//
// Zero values are given defaults:
//   - Timeout:        60s
//   - MaxRetries:     0
//   - InitialBackoff: 200ms
//   - MaxBackoff:     5s
type Config struct {
	// BaseURL is the service root, e.g. http://analysis:8000. Required.
	BaseURL string

	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the initial request.
	// Only transport errors, 429 and 5xx are retried.
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	InsecureSkipVerify bool

	// Headers are added to every request.
	Headers http.Header

	// Transport is an optional custom RoundTripper.
	Transport http.RoundTripper
}

// File is the payload forwarded to the service.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Client talks to the analysis service.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	headers        http.Header

	// sleep is injectable to make tests fast and deterministic.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient constructs a Client from cfg, applying defaults for zero values.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("analysis: base_url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // explicitly configurable
			},
		}
	}
	return &Client{
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:     &http.Client{Timeout: cfg.Timeout, Transport: transport},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		headers:        cfg.Headers.Clone(),
		sleep:          sleepContext,
	}, nil
}

// Upload forwards f to /upload and returns the summary.
func (c *Client) Upload(ctx context.Context, f File) (json.RawMessage, error) {
	return c.post(ctx, "/upload", f, nil)
}

// SmartQuestionExamples forwards f to /smart-question-examples.
func (c *Client) SmartQuestionExamples(ctx context.Context, f File) (json.RawMessage, error) {
	return c.post(ctx, "/smart-question-examples", f, nil)
}

// QuestionAnswer forwards f and question to /question-answer.
func (c *Client) QuestionAnswer(ctx context.Context, f File, question string) (json.RawMessage, error) {
	return c.post(ctx, "/question-answer", f, map[string]string{"question": question})
}

func (c *Client) post(ctx context.Context, endpoint string, f File, fields map[string]string) (json.RawMessage, error) {
	body, contentType, err := encodeMultipart(f, fields)
	if err != nil {
		return nil, &domain.UpstreamError{Endpoint: endpoint, Err: err}
	}
	url := c.baseURL + endpoint

	attempts := c.maxRetries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, &domain.UpstreamError{Endpoint: endpoint, Err: err}
		}
		for k, vs := range c.headers {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = &domain.UpstreamError{Endpoint: endpoint, Err: err}
		} else {
			raw, rerr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			switch {
			case rerr != nil:
				lastErr = &domain.UpstreamError{Endpoint: endpoint, Status: resp.StatusCode, Err: rerr}
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return normalize(raw), nil
			default:
				uerr := &domain.UpstreamError{Endpoint: endpoint, Status: resp.StatusCode, Body: truncate(string(raw), 512)}
				if !isRetryableStatus(resp.StatusCode) {
					return nil, uerr
				}
				lastErr = uerr
			}
		}
		if attempt+1 >= attempts {
			break
		}
		if err := c.sleep(ctx, backoffDuration(c.initialBackoff, attempt, c.maxBackoff)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func encodeMultipart(f File, fields map[string]string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	name := f.Name
	if name == "" {
		name = "dataset.csv"
	}
	ct := f.ContentType
	if ct == "" {
		ct = "text/csv"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(f.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// normalize maps an empty body to JSON null so callers always get valid JSON.
func normalize(raw []byte) json.RawMessage {
	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(raw)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// isRetryableStatus treats 429 and 5xx as transient.
func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}

// backoffDuration returns initial * 2^attempt, clamped to max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		return max
	}
	d := initial << attempt
	if d > max || d <= 0 {
		return max
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
