// Package api exposes the dataset operations over HTTP.
//
// Routes:
//
//	POST   /api/dataset           upload (multipart field "file")
//	GET    /api/dataset           current upload metadata
//	DELETE /api/dataset           delete the dataset
//	GET    /api/dataset/exists    {"exists": bool}
//	GET    /api/dataset/rows      ?page=&pageSize=
//	GET    /api/dataset/summary   analysis summary
//	GET    /api/dataset/questions example questions
//	POST   /api/dataset/answer    {"question": "..."}
//	GET    /healthz
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"csvdataset/internal/dataset"
	"csvdataset/internal/domain"
)

// Service is the dataset surface the handlers call. *dataset.Manager
// implements it.
type Service interface {
	Upload(ctx context.Context, req dataset.UploadRequest) (*dataset.UploadResult, error)
	Delete(ctx context.Context) error
	Exists(ctx context.Context) (bool, error)
	Current(ctx context.Context) (*dataset.BlobRecord, error)
	Page(ctx context.Context, pageNumber, pageSize int) (*dataset.Page, error)
	CardsSummary(ctx context.Context) (json.RawMessage, error)
	SmartQuestionExamples(ctx context.Context) (json.RawMessage, error)
	QuestionAnswer(ctx context.Context, question string) (json.RawMessage, error)
}

// Config controls the router.
type Config struct {
	// CORSOrigins enables CORS for the listed origins. Empty disables it.
	CORSOrigins []string
	// MaxUploadBytes bounds the upload request body. Zero means unbounded.
	MaxUploadBytes int64
	// Metrics, when set, is mounted at GET /metrics.
	Metrics http.Handler
	Logger  *log.Logger
}

// multipartSlack is added to MaxUploadBytes for the multipart framing.
const multipartSlack = 1 << 20

// maxMemory is the in-memory threshold passed to ParseMultipartForm.
const maxMemory = 32 << 20

type server struct {
	svc    Service
	cfg    Config
	logger *log.Logger
}

// NewRouter builds the HTTP handler for svc.
func NewRouter(svc Service, cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &server{svc: svc, cfg: cfg, logger: logger}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RequestLogger(&chimw.DefaultLogFormatter{Logger: logger, NoColor: true}))
	r.Use(chimw.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	r.Route("/api/dataset", func(r chi.Router) {
		r.Post("/", s.handleUpload)
		r.Get("/", s.handleCurrent)
		r.Delete("/", s.handleDelete)
		r.Get("/exists", s.handleExists)
		r.Get("/rows", s.handleRows)
		r.Get("/summary", s.handleSummary)
		r.Get("/questions", s.handleQuestions)
		r.Post("/answer", s.handleAnswer)
	})
	return r
}

func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+multipartSlack)
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, s.logger, domain.ErrValidation("upload exceeds %d bytes", s.cfg.MaxUploadBytes))
			return
		}
		writeError(w, s.logger, domain.ErrValidation("bad multipart form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, s.logger, domain.ErrValidation("missing file field"))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, s.logger, domain.ErrValidation("read upload: %v", err))
		return
	}

	res, err := s.svc.Upload(r.Context(), dataset.UploadRequest{
		Data:        data,
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Current(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context()); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleExists(w http.ResponseWriter, r *http.Request) {
	ok, err := s.svc.Exists(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": ok})
}

func (s *server) handleRows(w http.ResponseWriter, r *http.Request) {
	page, size := ParsePageParams(r.URL.Query())
	p, err := s.svc.Page(r.Context(), page, size)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handleSummary(w http.ResponseWriter, r *http.Request) {
	raw, err := s.svc.CardsSummary(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeRaw(w, raw)
}

func (s *server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	raw, err := s.svc.SmartQuestionExamples(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeRaw(w, raw)
}

type answerRequest struct {
	Question string `json:"question"`
}

func (s *server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, 64<<10))
	if err := dec.Decode(&req); err != nil {
		writeError(w, s.logger, domain.ErrValidation("bad request body: %v", err))
		return
	}
	raw, err := s.svc.QuestionAnswer(r.Context(), strings.TrimSpace(req.Question))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeRaw(w, raw)
}
