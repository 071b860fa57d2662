package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"csvdataset/internal/domain"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// classify maps a domain error to its HTTP status and kind.
func classify(err error) (int, string) {
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		storageErr *domain.StorageError
		sqlErr     *domain.SQLError
		upstream   *domain.UpstreamError
		tooLarge   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, "validation"
	case errors.As(err, &tooLarge):
		return http.StatusBadRequest, "validation"
	case errors.As(err, &notFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &storageErr):
		return http.StatusBadGateway, "storage"
	case errors.As(err, &sqlErr):
		return http.StatusInternalServerError, "sql"
	case errors.As(err, &upstream):
		return http.StatusBadGateway, "upstream"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(w http.ResponseWriter, logger *log.Logger, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError || status == http.StatusBadGateway {
		logger.Printf("api: %s error: %v", kind, err)
	}
	writeJSON(w, status, errorBody{Status: status, Error: kind, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRaw passes an upstream JSON document through unchanged.
func writeRaw(w http.ResponseWriter, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}
