package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"csvdataset/internal/analysis"
	"csvdataset/internal/blobstore"
	"csvdataset/internal/domain"
)

var errNoAnalyzer = errors.New("analysis service not configured")

// CardsSummary forwards the current upload to the analysis service and
// returns its summary unchanged. An Absent dataset yields
// analysis.EmptySummary without contacting the service.
func (m *Manager) CardsSummary(ctx context.Context) (json.RawMessage, error) {
	f, err := m.currentFile(ctx, "/upload")
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			return analysis.EmptySummary, nil
		}
		return nil, err
	}
	return m.analyzer.Upload(ctx, f)
}

// SmartQuestionExamples asks the analysis service for example questions
// about the current upload.
func (m *Manager) SmartQuestionExamples(ctx context.Context) (json.RawMessage, error) {
	f, err := m.currentFile(ctx, "/smart-question-examples")
	if err != nil {
		return nil, err
	}
	return m.analyzer.SmartQuestionExamples(ctx, f)
}

// QuestionAnswer asks the analysis service question about the current
// upload.
func (m *Manager) QuestionAnswer(ctx context.Context, question string) (json.RawMessage, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrValidation("question must not be empty")
	}
	f, err := m.currentFile(ctx, "/question-answer")
	if err != nil {
		return nil, err
	}
	return m.analyzer.QuestionAnswer(ctx, f, question)
}

// currentFile loads the stored copy of the current upload.
func (m *Manager) currentFile(ctx context.Context, endpoint string) (analysis.File, error) {
	rec, err := m.Current(ctx)
	if err != nil {
		return analysis.File{}, err
	}
	if m.analyzer == nil {
		return analysis.File{}, &domain.UpstreamError{Endpoint: endpoint, Err: errNoAnalyzer}
	}
	data, err := m.blobs.Get(ctx, rec.ID)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return analysis.File{}, domain.ErrNotFound("stored upload %s is missing", rec.ID)
		}
		return analysis.File{}, domain.ErrStorage("get", err)
	}
	return analysis.File{Name: rec.Filename, ContentType: rec.ContentType, Data: data}, nil
}
