// Package dataset manages the single current dataset: the materialized SQL
// table, the stored copy of the uploaded file and its metadata row. Every
// mutation runs inside Repository.InTx, so concurrent uploads and deletes are
// serialized by the backend lock and readers never see a half-replaced
// dataset on engines with transactional DDL.
package dataset

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"csvdataset/internal/analysis"
	"csvdataset/internal/blobstore"
	"csvdataset/internal/ddl"
	"csvdataset/internal/domain"
	"csvdataset/internal/metrics"
	"csvdataset/internal/parser"
	"csvdataset/internal/schema"
	"csvdataset/internal/storage"
)

// Analyzer is the subset of the analysis service the manager forwards
// uploads to. *analysis.Client implements it.
type Analyzer interface {
	Upload(ctx context.Context, f analysis.File) (json.RawMessage, error)
	SmartQuestionExamples(ctx context.Context, f analysis.File) (json.RawMessage, error)
	QuestionAnswer(ctx context.Context, f analysis.File, question string) (json.RawMessage, error)
}

// Options tune a Manager. Zero values select the defaults.
type Options struct {
	Table         string // default "data"
	MetadataTable string // default "dataset_blobs"
	// MaxPageSize clamps Page sizes. Zero means unbounded.
	MaxPageSize int
	// MaxUploadBytes rejects larger uploads. Zero means unbounded.
	MaxUploadBytes int64
	// Job labels emitted metrics.
	Job    string
	Logger *log.Logger
}

// Manager owns the dataset lifecycle.
type Manager struct {
	repo     storage.Repository
	dialect  ddl.Dialect
	blobs    blobstore.Store
	analyzer Analyzer
	parser   parser.Parser
	opt      Options
	logger   *log.Logger
}

// NewManager validates the options and creates the metadata table when it is
// missing. analyzer may be nil, in which case uploads are not forwarded and
// the analysis operations fail with an UpstreamError.
func NewManager(ctx context.Context, repo storage.Repository, blobs blobstore.Store, analyzer Analyzer, p parser.Parser, opt Options) (*Manager, error) {
	if repo == nil || blobs == nil || p == nil {
		return nil, errors.New("dataset: repository, blob store and parser are required")
	}
	if opt.Table == "" {
		opt.Table = "data"
	}
	if opt.MetadataTable == "" {
		opt.MetadataTable = "dataset_blobs"
	}
	if opt.Job == "" {
		opt.Job = "csvdataset"
	}
	for _, name := range []string{opt.Table, opt.MetadataTable} {
		if ddl.SanitizeIdent(name) != name {
			return nil, domain.ErrValidation("invalid table name %q", name)
		}
	}
	if strings.EqualFold(opt.Table, opt.MetadataTable) {
		return nil, domain.ErrValidation("dataset and metadata tables must differ")
	}
	if opt.MaxPageSize < 0 {
		opt.MaxPageSize = 0
	}
	logger := opt.Logger
	if logger == nil {
		logger = log.Default()
	}
	m := &Manager{
		repo:     repo,
		dialect:  repo.Dialect(),
		blobs:    blobs,
		analyzer: analyzer,
		parser:   p,
		opt:      opt,
		logger:   logger,
	}
	if err := m.ensureMetadata(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// Table returns the name of the materialized dataset table.
func (m *Manager) Table() string { return m.opt.Table }

// UploadRequest carries the raw uploaded file.
type UploadRequest struct {
	Data        []byte
	Filename    string
	ContentType string
}

// ColumnInfo describes one materialized dataset column.
type ColumnInfo struct {
	Name   string      `json:"name"`
	Source string      `json:"source"`
	Type   schema.Type `json:"type"`
}

// UploadResult reports a committed upload.
type UploadResult struct {
	Blob     BlobRecord      `json:"blob"`
	Table    string          `json:"table"`
	Columns  []ColumnInfo    `json:"columns"`
	Rows     int             `json:"rows"`
	Skipped  int             `json:"skipped"`
	Analysis json.RawMessage `json:"analysis,omitempty"`
}

// Upload parses, types and materializes req as the new current dataset,
// replacing any previous one. The previous dataset stays intact unless the
// whole replacement commits.
func (m *Manager) Upload(ctx context.Context, req UploadRequest) (res *UploadResult, err error) {
	start := time.Now()
	defer func() { metrics.RecordStep(m.opt.Job, metrics.StepUpload, err, time.Since(start)) }()

	if len(req.Data) == 0 {
		return nil, domain.ErrValidation("empty upload")
	}
	if m.opt.MaxUploadBytes > 0 && int64(len(req.Data)) > m.opt.MaxUploadBytes {
		return nil, domain.ErrValidation("upload of %d bytes exceeds the %d byte limit", len(req.Data), m.opt.MaxUploadBytes)
	}

	inferStart := time.Now()
	plan, err := Prepare(m.parser, m.dialect, m.opt.Table, req.Data)
	metrics.RecordStep(m.opt.Job, metrics.StepInfer, err, time.Since(inferStart))
	if err != nil {
		return nil, err
	}

	sum := xxh3.Hash128(req.Data).Bytes()
	rec := BlobRecord{
		Filename:    req.Filename,
		ContentType: req.ContentType,
		SizeBytes:   int64(len(req.Data)),
		Checksum:    hex.EncodeToString(sum[:]),
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	file := analysis.File{Name: req.Filename, ContentType: req.ContentType, Data: req.Data}

	var (
		previous *BlobRecord
		newRef   *blobstore.Ref
		evicted  bool
		summary  json.RawMessage
	)
	txErr := m.repo.InTx(ctx, func(ctx context.Context, q storage.Querier) error {
		prev, err := m.current(ctx, q)
		if err != nil {
			return err
		}
		previous = prev
		if err := m.evict(ctx, q); err != nil {
			return err
		}
		evicted = true

		ref, err := m.blobs.Put(ctx, blobstore.Object{Name: req.Filename, ContentType: req.ContentType, Data: req.Data})
		if err != nil {
			return domain.ErrStorage("put", err)
		}
		newRef = &ref
		rec.ID, rec.URL = ref.ID, ref.URL
		if err := m.insertMetadata(ctx, q, rec); err != nil {
			return err
		}

		ddlStart := time.Now()
		_, err = q.Exec(ctx, plan.CreateSQL)
		metrics.RecordStep(m.opt.Job, metrics.StepDDL, err, time.Since(ddlStart))
		if err != nil {
			return domain.ErrSQL("ddl", err)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			insStart := time.Now()
			err := m.insertRows(gctx, q, plan.Inserts)
			metrics.RecordStep(m.opt.Job, metrics.StepInsert, err, time.Since(insStart))
			return err
		})
		if m.analyzer != nil {
			g.Go(func() error {
				anStart := time.Now()
				out, err := m.analyzer.Upload(gctx, file)
				metrics.RecordStep(m.opt.Job, metrics.StepAnalysis, err, time.Since(anStart))
				summary = out
				return err
			})
		}
		return g.Wait()
	})

	if txErr != nil {
		m.rollbackUpload(ctx, newRef, previous, evicted)
		return nil, txErr
	}

	if previous != nil && previous.ID != "" && previous.ID != rec.ID {
		if err := m.blobs.Delete(ctx, previous.ID); err != nil {
			m.logger.Printf("dataset: delete superseded blob id=%s: %v", previous.ID, err)
		}
	}
	metrics.RecordRow(m.opt.Job, "loaded", int64(len(plan.Rows)))
	if plan.Skipped > 0 {
		metrics.RecordRow(m.opt.Job, "skipped", int64(plan.Skipped))
	}
	metrics.RecordStatements(m.opt.Job, int64(len(plan.Inserts)))
	m.logger.Printf("dataset: upload table=%s rows=%d skipped=%d columns=%d blob=%s",
		m.opt.Table, len(plan.Rows), plan.Skipped, len(plan.Columns), rec.ID)

	return &UploadResult{
		Blob:     rec,
		Table:    m.opt.Table,
		Columns:  plan.ColumnInfo(),
		Rows:     len(plan.Rows),
		Skipped:  plan.Skipped,
		Analysis: summary,
	}, nil
}

func (m *Manager) insertRows(ctx context.Context, q storage.Querier, stmts []ddl.Statement) error {
	for _, st := range stmts {
		if _, err := q.Exec(ctx, st.SQL, st.Args...); err != nil {
			return domain.ErrSQL("insert", err)
		}
	}
	return nil
}

// rollbackUpload cleans up after a failed upload transaction. The new blob is
// always removed. Engines without transactional DDL may have lost the old
// table to the evict step already, so once evict ran the remains of both
// datasets are dropped to leave a consistent Absent state.
func (m *Manager) rollbackUpload(ctx context.Context, newRef *blobstore.Ref, previous *BlobRecord, evicted bool) {
	ctx = context.WithoutCancel(ctx)
	if newRef != nil {
		if err := m.blobs.Delete(ctx, newRef.ID); err != nil {
			m.logger.Printf("dataset: delete orphaned blob id=%s: %v", newRef.ID, err)
		}
	}
	if m.dialect.TransactionalDDL() || !evicted {
		return
	}
	err := m.repo.InTx(ctx, func(ctx context.Context, q storage.Querier) error {
		return m.evict(ctx, q)
	})
	if err != nil {
		m.logger.Printf("dataset: compensate failed upload table=%s: %v", m.opt.Table, err)
		return
	}
	if previous != nil && previous.ID != "" {
		if err := m.blobs.Delete(ctx, previous.ID); err != nil {
			m.logger.Printf("dataset: delete superseded blob id=%s: %v", previous.ID, err)
		}
	}
	m.logger.Printf("dataset: compensated failed upload table=%s", m.opt.Table)
}

// evict drops the dataset table and clears the metadata row. Each step is
// existence-checked so evicting an Absent dataset is a no-op.
func (m *Manager) evict(ctx context.Context, q storage.Querier) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStep(m.opt.Job, metrics.StepEvict, err, time.Since(start)) }()

	exists, err := q.TableExists(ctx, m.opt.Table)
	if err != nil {
		return domain.ErrSQL("table exists", err)
	}
	if exists {
		if _, err := q.Exec(ctx, m.dialect.DropTableSQL(m.opt.Table)); err != nil {
			return domain.ErrSQL("drop table", err)
		}
	}
	return m.deleteMetadata(ctx, q)
}

// Delete removes the current dataset: table, metadata row and stored blob.
// Deleting an Absent dataset succeeds.
func (m *Manager) Delete(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStep(m.opt.Job, metrics.StepDelete, err, time.Since(start)) }()

	var removed string
	err = m.repo.InTx(ctx, func(ctx context.Context, q storage.Querier) error {
		prev, err := m.current(ctx, q)
		if err != nil {
			return err
		}
		if err := m.evict(ctx, q); err != nil {
			return err
		}
		if prev != nil && prev.ID != "" {
			if err := m.blobs.Delete(ctx, prev.ID); err != nil {
				return domain.ErrStorage("delete", err)
			}
			removed = prev.ID
		}
		return nil
	})
	if err != nil {
		return err
	}
	if removed != "" {
		m.logger.Printf("dataset: delete table=%s blob=%s", m.opt.Table, removed)
	}
	return nil
}

// Exists reports whether the dataset table is present in the catalog.
func (m *Manager) Exists(ctx context.Context) (bool, error) {
	ok, err := m.repo.TableExists(ctx, m.opt.Table)
	if err != nil {
		return false, domain.ErrSQL("table exists", err)
	}
	return ok, nil
}

// Current returns the metadata of the current upload, or a NotFoundError when
// no dataset is present.
func (m *Manager) Current(ctx context.Context) (*BlobRecord, error) {
	rec, err := m.current(ctx, m.repo)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound("no dataset uploaded")
	}
	return rec, nil
}
