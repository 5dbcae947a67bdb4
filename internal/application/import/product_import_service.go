// Package importapp runs spreadsheet imports and exports of the product
// catalog.
package importapp

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Alex240101/oxapampa/internal/application/notify"
	"github.com/Alex240101/oxapampa/internal/domain/bulk"
	"github.com/Alex240101/oxapampa/internal/domain/catalog"
	"github.com/Alex240101/oxapampa/internal/domain/session"
	"github.com/Alex240101/oxapampa/internal/domain/shared"
	"github.com/Alex240101/oxapampa/internal/infrastructure/logger"
	"github.com/Alex240101/oxapampa/internal/infrastructure/telemetry"
)

// DefaultBatchSize is how many plan entries are written concurrently.
const DefaultBatchSize = 10

// ImportInput is a parsed spreadsheet ready for import. Content is the raw
// upload, archived when an archive is configured.
type ImportInput struct {
	FileName    string
	FileSize    int64
	ContentType string
	Content     []byte
	Rows        []bulk.ImportRow
}

// FileArchive keeps a copy of every uploaded import file.
type FileArchive interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// ArchiveLink is a temporary download link for an archived upload.
type ArchiveLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ImportResult summarises an import run.
type ImportResult struct {
	RunID   uuid.UUID         `json:"run_id"`
	Status  bulk.ImportStatus `json:"status"`
	Total   int               `json:"total"`
	Created int               `json:"created"`
	Updated int               `json:"updated"`
	Failed  int               `json:"failed"`
	Errors  []bulk.RowError   `json:"errors,omitempty"`
}

// ProductImportService handles product bulk import operations
type ProductImportService struct {
	products   catalog.ProductRepository
	categories catalog.CategoryRepository
	runs       bulk.ImportRunRepository
	archive    FileArchive
	sink       notify.Sink
	metrics    *telemetry.BusinessMetrics
	logger     *zap.Logger
	batchSize  int
	now        func() time.Time
}

// Option configures a ProductImportService.
type Option func(*ProductImportService)

// WithBatchSize overrides DefaultBatchSize. Values below 1 are ignored.
func WithBatchSize(n int) Option {
	return func(s *ProductImportService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithArchive stores every uploaded file in archive before it is processed.
func WithArchive(archive FileArchive) Option {
	return func(s *ProductImportService) { s.archive = archive }
}

// WithNotifier reports progress to sink.
func WithNotifier(sink notify.Sink) Option {
	return func(s *ProductImportService) { s.sink = sink }
}

// WithMetrics records run outcomes on m.
func WithMetrics(m *telemetry.BusinessMetrics) Option {
	return func(s *ProductImportService) { s.metrics = m }
}

// WithLogger sets the fallback logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *ProductImportService) { s.logger = l }
}

// WithClock fixes the clock used for synthesized codes.
func WithClock(now func() time.Time) Option {
	return func(s *ProductImportService) { s.now = now }
}

// NewProductImportService creates a new ProductImportService
func NewProductImportService(
	products catalog.ProductRepository,
	categories catalog.CategoryRepository,
	runs bulk.ImportRunRepository,
	opts ...Option,
) *ProductImportService {
	s := &ProductImportService{
		products:   products,
		categories: categories,
		runs:       runs,
		sink:       notify.Nop,
		logger:     zap.NewNop(),
		batchSize:  DefaultBatchSize,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Import reconciles the rows against the catalog and writes the plan.
//
// Any invalid row aborts the whole import before the first write with a
// *bulk.AbortedError. Otherwise entries are written in batches; rows inside a
// batch run concurrently and each batch completes before the next starts.
// Cancellation is honoured between batches. A row that fails to write is
// counted in Failed and does not stop the run.
func (s *ProductImportService) Import(ctx context.Context, sess session.Session, in ImportInput) (result *ImportResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ProductImportService", "Import",
		telemetry.WithAttribute(telemetry.SpanAttrFileName, in.FileName),
		telemetry.WithAttribute(telemetry.SpanAttrRows, len(in.Rows)),
	)
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		}
	}()
	log := logger.For(ctx, s.logger)

	if len(in.Rows) == 0 {
		return nil, shared.NewValidationError("the file has no product rows")
	}

	run, err := bulk.NewImportRun(in.FileName, in.FileSize, sess.Actor())
	if err != nil {
		return nil, err
	}
	s.archiveUpload(ctx, run, in)

	refs, err := s.products.CodeIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load product codes: %w", err)
	}
	existing := make([]bulk.ExistingProduct, len(refs))
	for i, r := range refs {
		existing[i] = bulk.ExistingProduct{Code: r.Code, ID: r.ID}
	}

	plan := bulk.Reconcile(in.Rows, existing, bulk.Options{Now: s.now})
	if plan.HasErrors() {
		if err := run.Reject(len(in.Rows), plan.Errors); err != nil {
			return nil, err
		}
		s.saveRun(ctx, run)
		notify.Send(ctx, s.sink, s.logger, notify.Notification{
			Kind:    notify.KindImportAborted,
			Level:   notify.LevelError,
			Title:   "Importación cancelada",
			Message: fmt.Sprintf("%d fila(s) con errores. No se importó ningún producto.", len(plan.Errors)),
			Data:    map[string]any{"run_id": run.ID.String(), "errors": len(plan.Errors)},
		})
		log.Warn("Import rejected", zap.String("file", in.FileName), zap.Int("row_errors", len(plan.Errors)))
		return resultOf(run), &bulk.AbortedError{RunID: run.ID, Errors: plan.Errors}
	}

	category, err := s.ensureImportCategory(ctx)
	if err != nil {
		return nil, err
	}

	if err := run.Start(len(plan.Entries)); err != nil {
		return nil, err
	}
	s.saveRun(ctx, run)
	creates, updates := plan.Counts()
	notify.Send(ctx, s.sink, s.logger, notify.Notification{
		Kind:    notify.KindImportStarted,
		Title:   "Importando productos",
		Message: fmt.Sprintf("%d nuevos, %d a actualizar", creates, updates),
		Data:    map[string]any{"run_id": run.ID.String(), "total": len(plan.Entries)},
	})

	created, updated, failed, cancelled := s.write(ctx, run.ID, plan.Entries, category.ID)

	if cancelled {
		if err := run.Cancel(created, updated, failed); err != nil {
			return nil, err
		}
		s.saveRun(ctx, run)
		log.Warn("Import cancelled", zap.Int("created", created), zap.Int("updated", updated), zap.Int("failed", failed))
		return resultOf(run), fmt.Errorf("import %s: %w", run.ID, shared.ErrCancelled)
	}

	if err := run.Complete(created, updated, failed); err != nil {
		return nil, err
	}
	s.saveRun(ctx, run)
	s.metrics.ImportFinished(ctx, created, updated, failed, run.Duration())

	level := notify.LevelSuccess
	if failed > 0 {
		level = notify.LevelWarning
	}
	notify.Send(ctx, s.sink, s.logger, notify.Notification{
		Kind:    notify.KindImportFinished,
		Level:   level,
		Title:   "Importación completada",
		Message: fmt.Sprintf("%d creados, %d actualizados, %d con error", created, updated, failed),
		Data:    map[string]any{"run_id": run.ID.String(), "created": created, "updated": updated, "failed": failed},
	})
	log.Info("Import finished",
		zap.String("file", in.FileName),
		zap.Int("created", created),
		zap.Int("updated", updated),
		zap.Int("failed", failed),
		zap.Duration("elapsed", run.Duration()),
	)
	return resultOf(run), nil
}

// write applies the plan batch by batch and reports whether ctx ended the run
// early.
func (s *ProductImportService) write(ctx context.Context, runID uuid.UUID, entries []bulk.PlanEntry, categoryID uuid.UUID) (created, updated, failed int, cancelled bool) {
	var nCreated, nUpdated, nFailed atomic.Int64
	log := logger.For(ctx, s.logger)

	for start := 0; start < len(entries); start += s.batchSize {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		end := min(start+s.batchSize, len(entries))

		telemetry.WithProfilingLabels(ctx, map[string]string{
			telemetry.ProfilingLabelOperation: "import_batch",
		}, func(batchCtx context.Context) {
			var g errgroup.Group
			for _, entry := range entries[start:end] {
				g.Go(func() error {
					if err := s.apply(batchCtx, entry, categoryID); err != nil {
						nFailed.Add(1)
						log.Warn("Import row failed",
							zap.Int("row", entry.Row),
							zap.String("code", entry.Fields.Code),
							zap.Error(err),
						)
						return nil
					}
					if entry.Action == bulk.ActionUpdate {
						nUpdated.Add(1)
					} else {
						nCreated.Add(1)
					}
					return nil
				})
			}
			_ = g.Wait()
		})

		notify.Send(ctx, s.sink, s.logger, notify.Notification{
			Kind:    notify.KindImportProgress,
			Title:   "Importando productos",
			Message: fmt.Sprintf("%d de %d", end, len(entries)),
			Data:    map[string]any{"run_id": runID.String(), "processed": end, "total": len(entries)},
		})
	}
	return int(nCreated.Load()), int(nUpdated.Load()), int(nFailed.Load()), cancelled
}

func (s *ProductImportService) apply(ctx context.Context, entry bulk.PlanEntry, categoryID uuid.UUID) error {
	f := entry.Fields
	if entry.Action == bulk.ActionUpdate {
		product, err := s.products.FindByID(ctx, entry.ProductID)
		if err != nil {
			return err
		}
		if err := product.ApplyImport(f.Name, f.Store, f.Stock, f.MinStock); err != nil {
			return err
		}
		return s.products.Save(ctx, product)
	}

	product, err := catalog.NewProduct(f.Code, f.Name, catalog.DefaultUnit)
	if err != nil {
		return err
	}
	if err := product.ApplyImport(f.Name, f.Store, f.Stock, f.MinStock); err != nil {
		return err
	}
	product.SetCategory(&categoryID)
	return s.products.Create(ctx, product)
}

// ensureImportCategory returns the category that imported products join,
// creating it on first use.
func (s *ProductImportService) ensureImportCategory(ctx context.Context) (*catalog.Category, error) {
	category, err := s.categories.FindByName(ctx, catalog.ImportCategoryName)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up import category: %w", err)
	}

	category, err = catalog.NewCategory(catalog.ImportCategoryName, "Productos creados por importación")
	if err != nil {
		return nil, err
	}
	if err := s.categories.Save(ctx, category); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			// created concurrently by another import
			return s.categories.FindByName(ctx, catalog.ImportCategoryName)
		}
		return nil, fmt.Errorf("failed to create import category: %w", err)
	}
	return category, nil
}

// archiveUpload stores the raw file. A failed upload is logged and the import
// goes on without an archive key.
func (s *ProductImportService) archiveUpload(ctx context.Context, run *bulk.ImportRun, in ImportInput) {
	if s.archive == nil || len(in.Content) == 0 {
		return
	}
	key := ArchiveKey(run, in.FileName)
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.archive.Upload(ctx, key, in.Content, contentType); err != nil {
		logger.For(ctx, s.logger).Warn("Failed to archive import file",
			zap.String("run_id", run.ID.String()),
			zap.String("key", key),
			zap.Error(err),
		)
		return
	}
	run.Archived(key)
}

// ArchiveKey is imports/<yyyy>/<mm>/<dd>/<run id><ext>. The original name is
// kept out of the key.
func ArchiveKey(run *bulk.ImportRun, fileName string) string {
	return fmt.Sprintf("imports/%s/%s%s",
		run.CreatedAt.UTC().Format("2006/01/02"), run.ID, strings.ToLower(filepath.Ext(fileName)))
}

func (s *ProductImportService) saveRun(ctx context.Context, run *bulk.ImportRun) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Save(context.WithoutCancel(ctx), run); err != nil {
		logger.For(ctx, s.logger).Error("Failed to save import run",
			zap.String("run_id", run.ID.String()),
			zap.String("status", string(run.Status)),
			zap.Error(err),
		)
	}
}

// Export returns every product as a spreadsheet row, in code order.
func (s *ProductImportService) Export(ctx context.Context) ([]bulk.ExportRow, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ProductImportService", "Export")
	defer span.End()

	products, err := s.products.ListForExport(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	rows := make([]bulk.ExportRow, len(products))
	for i, p := range products {
		rows[i] = bulk.ExportRow{
			Store:       p.Store,
			Code:        p.Code,
			Description: p.Name,
			Stock:       p.Stock,
			MinStock:    p.MinStock,
		}
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrRows, len(rows))
	return rows, nil
}

// RecentRuns lists the latest import runs, newest first.
func (s *ProductImportService) RecentRuns(ctx context.Context, limit int) ([]*bulk.ImportRun, error) {
	return s.runs.FindRecent(ctx, limit)
}

// Run returns a single import run.
func (s *ProductImportService) Run(ctx context.Context, id uuid.UUID) (*bulk.ImportRun, error) {
	return s.runs.FindByID(ctx, id)
}

// ArchivedFile returns a download link for the file uploaded by a run. Runs
// without an archived file, or any run when archiving is off, are not found.
func (s *ProductImportService) ArchivedFile(ctx context.Context, id uuid.UUID) (*ArchiveLink, error) {
	if s.archive == nil {
		return nil, fmt.Errorf("import file archive: %w", shared.ErrNotFound)
	}
	run, err := s.runs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.ArchiveKey == "" {
		return nil, fmt.Errorf("import run %s has no archived file: %w", id, shared.ErrNotFound)
	}
	url, expiresAt, err := s.archive.GenerateDownloadURL(ctx, run.ArchiveKey, 0)
	if err != nil {
		return nil, err
	}
	return &ArchiveLink{URL: url, ExpiresAt: expiresAt}, nil
}

func resultOf(run *bulk.ImportRun) *ImportResult {
	return &ImportResult{
		RunID:   run.ID,
		Status:  run.Status,
		Total:   run.TotalRows,
		Created: run.Created,
		Updated: run.Updated,
		Failed:  run.Failed,
		Errors:  run.RowErrors,
	}
}
