// Package invoicing issues fiscal documents for registered sales.
package invoicing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Alex240101/oxapampa/internal/application/notify"
	"github.com/Alex240101/oxapampa/internal/domain/invoicing"
	"github.com/Alex240101/oxapampa/internal/domain/sales"
	"github.com/Alex240101/oxapampa/internal/domain/session"
	"github.com/Alex240101/oxapampa/internal/domain/shared"
	"github.com/Alex240101/oxapampa/internal/infrastructure/logger"
	"github.com/Alex240101/oxapampa/internal/infrastructure/telemetry"
)

// maxReserveAttempts is the first attempt plus one retry after a numbering
// conflict.
const maxReserveAttempts = 2

// Config selects default series and the idempotency window.
type Config struct {
	InvoiceSeries  string
	ReceiptSeries  string
	IdempotencyTTL time.Duration
}

// DocumentService composes, numbers and submits fiscal documents.
type DocumentService struct {
	sales       sales.SaleRepository
	documents   invoicing.DocumentRepository
	provider    invoicing.Provider
	composer    *invoicing.Composer
	idempotency shared.IdempotencyStore
	sink        notify.Sink
	metrics     *telemetry.BusinessMetrics
	config      Config
	logger      *zap.Logger
}

// Option configures optional collaborators.
type Option func(*DocumentService)

// WithMetrics records submissions on m.
func WithMetrics(m *telemetry.BusinessMetrics) Option {
	return func(s *DocumentService) { s.metrics = m }
}

// WithNotifier delivers outcomes to sink.
func WithNotifier(sink notify.Sink) Option {
	return func(s *DocumentService) { s.sink = sink }
}

// WithLogger sets the fallback logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *DocumentService) { s.logger = l }
}

// NewDocumentService creates a DocumentService.
func NewDocumentService(
	saleRepo sales.SaleRepository,
	documentRepo invoicing.DocumentRepository,
	provider invoicing.Provider,
	composer *invoicing.Composer,
	idempotency shared.IdempotencyStore,
	cfg Config,
	opts ...Option,
) *DocumentService {
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = shared.DefaultIdempotencyTTL
	}
	s := &DocumentService{
		sales:       saleRepo,
		documents:   documentRepo,
		provider:    provider,
		composer:    composer,
		idempotency: idempotency,
		sink:        notify.Nop,
		config:      cfg,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateForSale issues an invoice or receipt for a registered sale.
//
// A replayed idempotency key fails with shared.ErrDuplicateRequest. A
// numbering conflict is retried once with a fresh read of the series. When the
// provider rejects the document the reserved number stays consumed, the
// document is stored as rejected and the *invoicing.ExternalProviderError is
// returned.
func (s *DocumentService) GenerateForSale(ctx context.Context, sess session.Session, in GenerateDocumentInput) (resp *DocumentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "DocumentService", "GenerateForSale",
		telemetry.WithAttribute(telemetry.SpanAttrSaleID, in.SaleID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrDocumentType, string(in.DocumentType)),
	)
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		}
	}()

	if in.DocumentType != invoicing.DocumentTypeInvoice && in.DocumentType != invoicing.DocumentTypeReceipt {
		return nil, shared.NewValidationError("unsupported document type %q", in.DocumentType)
	}

	// A client key makes retries safe; the sale key keeps two requests from
	// documenting the same sale at once.
	keys := []string{saleKey(in.SaleID)}
	if in.IdempotencyKey != "" {
		keys = append([]string{in.IdempotencyKey}, keys...)
	}
	release, err := s.claimAll(ctx, keys...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			release()
		}
	}()

	sale, err := s.sales.FindByID(ctx, in.SaleID)
	if err != nil {
		return nil, err
	}
	if sale.HasDocument() {
		return nil, alreadyDocumented(sale)
	}
	if in.Customer != nil {
		sale.Customer = *in.Customer
	}
	if in.DocumentType == invoicing.DocumentTypeReceipt {
		sale.Customer = sale.Customer.WithReceiptDefaults()
	}
	if err := sale.ValidateForDocument(in.DocumentType); err != nil {
		return nil, err
	}

	series := s.seriesFor(in.DocumentType, in.Series)
	lines := sale.Lines()
	doc, composed, err := s.reserve(ctx, sale.ID, series, in.DocumentType, func(existingMax int) (*invoicing.ComposedDocument, error) {
		return s.composer.Compose(lines, in.DocumentType, series, sale.Customer, existingMax)
	})
	if err != nil {
		return nil, err
	}

	if err := s.submit(ctx, doc, composed); err != nil {
		return nil, err
	}

	attached := sales.Document{
		Type:             doc.Type,
		Series:           doc.Series,
		Number:           doc.FormattedNumber(),
		Link:             doc.Links.Page,
		PDFLink:          doc.Links.PDF,
		XMLLink:          doc.Links.XML,
		CDRLink:          doc.Links.CDR,
		ProviderResponse: doc.RawResponse,
	}
	if err := sale.AttachDocument(attached); err != nil {
		return nil, err
	}
	if err := s.sales.AttachDocument(ctx, sale.ID, attached); err != nil {
		// The document is issued; only the sale's copy of the links is missing.
		// ErrAlreadyExists means another document reached the sale first.
		logger.For(ctx, s.logger).Error("Failed to attach document to sale",
			zap.String("sale_id", sale.ID.String()),
			zap.String("document", composed.FullNumber()),
			zap.Error(err),
		)
	}

	logger.For(ctx, s.logger).Info("Document issued",
		zap.String("sale_id", sale.ID.String()),
		zap.String("document", composed.FullNumber()),
		zap.String("issued_by", sess.Actor()),
	)
	out := ToDocumentResponse(doc)
	return &out, nil
}

// GenerateCreditNote issues a credit note mirroring the lines of an accepted
// invoice or receipt.
func (s *DocumentService) GenerateCreditNote(ctx context.Context, sess session.Session, in CreditNoteInput) (resp *DocumentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "DocumentService", "GenerateCreditNote",
		telemetry.WithAttribute(telemetry.SpanAttrSeries, in.Series),
		telemetry.WithAttribute(telemetry.SpanAttrNumber, in.Number),
	)
	defer span.End()
	defer func() {
		if err != nil {
			telemetry.RecordError(span, err)
		}
	}()

	if in.IdempotencyKey != "" {
		release, cerr := s.claim(ctx, "credit-note:"+in.IdempotencyKey)
		if cerr != nil {
			return nil, cerr
		}
		defer func() {
			if err != nil {
				release()
			}
		}()
	}

	modified, err := s.documents.FindBySeriesNumber(ctx, strings.ToUpper(strings.TrimSpace(in.Series)), in.Number)
	if err != nil {
		return nil, err
	}
	if modified.Type == invoicing.DocumentTypeCreditNote {
		return nil, shared.NewValidationError("a credit note cannot modify another credit note")
	}
	if modified.Status != invoicing.DocumentStatusAccepted {
		return nil, shared.NewValidationError("document %s-%s was not accepted by the provider", modified.Series, modified.FormattedNumber())
	}
	sale, err := s.sales.FindByID(ctx, modified.SaleID)
	if err != nil {
		return nil, err
	}

	series := strings.ToUpper(strings.TrimSpace(in.NoteSeries))
	if series == "" {
		series = invoicing.DefaultCreditNoteSeries(modified.Type)
	}
	req := invoicing.CreditNoteRequest{
		Lines:    sale.Lines(),
		Customer: modified.Customer,
		Modifies: invoicing.Reference{Type: modified.Type, Series: modified.Series, Number: modified.Number},
		Reason:   in.Reason,
		Summary:  in.Description,
		Series:   series,
	}
	doc, composed, err := s.reserve(ctx, sale.ID, series, invoicing.DocumentTypeCreditNote, func(existingMax int) (*invoicing.ComposedDocument, error) {
		return s.composer.ComposeCreditNote(req, existingMax)
	})
	if err != nil {
		return nil, err
	}
	if err := s.submit(ctx, doc, composed); err != nil {
		return nil, err
	}

	logger.For(ctx, s.logger).Info("Credit note issued",
		zap.String("document", composed.FullNumber()),
		zap.String("modifies", modified.Series+"-"+modified.FormattedNumber()),
		zap.String("issued_by", sess.Actor()),
	)
	out := ToDocumentResponse(doc)
	return &out, nil
}

// ListForSale returns every document issued against a sale, oldest first.
func (s *DocumentService) ListForSale(ctx context.Context, saleID uuid.UUID) ([]DocumentResponse, error) {
	docs, err := s.documents.FindBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return ToDocumentResponses(docs), nil
}

func saleKey(id uuid.UUID) string {
	return "sale:" + id.String()
}

func alreadyDocumented(sale *sales.Sale) error {
	return shared.NewDomainError(shared.CodeAlreadyExists,
		fmt.Sprintf("sale already has document %s-%s", sale.Document.Series, sale.Document.Number))
}

// claimAll takes every key or none of them.
func (s *DocumentService) claimAll(ctx context.Context, keys ...string) (func(), error) {
	releases := make([]func(), 0, len(keys))
	releaseAll := func() {
		for _, release := range releases {
			release()
		}
	}
	for _, key := range keys {
		release, err := s.claim(ctx, key)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}

// claim takes the idempotency key and returns a function that gives it back.
func (s *DocumentService) claim(ctx context.Context, key string) (func(), error) {
	if s.idempotency == nil {
		return func() {}, nil
	}
	ok, err := s.idempotency.Claim(ctx, key, s.config.IdempotencyTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if !ok {
		return nil, shared.ErrDuplicateRequest
	}
	return func() {
		// The request context may already be cancelled.
		if err := s.idempotency.Release(context.WithoutCancel(ctx), key); err != nil {
			logger.For(ctx, s.logger).Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// reserve composes against the current series maximum and stores the
// reservation, retrying once when another writer took the number first.
func (s *DocumentService) reserve(
	ctx context.Context,
	saleID uuid.UUID,
	series string,
	docType invoicing.DocumentType,
	compose func(existingMax int) (*invoicing.ComposedDocument, error),
) (*invoicing.FiscalDocument, *invoicing.ComposedDocument, error) {
	var lastErr error
	for attempt := 1; attempt <= maxReserveAttempts; attempt++ {
		existingMax, err := s.documents.MaxNumber(ctx, series)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read series %s: %w", series, err)
		}
		composed, err := compose(existingMax)
		if err != nil {
			return nil, nil, err
		}
		doc := invoicing.NewFiscalDocument(saleID, composed)
		err = s.documents.Reserve(ctx, doc)
		if err == nil {
			return doc, composed, nil
		}
		if !errors.Is(err, invoicing.ErrNumberingConflict) {
			return nil, nil, err
		}
		lastErr = err
		s.metrics.NumberingRetried(ctx, string(docType))
		logger.For(ctx, s.logger).Warn("Numbering conflict",
			zap.String("document", composed.FullNumber()),
			zap.Int("attempt", attempt),
		)
	}
	return nil, nil, lastErr
}

// submit sends the reserved document and stores the provider outcome on it.
func (s *DocumentService) submit(ctx context.Context, doc *invoicing.FiscalDocument, composed *invoicing.ComposedDocument) error {
	started := time.Now()
	resp, err := s.provider.Submit(ctx, invoicing.BuildPayload(composed))
	elapsed := time.Since(started)

	if err != nil {
		s.metrics.DocumentSubmitted(ctx, string(doc.Type), "rejected", elapsed)

		var perr *invoicing.ExternalProviderError
		if !errors.As(err, &perr) {
			perr = &invoicing.ExternalProviderError{Message: err.Error(), Err: err}
		}
		doc.Reject(perr.Raw, perr.Message)
		if uerr := s.documents.Update(context.WithoutCancel(ctx), doc); uerr != nil {
			logger.For(ctx, s.logger).Error("Failed to record rejected document",
				zap.String("document", composed.FullNumber()),
				zap.Error(uerr),
			)
		}
		notify.Send(ctx, s.sink, s.logger, notify.Notification{
			Kind:    notify.KindDocumentRejected,
			Level:   notify.LevelError,
			Title:   "Error al emitir comprobante",
			Message: perr.Message,
			Data:    map[string]any{"document": composed.FullNumber(), "status_code": perr.StatusCode},
		})
		return perr
	}

	s.metrics.DocumentSubmitted(ctx, string(doc.Type), "accepted", elapsed)
	doc.Accept(resp)
	if err := s.documents.Update(ctx, doc); err != nil {
		return fmt.Errorf("failed to store provider response for %s: %w", composed.FullNumber(), err)
	}

	notify.Send(ctx, s.sink, s.logger, notify.Notification{
		Kind:    notify.KindDocumentIssued,
		Level:   notify.LevelSuccess,
		Title:   "Comprobante emitido",
		Message: composed.FullNumber(),
		Data: map[string]any{
			"document":          composed.FullNumber(),
			"accepted_by_sunat": resp.AcceptedBySunat,
			"pdf":               resp.PDFLink,
		},
	})
	return nil
}

func (s *DocumentService) seriesFor(t invoicing.DocumentType, requested string) string {
	if series := strings.ToUpper(strings.TrimSpace(requested)); series != "" {
		return series
	}
	switch t {
	case invoicing.DocumentTypeInvoice:
		if s.config.InvoiceSeries != "" {
			return s.config.InvoiceSeries
		}
	case invoicing.DocumentTypeReceipt:
		if s.config.ReceiptSeries != "" {
			return s.config.ReceiptSeries
		}
	}
	return invoicing.DefaultSeries(t)
}
