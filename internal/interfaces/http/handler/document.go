package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	invoicingapp "github.com/Alex240101/oxapampa/internal/application/invoicing"
	"github.com/Alex240101/oxapampa/internal/domain/invoicing"
	"github.com/Alex240101/oxapampa/internal/domain/session"
)

// IdempotencyKeyHeader lets clients make document requests safe to retry.
const IdempotencyKeyHeader = "Idempotency-Key"

// DocumentService is the part of the invoicing application service the
// handler uses.
type DocumentService interface {
	GenerateForSale(ctx context.Context, sess session.Session, in invoicingapp.GenerateDocumentInput) (*invoicingapp.DocumentResponse, error)
	GenerateCreditNote(ctx context.Context, sess session.Session, in invoicingapp.CreditNoteInput) (*invoicingapp.DocumentResponse, error)
	ListForSale(ctx context.Context, saleID uuid.UUID) ([]invoicingapp.DocumentResponse, error)
}

// GenerateDocumentRequest is the body of POST /sales/:id/documents.
type GenerateDocumentRequest struct {
	Type   string `json:"type" binding:"required,oneof=invoice receipt"`
	Series string `json:"series" binding:"omitempty,series"`
	// Customer overrides the customer captured with the sale.
	Customer *invoicing.Customer `json:"customer"`
}

// CreditNoteRequest is the body of POST /documents/credit-notes.
type CreditNoteRequest struct {
	Series      string `json:"series" binding:"required,series"`
	Number      int    `json:"number" binding:"required,gt=0"`
	Reason      string `json:"reason" binding:"omitempty,len=2,numeric"`
	Description string `json:"description" binding:"max=250"`
	NoteSeries  string `json:"note_series" binding:"omitempty,series"`
}

// DocumentHandler handles fiscal document endpoints
type DocumentHandler struct {
	BaseHandler
	documents DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documents DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// GenerateForSale godoc
//
//	@Summary		Issue an invoice or receipt for a sale
//	@Description	Reserves the next number of the series and submits the document to the provider.
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			id				path		string					true	"Sale ID"
//	@Param			Idempotency-Key	header		string					false	"Client retry key"
//	@Param			request			body		GenerateDocumentRequest	true	"Document"
//	@Success		201				{object}	dto.Response
//	@Failure		409				{object}	dto.Response
//	@Failure		502				{object}	dto.Response
//	@Router			/sales/{id}/documents [post]
func (h *DocumentHandler) GenerateForSale(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	saleID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req GenerateDocumentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	doc, err := h.documents.GenerateForSale(c.Request.Context(), sess, invoicingapp.GenerateDocumentInput{
		SaleID:         saleID,
		DocumentType:   invoicing.DocumentType(req.Type),
		Series:         req.Series,
		Customer:       req.Customer,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// ListForSale returns every document issued for a sale.
func (h *DocumentHandler) ListForSale(c *gin.Context) {
	saleID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	docs, err := h.documents.ListForSale(c.Request.Context(), saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, docs)
}

// GenerateCreditNote godoc
//
//	@Summary	Issue a credit note against an accepted document
//	@Tags		documents
//	@Accept		json
//	@Produce	json
//	@Param		request	body		CreditNoteRequest	true	"Credit note"
//	@Success	201		{object}	dto.Response
//	@Failure	404		{object}	dto.Response
//	@Failure	502		{object}	dto.Response
//	@Router		/documents/credit-notes [post]
func (h *DocumentHandler) GenerateCreditNote(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	var req CreditNoteRequest
	if !h.bindJSON(c, &req) {
		return
	}

	doc, err := h.documents.GenerateCreditNote(c.Request.Context(), sess, invoicingapp.CreditNoteInput{
		Series:         req.Series,
		Number:         req.Number,
		Reason:         req.Reason,
		Description:    req.Description,
		NoteSeries:     req.NoteSeries,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}
