package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	salesapp "github.com/Alex240101/oxapampa/internal/application/sales"
	"github.com/Alex240101/oxapampa/internal/domain/session"
)

// SaleService is the part of the sales application service the handler uses.
type SaleService interface {
	Register(ctx context.Context, sess session.Session, req salesapp.RegisterSaleRequest) (*salesapp.SaleResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*salesapp.SaleResponse, error)
}

// SaleHandler handles counter sale endpoints
type SaleHandler struct {
	BaseHandler
	sales SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(sales SaleService) *SaleHandler {
	return &SaleHandler{sales: sales}
}

// Register godoc
//
//	@Summary	Register a counter sale
//	@Tags		sales
//	@Accept		json
//	@Produce	json
//	@Param		request	body		salesapp.RegisterSaleRequest	true	"Sale"
//	@Success	201		{object}	dto.Response
//	@Failure	400		{object}	dto.Response
//	@Failure	422		{object}	dto.Response
//	@Router		/sales [post]
func (h *SaleHandler) Register(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}
	var req salesapp.RegisterSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	sale, err := h.sales.Register(c.Request.Context(), sess, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// Get returns one sale with its items.
func (h *SaleHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	sale, err := h.sales.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}
