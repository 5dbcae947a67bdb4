package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	catalogapp "github.com/Alex240101/oxapampa/internal/application/catalog"
	"github.com/Alex240101/oxapampa/internal/domain/shared"
	"github.com/Alex240101/oxapampa/internal/interfaces/http/dto"
	"github.com/Alex240101/oxapampa/internal/interfaces/http/middleware"
)

// ProductService is the part of the catalog application service the handler
// uses.
type ProductService interface {
	List(ctx context.Context, filter catalogapp.ProductListFilter) (shared.Paginated[catalogapp.ProductResponse], error)
	LowStock(ctx context.Context) ([]catalogapp.ProductResponse, error)
}

// ProductHandler handles product read endpoints
type ProductHandler struct {
	BaseHandler
	products ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// List godoc
//
//	@Summary	List products
//	@Tags		products
//	@Produce	json
//	@Param		search		query		string	false	"Matches name or code"
//	@Param		page		query		int		false	"Page number"	default(1)
//	@Param		page_size	query		int		false	"Page size"		default(20)
//	@Param		order_by	query		string	false	"Sort column"	default(code)
//	@Param		order_dir	query		string	false	"asc or desc"
//	@Success	200			{object}	dto.Response
//	@Router		/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var filter catalogapp.ProductListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	page, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(page))
}

// LowStock lists active products at or below their minimum stock.
func (h *ProductHandler) LowStock(c *gin.Context) {
	products, err := h.products.LowStock(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}
