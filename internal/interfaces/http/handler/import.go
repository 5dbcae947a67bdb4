package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	importapp "github.com/Alex240101/oxapampa/internal/application/import"
	"github.com/Alex240101/oxapampa/internal/domain/bulk"
	"github.com/Alex240101/oxapampa/internal/domain/session"
	"github.com/Alex240101/oxapampa/internal/infrastructure/logger"
	"github.com/Alex240101/oxapampa/internal/infrastructure/spreadsheet"
	"github.com/Alex240101/oxapampa/internal/interfaces/http/dto"
)

const (
	// XLSXContentType is the MIME type of exported workbooks.
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// DefaultMaxImportSize bounds uploaded workbooks when no limit is configured.
	DefaultMaxImportSize int64 = 10 << 20

	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// ImportService is the part of the import application service the handler
// uses.
type ImportService interface {
	Import(ctx context.Context, sess session.Session, in importapp.ImportInput) (*importapp.ImportResult, error)
	Export(ctx context.Context) ([]bulk.ExportRow, error)
	RecentRuns(ctx context.Context, limit int) ([]*bulk.ImportRun, error)
	Run(ctx context.Context, id uuid.UUID) (*bulk.ImportRun, error)
	ArchivedFile(ctx context.Context, id uuid.UUID) (*importapp.ArchiveLink, error)
}

// ImportHandler handles spreadsheet import and export of the catalog
type ImportHandler struct {
	BaseHandler
	imports     ImportService
	maxFileSize int64
}

// NewImportHandler creates a new ImportHandler. A non-positive maxFileSize
// uses DefaultMaxImportSize.
func NewImportHandler(imports ImportService, maxFileSize int64) *ImportHandler {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxImportSize
	}
	return &ImportHandler{imports: imports, maxFileSize: maxFileSize}
}

// ImportProducts godoc
//
//	@Summary		Import products from a spreadsheet
//	@Description	Reconciles every row first; any invalid row aborts the whole import.
//	@Tags			import
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"Workbook (.xlsx) or CSV (.csv)"
//	@Success		200		{object}	dto.Response
//	@Failure		400		{object}	dto.Response
//	@Failure		413		{object}	dto.Response
//	@Failure		422		{object}	dto.Response
//	@Router			/import/products [post]
func (h *ImportHandler) ImportProducts(c *gin.Context) {
	sess, ok := h.currentSession(c)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "A file must be uploaded in the 'file' field")
		return
	}
	readRows, ok := spreadsheet.ReaderFor(file.Filename)
	if !ok {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidFile, "Only .xlsx workbooks and .csv files are supported")
		return
	}
	if file.Size > h.maxFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeTooLarge,
			fmt.Sprintf("File exceeds the maximum size of %d bytes", h.maxFileSize))
		return
	}

	f, err := file.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, h.maxFileSize))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	rows, err := readRows(bytes.NewReader(content))
	if err != nil {
		logger.For(c.Request.Context(), logger.GetGinLogger(c)).Info("Rejected import file",
			zap.String("file", file.Filename), zap.Error(err))
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidFile, err.Error())
		return
	}

	result, err := h.imports.Import(c.Request.Context(), sess, importapp.ImportInput{
		FileName:    file.Filename,
		FileSize:    file.Size,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
		Rows:        rows,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ExportProducts godoc
//
//	@Summary	Export the catalog as a workbook
//	@Tags		import
//	@Produce	application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//	@Success	200
//	@Router		/export/products [get]
func (h *ImportHandler) ExportProducts(c *gin.Context) {
	rows, err := h.imports.Export(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	// Buffered so a write failure can still produce an error envelope.
	var buf bytes.Buffer
	if err := spreadsheet.WriteProducts(&buf, rows); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="productos.xlsx"`)
	c.Data(http.StatusOK, XLSXContentType, buf.Bytes())
}

// ListRuns returns the most recent import runs.
func (h *ImportHandler) ListRuns(c *gin.Context) {
	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := h.imports.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, runs)
}

// GetRun returns one import run with its row errors.
func (h *ImportHandler) GetRun(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	run, err := h.imports.Run(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, run)
}

// GetRunFile godoc
//
//	@Summary		Temporary link to the uploaded file of an import run
//	@Description	Only available when object storage is configured.
//	@Tags			import
//	@Produce		json
//	@Param			id	path		string	true	"Import run ID"
//	@Success		200	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Router			/import/runs/{id}/file [get]
func (h *ImportHandler) GetRunFile(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	link, err := h.imports.ArchivedFile(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, link)
}
