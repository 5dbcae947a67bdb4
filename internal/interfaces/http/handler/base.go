// Package handler implements the HTTP handlers of the back office API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Alex240101/oxapampa/internal/domain/bulk"
	"github.com/Alex240101/oxapampa/internal/domain/invoicing"
	"github.com/Alex240101/oxapampa/internal/domain/session"
	"github.com/Alex240101/oxapampa/internal/domain/shared"
	"github.com/Alex240101/oxapampa/internal/infrastructure/logger"
	"github.com/Alex240101/oxapampa/internal/interfaces/http/dto"
	"github.com/Alex240101/oxapampa/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
}

// HandleError maps err to the response envelope.
//
// Import aborts carry the row errors and provider failures carry the raw
// provider payload in error.details. Unknown errors become 500 without
// leaking their text.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestID(c)
	_ = c.Error(err)

	var aborted *bulk.AbortedError
	if errors.As(err, &aborted) {
		c.JSON(http.StatusUnprocessableEntity, dto.NewErrorResponseWithDetails(
			dto.ErrCodeImportAborted,
			"The file has invalid rows; nothing was imported",
			requestID,
			gin.H{"run_id": aborted.RunID, "errors": aborted.Errors},
		))
		return
	}

	var providerErr *invoicing.ExternalProviderError
	if errors.As(err, &providerErr) {
		c.JSON(http.StatusBadGateway, dto.NewErrorResponseWithDetails(
			dto.ErrCodeProvider,
			providerErr.Error(),
			requestID,
			providerDetails(providerErr),
		))
		return
	}

	if errors.Is(err, invoicing.ErrNumberingConflict) {
		c.JSON(http.StatusConflict, dto.NewErrorResponse(
			dto.ErrCodeNumberingConflict,
			"Another document took the same number; please retry",
			requestID,
		))
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, domainErr.Message, requestID))
		return
	}

	if errors.Is(err, context.Canceled) {
		c.JSON(dto.GetHTTPStatus(dto.ErrCodeCancelled), dto.NewErrorResponse(dto.ErrCodeCancelled, "Request cancelled", requestID))
		return
	}

	logger.For(c.Request.Context(), logger.GetGinLogger(c)).Error("Unhandled error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		requestID,
	))
}

// providerDetails returns the provider body as JSON when it is JSON, and as
// a string otherwise.
func providerDetails(e *invoicing.ExternalProviderError) gin.H {
	details := gin.H{"status": e.StatusCode}
	switch {
	case len(e.Raw) == 0:
	case json.Valid(e.Raw):
		details["raw"] = json.RawMessage(e.Raw)
	default:
		details["raw"] = string(e.Raw)
	}
	return details
}

// bindJSON binds the body and writes the validation response on failure.
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// pathUUID parses the named path parameter.
func (h *BaseHandler) pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+": must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// currentSession returns the authenticated session or answers 401.
func (h *BaseHandler) currentSession(c *gin.Context) (session.Session, bool) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		h.Unauthorized(c)
		return session.Session{}, false
	}
	return sess, true
}
