package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ticket-rag/backend/internal/errs"
	"github.com/ticket-rag/backend/internal/model"
	"github.com/ticket-rag/backend/internal/service"
)

// statusFor maps a service error to the HTTP status returned to the caller.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidChatRequest):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, errs.ErrChatModelFailure),
		errors.Is(err, service.ErrRetrievalFailed),
		errors.Is(err, errs.ErrEmbeddingUnavailable),
		errors.Is(err, errs.ErrTrackerUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), model.ErrorResponse{Error: err.Error()})
}
