package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/q-up/queue-backend/internal/queue"
	"github.com/q-up/queue-backend/internal/services"
)

// ErrorResponse is the standard error envelope
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// respondError maps typed service outcomes onto HTTP status codes. Expected
// control-flow outcomes carry a user-renderable message; consistency
// violations and storage failures collapse into a generic internal error.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Your role does not permit this operation",
		})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_credentials",
			Message: "The presented credentials did not match",
		})
	case errors.Is(err, services.ErrAlreadyQueued):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "already_queued",
			Message: "You are already enrolled in a queue",
		})
	case errors.Is(err, services.ErrNotQueued):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "not_queued",
			Message: "You are not currently in a queue",
		})
	case errors.Is(err, services.ErrQueueInactive):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "queue_inactive",
			Message: "The queue is not active right now",
		})
	case errors.Is(err, services.ErrStoreClosed):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "store_closed",
			Message: "The store is closed now",
		})
	case errors.Is(err, queue.ErrNoHours):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "no_hours",
			Message: "Could not obtain the hours of operation for this business",
		})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Record not found",
		})
	default:
		// ErrSlotNotFound, ErrStorageFailure and anything unrecognised
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Internal error. Something went wrong!",
		})
	}
}
