package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/q-up/queue-backend/internal/middleware"
	"github.com/q-up/queue-backend/internal/models"
	"github.com/q-up/queue-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// StaffHandler handles staff presence HTTP requests
type StaffHandler struct {
	presenceService *services.PresenceService
	logger          *logrus.Logger
}

// NewStaffHandler creates a new staff handler
func NewStaffHandler(presenceService *services.PresenceService, logger *logrus.Logger) *StaffHandler {
	return &StaffHandler{presenceService: presenceService, logger: logger}
}

// PresenceRequest represents a staff presence update
type PresenceRequest struct {
	Online *bool `json:"online" binding:"required"`
}

// UpdatePresence handles PUT /api/v1/staff/presence
func (h *StaffHandler) UpdatePresence(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Authentication required"})
		return
	}
	if actor.Role != models.RoleEmployee && actor.Role != models.RoleManager {
		respondError(c, services.ErrUnauthorized)
		return
	}

	var req PresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	var err error
	if *req.Online {
		err = h.presenceService.SetOnline(c.Request.Context(), actor.BusinessName, actor.Email)
	} else {
		err = h.presenceService.SetOffline(c.Request.Context(), actor.BusinessName, actor.Email)
	}
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"business": actor.BusinessName,
			"staff":    actor.Email,
		}).Error("failed to update staff presence")
		respondError(c, services.ErrStorageFailure)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Presence updated",
		"online":  *req.Online,
	})
}

// OnlineStaff handles GET /api/v1/staff/online
func (h *StaffHandler) OnlineStaff(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Authentication required"})
		return
	}
	if actor.Role != models.RoleEmployee && actor.Role != models.RoleManager {
		respondError(c, services.ErrUnauthorized)
		return
	}

	staff, err := h.presenceService.OnlineStaff(c.Request.Context(), actor.BusinessName)
	if err != nil {
		h.logger.WithError(err).WithField("business", actor.BusinessName).
			Error("failed to list online staff")
		respondError(c, services.ErrStorageFailure)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"online_staff": staff,
		"count":        len(staff),
	})
}
