package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/q-up/queue-backend/internal/middleware"
	"github.com/q-up/queue-backend/internal/services"
	"github.com/q-up/queue-backend/internal/utils"
	"github.com/sirupsen/logrus"
)

// QueueHandler handles queue-related HTTP requests
type QueueHandler struct {
	queueService *services.QueueService
	auditService *services.AuditService
	logger       *logrus.Logger
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(
	queueService *services.QueueService,
	auditService *services.AuditService,
	logger *logrus.Logger,
) *QueueHandler {
	return &QueueHandler{
		queueService: queueService,
		auditService: auditService,
		logger:       logger,
	}
}

// EnterQueueRequest represents the request to join a queue
type EnterQueueRequest struct {
	BusinessName string `json:"business_name" binding:"required"`
}

// CheckInRequest represents the request to serve a waiting customer
type CheckInRequest struct {
	TicketNumber *int   `json:"ticket_number" binding:"required"`
	Password     string `json:"password" binding:"required"`
}

// ToggleStatusResponse reports the queue's activation state after a toggle
type ToggleStatusResponse struct {
	Message  string `json:"message"`
	IsActive bool   `json:"is_active"`
}

// Enter handles POST /api/v1/queue/enter
func (h *QueueHandler) Enter(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Authentication required"})
		return
	}

	var req EnterQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	snapshot, err := h.queueService.Enter(c.Request.Context(), actor, req.BusinessName)
	if err != nil {
		respondError(c, err)
		return
	}

	h.auditService.LogQueueEvent(services.QueueEvent{
		BusinessName: req.BusinessName,
		ActorEmail:   actor.Email,
		Action:       "enter",
		IPAddress:    utils.GetRealIP(c),
		UserAgent:    c.GetHeader("User-Agent"),
	})

	c.JSON(http.StatusCreated, snapshot)
}

// Abandon handles PUT /api/v1/queue/abandon
func (h *QueueHandler) Abandon(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Authentication required"})
		return
	}

	if err := h.queueService.Abandon(c.Request.Context(), actor); err != nil {
		respondError(c, err)
		return
	}

	h.auditService.LogQueueEvent(services.QueueEvent{
		ActorEmail: actor.Email,
		Action:     "abandon",
		IPAddress:  utils.GetRealIP(c),
		UserAgent:  c.GetHeader("User-Agent"),
	})

	c.JSON(http.StatusAccepted, gin.H{"message": "Removed from queue"})
}

// VIPInsert handles POST /api/v1/queue/vip
func (h *QueueHandler) VIPInsert(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Authentication required"})
		return
	}

	slot, err := h.queueService.VIPInsert(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	h.auditService.LogQueueEvent(services.QueueEvent{
		BusinessName: actor.BusinessName,
		ActorEmail:   actor.Email,
		Action:       "vip_insert",
		TicketNumber: &slot.TicketNumber,
		IPAddress:    utils.GetRealIP(c),
		UserAgent:    c.GetHeader("User-Agent"),
	})

	c.JSON(http.StatusCreated, slot)
}

// ToggleStatus handles PUT /api/v1/queue/status. Activation answers 204 with
// no body; deactivation answers 202, matching the asymmetry clients rely on
// to distinguish the two transitions without a follow-up read.
func (h *QueueHandler) ToggleStatus(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Authentication required"})
		return
	}

	active, err := h.queueService.ToggleStatus(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	action := "deactivate"
	if active {
		action = "activate"
	}
	h.auditService.LogQueueEvent(services.QueueEvent{
		BusinessName: actor.BusinessName,
		ActorEmail:   actor.Email,
		Action:       action,
		IPAddress:    utils.GetRealIP(c),
		UserAgent:    c.GetHeader("User-Agent"),
	})

	if active {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusAccepted, ToggleStatusResponse{
		Message:  "Queue deactivated and cleared",
		IsActive: false,
	})
}

// StaffQueue handles GET /api/v1/queue
func (h *QueueHandler) StaffQueue(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Authentication required"})
		return
	}

	snapshot, err := h.queueService.StaffQueue(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// CustomerSlot handles GET /api/v1/queue/slot
func (h *QueueHandler) CustomerSlot(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Authentication required"})
		return
	}

	info, err := h.queueService.CustomerSlotInfo(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// CheckIn handles POST /api/v1/queue/checkin
func (h *QueueHandler) CheckIn(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Authentication required"})
		return
	}

	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	served, err := h.queueService.CheckIn(c.Request.Context(), actor, *req.TicketNumber, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.auditService.LogQueueEvent(services.QueueEvent{
		BusinessName: actor.BusinessName,
		ActorEmail:   actor.Email,
		Action:       "check_in",
		TicketNumber: &served.TicketNumber,
		IPAddress:    utils.GetRealIP(c),
		UserAgent:    c.GetHeader("User-Agent"),
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Customer served",
		"slot":    served,
	})
}
