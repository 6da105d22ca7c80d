package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/q-up/queue-backend/internal/middleware"
	"github.com/q-up/queue-backend/internal/services"
	"github.com/q-up/queue-backend/internal/utils"
	"github.com/sirupsen/logrus"
)

// BoothHandler handles kiosk booth HTTP requests
type BoothHandler struct {
	boothService *services.BoothService
	auditService *services.AuditService
	logger       *logrus.Logger
}

// NewBoothHandler creates a new booth handler
func NewBoothHandler(
	boothService *services.BoothService,
	auditService *services.AuditService,
	logger *logrus.Logger,
) *BoothHandler {
	return &BoothHandler{
		boothService: boothService,
		auditService: auditService,
		logger:       logger,
	}
}

// CreateBoothRequest represents the request to register a kiosk booth
type CreateBoothRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateBoothResponse carries the one-time plaintext API key alongside the
// booth record. The key is never retrievable again.
type CreateBoothResponse struct {
	BoothID      uuid.UUID `json:"booth_id"`
	BusinessName string    `json:"business_name"`
	Name         string    `json:"name"`
	APIKey       string    `json:"api_key"`
}

// BoothEnterRequest represents a walk-in queue entry from a kiosk. The booth
// authenticates with its own credentials; there is no JWT on this route.
type BoothEnterRequest struct {
	BoothID     uuid.UUID `json:"booth_id" binding:"required"`
	APIKey      string    `json:"api_key" binding:"required"`
	PhoneNumber string    `json:"phone_number" binding:"required"`
}

// Create handles POST /api/v1/booths
func (h *BoothHandler) Create(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Authentication required"})
		return
	}

	var req CreateBoothRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	booth, apiKey, err := h.boothService.CreateBooth(c.Request.Context(), actor, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateBoothResponse{
		BoothID:      booth.ID,
		BusinessName: booth.BusinessName,
		Name:         booth.Name,
		APIKey:       apiKey,
	})
}

// Enter handles POST /api/v1/booths/enter
func (h *BoothHandler) Enter(c *gin.Context) {
	var req BoothEnterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	slot, err := h.boothService.EnterQueue(c.Request.Context(), req.BoothID, req.APIKey, req.PhoneNumber)
	if err != nil {
		respondError(c, err)
		return
	}

	h.auditService.LogQueueEvent(services.QueueEvent{
		Action:       "booth_enter",
		TicketNumber: &slot.TicketNumber,
		IPAddress:    utils.GetRealIP(c),
		UserAgent:    c.GetHeader("User-Agent"),
		Details:      map[string]interface{}{"booth_id": req.BoothID.String()},
	})

	c.JSON(http.StatusCreated, gin.H{
		"ticket_number": slot.TicketNumber,
		"password":      slot.Password,
	})
}
