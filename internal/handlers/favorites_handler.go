package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/q-up/queue-backend/internal/middleware"
	"github.com/q-up/queue-backend/internal/services"
	"github.com/sirupsen/logrus"
)

// FavoritesHandler handles favourite-business HTTP requests
type FavoritesHandler struct {
	favoritesService *services.FavoritesService
	logger           *logrus.Logger
}

// NewFavoritesHandler creates a new favourites handler
func NewFavoritesHandler(favoritesService *services.FavoritesService, logger *logrus.Logger) *FavoritesHandler {
	return &FavoritesHandler{favoritesService: favoritesService, logger: logger}
}

// ToggleFavoriteRequest represents the request to toggle a favourite
type ToggleFavoriteRequest struct {
	BusinessName string `json:"business_name" binding:"required"`
}

// Toggle handles PUT /api/v1/favourites/toggle
func (h *FavoritesHandler) Toggle(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Authentication required"})
		return
	}

	var req ToggleFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	added, err := h.favoritesService.Toggle(c.Request.Context(), actor, req.BusinessName)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Business removed from favourites"
	if added {
		message = "Business added to favourites"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    message,
		"favourited": added,
	})
}

// List handles GET /api/v1/favourites
func (h *FavoritesHandler) List(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Authentication required"})
		return
	}

	favourites, err := h.favoritesService.List(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"favourites": favourites})
}
