package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rj-tabelon/rentalrabbit/internal/models"
	"github.com/rj-tabelon/rentalrabbit/internal/repository"
)

type ManagerHandler struct {
	managers   repository.ManagerRepository
	properties repository.PropertyRepository
	Responder
}

func NewManagerHandler(managers repository.ManagerRepository, properties repository.PropertyRepository, r Responder) *ManagerHandler {
	return &ManagerHandler{managers: managers, properties: properties, Responder: r}
}

// profileRequest is the body for creating or updating a manager or tenant.
// CognitoID is ignored on update; the path names the profile.
type profileRequest struct {
	CognitoID   string `json:"cognitoId"`
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	PhoneNumber string `json:"phoneNumber"`
}

// Get handles GET /managers/:cognitoId
func (h *ManagerHandler) Get(c *gin.Context) {
	m, err := h.managers.GetByCognitoID(c.Request.Context(), c.Param("cognitoId"))
	if err != nil {
		h.serverError(c, "retrieving manager", err)
		return
	}
	if m == nil {
		h.fail(c, http.StatusNotFound, "Manager not found")
		return
	}
	c.JSON(http.StatusOK, m)
}

// Create handles POST /managers
func (h *ManagerHandler) Create(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CognitoID == "" {
		h.fail(c, http.StatusBadRequest, "cognitoId, name and email are required")
		return
	}

	m, err := h.managers.Create(c.Request.Context(), models.Manager{
		CognitoID:   req.CognitoID,
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			h.fail(c, http.StatusConflict, "Manager already exists")
			return
		}
		h.serverError(c, "creating manager", err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// Update handles PUT /managers/:cognitoId
func (h *ManagerHandler) Update(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "name and email are required")
		return
	}

	m, err := h.managers.Update(c.Request.Context(), c.Param("cognitoId"), models.Manager{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		h.serverError(c, "updating manager", err)
		return
	}
	if m == nil {
		h.fail(c, http.StatusNotFound, "Manager not found")
		return
	}
	c.JSON(http.StatusOK, m)
}

// Properties handles GET /managers/:cognitoId/properties
func (h *ManagerHandler) Properties(c *gin.Context) {
	properties, err := h.properties.ListByManager(c.Request.Context(), c.Param("cognitoId"))
	if err != nil {
		h.serverError(c, "retrieving manager properties", err)
		return
	}
	c.JSON(http.StatusOK, properties)
}
