package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rj-tabelon/rentalrabbit/internal/models"
	"github.com/rj-tabelon/rentalrabbit/internal/repository"
)

type TenantHandler struct {
	tenants    repository.TenantRepository
	properties repository.PropertyRepository
	Responder
}

func NewTenantHandler(tenants repository.TenantRepository, properties repository.PropertyRepository, r Responder) *TenantHandler {
	return &TenantHandler{tenants: tenants, properties: properties, Responder: r}
}

// Get handles GET /tenants/:cognitoId. The tenant comes back with favorites.
func (h *TenantHandler) Get(c *gin.Context) {
	t, err := h.tenants.GetByCognitoID(c.Request.Context(), c.Param("cognitoId"))
	if err != nil {
		h.serverError(c, "retrieving tenant", err)
		return
	}
	if t == nil {
		h.fail(c, http.StatusNotFound, "Tenant not found")
		return
	}
	c.JSON(http.StatusOK, t)
}

// Create handles POST /tenants
func (h *TenantHandler) Create(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CognitoID == "" {
		h.fail(c, http.StatusBadRequest, "cognitoId, name and email are required")
		return
	}

	t, err := h.tenants.Create(c.Request.Context(), models.Tenant{
		CognitoID:   req.CognitoID,
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			h.fail(c, http.StatusConflict, "Tenant already exists")
			return
		}
		h.serverError(c, "creating tenant", err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// Update handles PUT /tenants/:cognitoId
func (h *TenantHandler) Update(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "name and email are required")
		return
	}

	t, err := h.tenants.Update(c.Request.Context(), c.Param("cognitoId"), models.Tenant{
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		h.serverError(c, "updating tenant", err)
		return
	}
	if t == nil {
		h.fail(c, http.StatusNotFound, "Tenant not found")
		return
	}
	c.JSON(http.StatusOK, t)
}

// Residences handles GET /tenants/:cognitoId/residences
func (h *TenantHandler) Residences(c *gin.Context) {
	properties, err := h.properties.ListResidences(c.Request.Context(), c.Param("cognitoId"))
	if err != nil {
		h.serverError(c, "retrieving tenant properties", err)
		return
	}
	c.JSON(http.StatusOK, properties)
}

// AddFavorite handles POST /tenants/:cognitoId/favorites/:propertyId
func (h *TenantHandler) AddFavorite(c *gin.Context) {
	propertyID, ok := paramID(c, "propertyId")
	if !ok {
		h.fail(c, http.StatusBadRequest, "Invalid property id")
		return
	}

	t, err := h.tenants.AddFavorite(c.Request.Context(), c.Param("cognitoId"), propertyID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyFavorite) {
			h.fail(c, http.StatusConflict, "Property already added as favorite")
			return
		}
		h.notFoundOr(c, "adding favorite property", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// RemoveFavorite handles DELETE /tenants/:cognitoId/favorites/:propertyId.
// Removing a property that is not a favorite succeeds.
func (h *TenantHandler) RemoveFavorite(c *gin.Context) {
	propertyID, ok := paramID(c, "propertyId")
	if !ok {
		h.fail(c, http.StatusBadRequest, "Invalid property id")
		return
	}

	t, err := h.tenants.RemoveFavorite(c.Request.Context(), c.Param("cognitoId"), propertyID)
	if err != nil {
		h.notFoundOr(c, "removing favorite property", err)
		return
	}
	c.JSON(http.StatusOK, t)
}
