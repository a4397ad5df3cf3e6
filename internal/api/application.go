package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rj-tabelon/rentalrabbit/internal/events"
	"github.com/rj-tabelon/rentalrabbit/internal/middleware"
	"github.com/rj-tabelon/rentalrabbit/internal/models"
	"github.com/rj-tabelon/rentalrabbit/internal/repository"
	"github.com/rj-tabelon/rentalrabbit/internal/schedule"
)

// Publisher is satisfied by *events.Hub.
type Publisher interface {
	Publish(msg events.Message, userIDs ...string)
}

type ApplicationHandler struct {
	applications repository.ApplicationRepository
	publisher    Publisher
	now          func() time.Time
	Responder
}

func NewApplicationHandler(applications repository.ApplicationRepository, publisher Publisher, r Responder) *ApplicationHandler {
	return &ApplicationHandler{
		applications: applications,
		publisher:    publisher,
		now:          time.Now,
		Responder:    r,
	}
}

type createApplicationRequest struct {
	PropertyID      int64      `json:"propertyId" binding:"required"`
	TenantCognitoID string     `json:"tenantCognitoId"`
	Name            string     `json:"name" binding:"required"`
	Email           string     `json:"email" binding:"required"`
	PhoneNumber     string     `json:"phoneNumber"`
	Message         *string    `json:"message"`
	ApplicationDate *time.Time `json:"applicationDate"`
}

// Create handles POST /applications. The applicant is always the caller;
// a tenantCognitoId naming anyone else is refused.
func (h *ApplicationHandler) Create(c *gin.Context) {
	var req createApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "propertyId, name and email are required")
		return
	}

	tenantID := middleware.GetUserID(c)
	if req.TenantCognitoID != "" && req.TenantCognitoID != tenantID {
		h.fail(c, http.StatusForbidden, "Access Denied")
		return
	}
	now := h.now().UTC()
	appliedAt := now
	if req.ApplicationDate != nil {
		appliedAt = *req.ApplicationDate
	}

	app, err := h.applications.Create(c.Request.Context(), models.NewApplication{
		PropertyID:      req.PropertyID,
		TenantCognitoID: tenantID,
		Name:            req.Name,
		Email:           req.Email,
		PhoneNumber:     req.PhoneNumber,
		Message:         req.Message,
		ApplicationDate: appliedAt,
		LeaseStart:      now,
	})
	if err != nil {
		h.notFoundOr(c, "creating application", err)
		return
	}

	msg, recipients := events.ApplicationMessage(events.TypeApplicationCreated, app)
	h.publisher.Publish(msg, recipients...)
	c.JSON(http.StatusCreated, app)
}

type updateStatusRequest struct {
	Status models.ApplicationStatus `json:"status" binding:"required"`
}

// UpdateStatus handles PUT /applications/:id/status
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.fail(c, http.StatusBadRequest, "Invalid application id")
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "status is required")
		return
	}
	if req.Status != models.ApplicationApproved && req.Status != models.ApplicationDenied {
		h.fail(c, http.StatusBadRequest, "status must be Approved or Denied")
		return
	}

	app, err := h.applications.UpdateStatus(c.Request.Context(), id, req.Status, h.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrApplicationClosed) {
			h.fail(c, http.StatusConflict, "Application has already been decided")
			return
		}
		h.notFoundOr(c, "updating application status", err)
		return
	}

	msg, recipients := events.ApplicationMessage(events.TypeApplicationStatusChanged, app)
	h.publisher.Publish(msg, recipients...)
	c.JSON(http.StatusOK, app)
}

// List handles GET /applications?userId=&userType=
//
// Each application carries the latest lease for its tenant and property,
// with the next payment date filled in.
func (h *ApplicationHandler) List(c *gin.Context) {
	filter := models.ApplicationFilter{
		UserID:   c.Query("userId"),
		UserType: c.Query("userType"),
	}
	switch filter.UserType {
	case "", middleware.RoleTenant, middleware.RoleManager:
	default:
		h.fail(c, http.StatusBadRequest, "userType must be tenant or manager")
		return
	}

	applications, err := h.applications.List(c.Request.Context(), filter)
	if err != nil {
		h.serverError(c, "retrieving applications", err)
		return
	}

	now := h.now()
	for i := range applications {
		if l := applications[i].Lease; l != nil {
			next := schedule.NextPaymentDate(l.StartDate, now)
			l.NextPaymentDate = &next
		}
	}

	c.JSON(http.StatusOK, applications)
}
