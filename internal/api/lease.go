package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rj-tabelon/rentalrabbit/internal/repository"
)

type LeaseHandler struct {
	leases repository.LeaseRepository
	Responder
}

func NewLeaseHandler(leases repository.LeaseRepository, r Responder) *LeaseHandler {
	return &LeaseHandler{leases: leases, Responder: r}
}

// List handles GET /leases
func (h *LeaseHandler) List(c *gin.Context) {
	leases, err := h.leases.List(c.Request.Context())
	if err != nil {
		h.serverError(c, "retrieving leases", err)
		return
	}
	c.JSON(http.StatusOK, leases)
}

// Payments handles GET /leases/:id/payments
func (h *LeaseHandler) Payments(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.fail(c, http.StatusBadRequest, "Invalid lease id")
		return
	}

	payments, err := h.leases.ListPayments(c.Request.Context(), id)
	if err != nil {
		h.serverError(c, "retrieving lease payments", err)
		return
	}
	c.JSON(http.StatusOK, payments)
}
