package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rj-tabelon/rentalrabbit/internal/events"
	"github.com/rj-tabelon/rentalrabbit/internal/middleware"
	"github.com/rj-tabelon/rentalrabbit/internal/observ"
	"go.uber.org/zap"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Managers     *ManagerHandler
	Tenants      *TenantHandler
	Properties   *PropertyHandler
	Applications *ApplicationHandler
	Leases       *LeaseHandler

	DB  Pinger
	Hub *events.Hub
}

// NewRouter builds the engine with logging, metrics and the role gates.
//
//	/properties      GET public, POST manager
//	/managers/**     manager
//	/tenants/**      tenant, only the caller's own /:cognitoId
//	/applications    GET either, POST tenant, PUT /:id/status manager
//	/leases/**       either
//	/ws              either
func NewRouter(h Handlers, verifier middleware.TokenVerifier, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.Metrics())

	tenantOnly := middleware.RequireRoles(verifier, middleware.RoleTenant)
	managerOnly := middleware.RequireRoles(verifier, middleware.RoleManager)
	either := middleware.RequireRoles(verifier, middleware.RoleTenant, middleware.RoleManager)

	r.GET("/health", Health(h.DB, logger))
	r.GET("/metrics", gin.WrapH(observ.MetricsHandler()))

	properties := r.Group("/properties")
	properties.GET("", h.Properties.Search)
	properties.GET("/:id", h.Properties.Get)
	properties.POST("", managerOnly, h.Properties.Create)

	managers := r.Group("/managers", managerOnly)
	managers.POST("", h.Managers.Create)
	managers.GET("/:cognitoId", h.Managers.Get)
	managers.PUT("/:cognitoId", h.Managers.Update)
	managers.GET("/:cognitoId/properties", h.Managers.Properties)

	tenants := r.Group("/tenants", tenantOnly)
	tenants.POST("", h.Tenants.Create)

	tenant := tenants.Group("/:cognitoId", middleware.RequireSelf("cognitoId"))
	tenant.GET("", h.Tenants.Get)
	tenant.PUT("", h.Tenants.Update)
	tenant.GET("/residences", h.Tenants.Residences)
	tenant.POST("/favorites/:propertyId", h.Tenants.AddFavorite)
	tenant.DELETE("/favorites/:propertyId", h.Tenants.RemoveFavorite)

	applications := r.Group("/applications")
	applications.GET("", either, h.Applications.List)
	applications.POST("", tenantOnly, h.Applications.Create)
	applications.PUT("/:id/status", managerOnly, h.Applications.UpdateStatus)

	leases := r.Group("/leases", either)
	leases.GET("", h.Leases.List)
	leases.GET("/:id/payments", h.Leases.Payments)

	if h.Hub != nil {
		r.GET("/ws", either, Events(h.Hub, logger))
	}

	return r
}
