package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dimasfarhan/ppl-placement-api/internal/models"
	"github.com/dimasfarhan/ppl-placement-api/internal/service"
	appErrors "github.com/dimasfarhan/ppl-placement-api/pkg/errors"
	"github.com/dimasfarhan/ppl-placement-api/pkg/response"
)

// DashboardHandler exposes role-specific dashboards.
type DashboardHandler struct {
	dashboards  *service.DashboardService
	supervisors *service.SupervisorService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboards *service.DashboardService, supervisors *service.SupervisorService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards, supervisors: supervisors}
}

// Me godoc
// @Summary Role-specific dashboard for the current user
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	switch claims.Role {
	case models.RoleAdmin:
		stats, err := h.dashboards.AdminStats(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, stats, nil)
	case models.RoleSupervisor:
		supervisor, err := h.supervisors.GetByUser(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		dashboard, err := h.dashboards.SupervisorDashboard(c.Request.Context(), supervisor.ID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, dashboard, nil)
	default:
		dashboard, err := h.dashboards.StudentDashboard(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, dashboard, nil)
	}
}

// AdminStats godoc
// @Summary Aggregate program statistics
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/stats [get]
func (h *DashboardHandler) AdminStats(c *gin.Context) {
	stats, err := h.dashboards.AdminStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
