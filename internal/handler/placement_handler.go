package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dimasfarhan/ppl-placement-api/internal/models"
	"github.com/dimasfarhan/ppl-placement-api/internal/service"
	appErrors "github.com/dimasfarhan/ppl-placement-api/pkg/errors"
	"github.com/dimasfarhan/ppl-placement-api/pkg/export"
	"github.com/dimasfarhan/ppl-placement-api/pkg/response"
)

// PlacementHandler exposes placement lifecycle endpoints.
type PlacementHandler struct {
	placements  *service.PlacementService
	supervisors *service.SupervisorService
	csv         *export.CSVExporter
}

// NewPlacementHandler constructs PlacementHandler.
func NewPlacementHandler(placements *service.PlacementService, supervisors *service.SupervisorService, csv *export.CSVExporter) *PlacementHandler {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	return &PlacementHandler{placements: placements, supervisors: supervisors, csv: csv}
}

// List godoc
// @Summary List placements
// @Tags Placements
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param locationId query string false "Filter by location"
// @Param supervisorId query string false "Filter by supervisor"
// @Param periodId query string false "Filter by period"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /placements [get]
func (h *PlacementHandler) List(c *gin.Context) {
	filter, err := h.filterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	placements, pagination, err := h.placements.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, placements, pagination)
}

// Get godoc
// @Summary Get placement
// @Tags Placements
// @Produce json
// @Param id path string true "Placement ID"
// @Success 200 {object} response.Envelope
// @Router /placements/{id} [get]
func (h *PlacementHandler) Get(c *gin.Context) {
	placement, err := h.placements.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent && placement.StudentID != claims.UserID {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	response.JSON(c, http.StatusOK, placement, nil)
}

// Assign godoc
// @Summary Assign placement
// @Tags Placements
// @Accept json
// @Produce json
// @Param payload body service.AssignPlacementRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /placements [post]
func (h *PlacementHandler) Assign(c *gin.Context) {
	var req service.AssignPlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	actorStudentID := ""
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent {
		actorStudentID = claims.UserID
	}
	placement, err := h.placements.Assign(c.Request.Context(), req, actorStudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, placement)
}

// Approve godoc
// @Summary Activate pending placement
// @Tags Placements
// @Accept json
// @Produce json
// @Param id path string true "Placement ID"
// @Success 200 {object} response.Envelope
// @Router /placements/{id}/approve [put]
func (h *PlacementHandler) Approve(c *gin.Context) {
	var payload struct {
		Version int `json:"version"`
	}
	// The body is optional; omitting it skips the version check.
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	placement, err := h.placements.Approve(c.Request.Context(), c.Param("id"), payload.Version)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, placement, nil)
}

// ChangeSupervisor godoc
// @Summary Reassign placement supervisor
// @Tags Placements
// @Accept json
// @Produce json
// @Param id path string true "Placement ID"
// @Param payload body service.ChangeSupervisorRequest true "Change payload"
// @Success 200 {object} response.Envelope
// @Router /placements/{id}/supervisor [put]
func (h *PlacementHandler) ChangeSupervisor(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.ChangeSupervisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	placement, err := h.placements.ChangeSupervisor(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, placement, nil)
}

// ChangeLocation godoc
// @Summary Move placement to another location
// @Tags Placements
// @Accept json
// @Produce json
// @Param id path string true "Placement ID"
// @Param payload body service.ChangeLocationRequest true "Change payload"
// @Success 200 {object} response.Envelope
// @Router /placements/{id}/location [put]
func (h *PlacementHandler) ChangeLocation(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.ChangeLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	placement, err := h.placements.ChangeLocation(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, placement, nil)
}

// Cancel godoc
// @Summary Cancel placement
// @Tags Placements
// @Accept json
// @Produce json
// @Param id path string true "Placement ID"
// @Param payload body service.CancelPlacementRequest true "Cancellation payload"
// @Success 200 {object} response.Envelope
// @Router /placements/{id}/cancel [put]
func (h *PlacementHandler) Cancel(c *gin.Context) {
	var req service.CancelPlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	placement, err := h.placements.Cancel(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, placement, nil)
}

// History godoc
// @Summary List placement reassignment history
// @Tags Placements
// @Produce json
// @Param id path string true "Placement ID"
// @Success 200 {object} response.Envelope
// @Router /placements/{id}/history [get]
func (h *PlacementHandler) History(c *gin.Context) {
	changes, err := h.placements.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, changes, nil)
}

// ExportCSV godoc
// @Summary Export placements as CSV
// @Tags Placements
// @Produce text/csv
// @Success 200 {string} string "CSV payload"
// @Router /placements/export [get]
func (h *PlacementHandler) ExportCSV(c *gin.Context) {
	filter, err := h.filterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	dataset, err := h.placements.ExportDataset(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeCSV(c, h.csv, "placements.csv", dataset)
}

func (h *PlacementHandler) filterFromQuery(c *gin.Context) (models.PlacementFilter, error) {
	var filter models.PlacementFilter
	filter.StudentID = c.Query("studentId")
	filter.LocationID = c.Query("locationId")
	filter.SupervisorID = c.Query("supervisorId")
	filter.PeriodID = c.Query("periodId")
	filter.Status = models.PlacementStatus(strings.ToUpper(c.Query("status")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	claims := claimsFromContext(c)
	if claims == nil {
		return filter, nil
	}
	switch claims.Role {
	case models.RoleStudent:
		filter.StudentID = claims.UserID
	case models.RoleSupervisor:
		supervisor, err := h.supervisors.GetByUser(c.Request.Context(), claims.UserID)
		if err != nil {
			return filter, err
		}
		filter.SupervisorID = supervisor.ID
	}
	return filter, nil
}
