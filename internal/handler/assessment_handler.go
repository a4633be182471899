package handler

import (
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

// AssessmentHandler exposes assessment endpoints.
type AssessmentHandler struct {
	assessments *service.AssessmentService
	supervisors *service.SupervisorService
	csv         *export.CSVExporter
}

// NewAssessmentHandler constructs AssessmentHandler.
func NewAssessmentHandler(assessments *service.AssessmentService, supervisors *service.SupervisorService, csv *export.CSVExporter) *AssessmentHandler {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	return &AssessmentHandler{assessments: assessments, supervisors: supervisors, csv: csv}
}

// actorSupervisorID resolves the supervisor profile behind the caller, or ""
// for admins who act on any assessment.
func (h *AssessmentHandler) actorSupervisorID(c *gin.Context) (string, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return "", appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleSupervisor {
		return "", nil
	}
	supervisor, err := h.supervisors.GetByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		return "", err
	}
	return supervisor.ID, nil
}

// List godoc
// @Summary List assessments
// @Tags Assessments
// @Produce json
// @Param placementId query string false "Filter by placement"
// @Param type query string false "Filter by type"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /assessments [get]
func (h *AssessmentHandler) List(c *gin.Context) {
	var filter models.AssessmentFilter
	filter.PlacementID = c.Query("placementId")
	filter.Type = models.AssessmentType(strings.ToUpper(c.Query("type")))
	filter.Status = models.AssessmentStatus(strings.ToUpper(c.Query("status")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleSupervisor {
		supervisor, err := h.supervisors.GetByUser(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.SupervisorID = supervisor.ID
	}

	assessments, pagination, err := h.assessments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessments, pagination)
}

// Get godoc
// @Summary Get assessment
// @Tags Assessments
// @Produce json
// @Param id path string true "Assessment ID"
// @Success 200 {object} response.Envelope
// @Router /assessments/{id} [get]
func (h *AssessmentHandler) Get(c *gin.Context) {
	supervisorID, err := h.actorSupervisorID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	assessment, err := h.assessments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if supervisorID != "" && assessment.SupervisorID != supervisorID {
		response.Error(c, appErrors.ErrNotAssigned)
		return
	}
	response.JSON(c, http.StatusOK, assessment, nil)
}

// Create godoc
// @Summary Create draft assessment
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body service.AssessmentDraftRequest true "Assessment payload"
// @Success 201 {object} response.Envelope
// @Router /assessments [post]
func (h *AssessmentHandler) Create(c *gin.Context) {
	supervisorID, err := h.actorSupervisorID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.AssessmentDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assessment, err := h.assessments.CreateDraft(c.Request.Context(), supervisorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assessment)
}

// Update godoc
// @Summary Update draft assessment
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Assessment ID"
// @Param payload body service.AssessmentDraftRequest true "Assessment payload"
// @Success 200 {object} response.Envelope
// @Router /assessments/{id} [put]
func (h *AssessmentHandler) Update(c *gin.Context) {
	supervisorID, err := h.actorSupervisorID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.AssessmentDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assessment, err := h.assessments.UpdateDraft(c.Request.Context(), c.Param("id"), supervisorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessment, nil)
}

// Submit godoc
// @Summary Submit assessment
// @Description Finalises a draft. Final assessments complete the placement.
// @Tags Assessments
// @Produce json
// @Param id path string true "Assessment ID"
// @Success 200 {object} response.Envelope
// @Router /assessments/{id}/submit [put]
func (h *AssessmentHandler) Submit(c *gin.Context) {
	supervisorID, err := h.actorSupervisorID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	assessment, err := h.assessments.Submit(c.Request.Context(), c.Param("id"), supervisorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessment, nil)
}

// ExportCSV godoc
// @Summary Export assessments as CSV
// @Tags Assessments
// @Produce text/csv
// @Success 200 {string} string "CSV payload"
// @Router /assessments/export [get]
func (h *AssessmentHandler) ExportCSV(c *gin.Context) {
	var filter models.AssessmentFilter
	filter.PlacementID = c.Query("placementId")
	filter.Type = models.AssessmentType(strings.ToUpper(c.Query("type")))
	filter.Status = models.AssessmentStatus(strings.ToUpper(c.Query("status")))

	dataset, err := h.assessments.ExportDataset(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeCSV(c, h.csv, "assessments.csv", dataset)
}
