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

// RegistrationHandler exposes registration endpoints.
type RegistrationHandler struct {
	registrations *service.RegistrationService
	csv           *export.CSVExporter
}

// NewRegistrationHandler constructs RegistrationHandler.
func NewRegistrationHandler(registrations *service.RegistrationService, csv *export.CSVExporter) *RegistrationHandler {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	return &RegistrationHandler{registrations: registrations, csv: csv}
}

// List godoc
// @Summary List registrations
// @Tags Registrations
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param periodId query string false "Filter by period"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /registrations [get]
func (h *RegistrationHandler) List(c *gin.Context) {
	filter := h.filterFromQuery(c)

	registrations, pagination, err := h.registrations.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registrations, pagination)
}

// Get godoc
// @Summary Get registration
// @Tags Registrations
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Router /registrations/{id} [get]
func (h *RegistrationHandler) Get(c *gin.Context) {
	registration, err := h.registrations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent && registration.StudentID != claims.UserID {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	response.JSON(c, http.StatusOK, registration, nil)
}

// Create godoc
// @Summary Register for a period
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body service.CreateRegistrationRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Router /registrations [post]
func (h *RegistrationHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	registration, err := h.registrations.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, registration)
}

// UpdateDocuments godoc
// @Summary Update registration documents
// @Tags Registrations
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body service.UpdateDocumentsRequest true "Document flags"
// @Success 200 {object} response.Envelope
// @Router /registrations/{id}/documents [patch]
func (h *RegistrationHandler) UpdateDocuments(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	studentID := claims.UserID
	if claims.Role == models.RoleAdmin {
		studentID = ""
	}
	registration, err := h.registrations.UpdateDocuments(c.Request.Context(), c.Param("id"), studentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registration, nil)
}

// Approve godoc
// @Summary Approve registration
// @Tags Registrations
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Router /registrations/{id}/approve [put]
func (h *RegistrationHandler) Approve(c *gin.Context) {
	registration, err := h.registrations.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registration, nil)
}

// Reject godoc
// @Summary Reject registration
// @Tags Registrations
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Router /registrations/{id}/reject [put]
func (h *RegistrationHandler) Reject(c *gin.Context) {
	registration, err := h.registrations.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registration, nil)
}

// ExportCSV godoc
// @Summary Export registrations as CSV
// @Tags Registrations
// @Produce text/csv
// @Success 200 {string} string "CSV payload"
// @Router /registrations/export [get]
func (h *RegistrationHandler) ExportCSV(c *gin.Context) {
	filter := h.filterFromQuery(c)
	dataset, err := h.registrations.ExportDataset(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeCSV(c, h.csv, "registrations.csv", dataset)
}

func (h *RegistrationHandler) filterFromQuery(c *gin.Context) models.RegistrationFilter {
	var filter models.RegistrationFilter
	filter.StudentID = c.Query("studentId")
	filter.PeriodID = c.Query("periodId")
	filter.Status = models.RegistrationStatus(strings.ToUpper(c.Query("status")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	// students only ever see their own registrations
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent {
		filter.StudentID = claims.UserID
	}
	return filter
}
