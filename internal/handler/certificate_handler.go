package handler

import (
	"fmt"
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

// CertificateHandler exposes certificate endpoints.
type CertificateHandler struct {
	certificates *service.CertificateService
	csv          *export.CSVExporter
}

// NewCertificateHandler constructs CertificateHandler.
func NewCertificateHandler(certificates *service.CertificateService, csv *export.CSVExporter) *CertificateHandler {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	return &CertificateHandler{certificates: certificates, csv: csv}
}

// List godoc
// @Summary List certificates
// @Tags Certificates
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /certificates [get]
func (h *CertificateHandler) List(c *gin.Context) {
	filter := h.filterFromQuery(c)

	certificates, pagination, err := h.certificates.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, certificates, pagination)
}

// Get godoc
// @Summary Get certificate
// @Tags Certificates
// @Produce json
// @Param id path string true "Certificate ID"
// @Success 200 {object} response.Envelope
// @Router /certificates/{id} [get]
func (h *CertificateHandler) Get(c *gin.Context) {
	certificate, err := h.certificates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent && certificate.StudentID != claims.UserID {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	response.JSON(c, http.StatusOK, certificate, nil)
}

// IssueForPlacement godoc
// @Summary Issue certificate for a completed placement
// @Tags Certificates
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /certificates/issue [post]
func (h *CertificateHandler) IssueForPlacement(c *gin.Context) {
	var payload struct {
		PlacementID string `json:"placement_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "placement id required"))
		return
	}
	certificate, err := h.certificates.IssueForPlacement(c.Request.Context(), payload.PlacementID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, certificate, nil)
}

// Issue godoc
// @Summary Issue pending certificate
// @Tags Certificates
// @Produce json
// @Param id path string true "Certificate ID"
// @Success 200 {object} response.Envelope
// @Router /certificates/{id}/issue [put]
func (h *CertificateHandler) Issue(c *gin.Context) {
	certificate, err := h.certificates.Issue(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, certificate, nil)
}

// Revoke godoc
// @Summary Revoke issued certificate
// @Tags Certificates
// @Produce json
// @Param id path string true "Certificate ID"
// @Success 200 {object} response.Envelope
// @Router /certificates/{id}/revoke [put]
func (h *CertificateHandler) Revoke(c *gin.Context) {
	certificate, err := h.certificates.Revoke(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, certificate, nil)
}

// Reissue godoc
// @Summary Reissue revoked certificate
// @Tags Certificates
// @Produce json
// @Param id path string true "Certificate ID"
// @Success 200 {object} response.Envelope
// @Router /certificates/{id}/reissue [put]
func (h *CertificateHandler) Reissue(c *gin.Context) {
	certificate, err := h.certificates.Reissue(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, certificate, nil)
}

// Download godoc
// @Summary Download certificate PDF
// @Tags Certificates
// @Produce application/pdf
// @Param id path string true "Certificate ID"
// @Success 200 {string} string "PDF payload"
// @Router /certificates/{id}/download [get]
func (h *CertificateHandler) Download(c *gin.Context) {
	studentID := ""
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent {
		studentID = claims.UserID
	}
	payload, filename, err := h.certificates.Download(c.Request.Context(), c.Param("id"), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", payload)
}

// ExportCSV godoc
// @Summary Export certificates as CSV
// @Tags Certificates
// @Produce text/csv
// @Success 200 {string} string "CSV payload"
// @Router /certificates/export [get]
func (h *CertificateHandler) ExportCSV(c *gin.Context) {
	filter := h.filterFromQuery(c)
	dataset, err := h.certificates.ExportDataset(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeCSV(c, h.csv, "certificates.csv", dataset)
}

func (h *CertificateHandler) filterFromQuery(c *gin.Context) models.CertificateFilter {
	var filter models.CertificateFilter
	filter.StudentID = c.Query("studentId")
	filter.Status = models.CertificateStatus(strings.ToUpper(c.Query("status")))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent {
		filter.StudentID = claims.UserID
	}
	return filter
}
