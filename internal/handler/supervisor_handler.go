package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dimasfarhan/ppl-placement-api/internal/models"
	"github.com/dimasfarhan/ppl-placement-api/internal/service"
	appErrors "github.com/dimasfarhan/ppl-placement-api/pkg/errors"
	"github.com/dimasfarhan/ppl-placement-api/pkg/response"
)

// SupervisorHandler exposes supervisor management endpoints.
type SupervisorHandler struct {
	supervisors *service.SupervisorService
}

// NewSupervisorHandler constructs SupervisorHandler.
func NewSupervisorHandler(supervisors *service.SupervisorService) *SupervisorHandler {
	return &SupervisorHandler{supervisors: supervisors}
}

// List godoc
// @Summary List supervisors with current load
// @Tags Supervisors
// @Produce json
// @Param locationId query string false "Filter by location"
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /supervisors [get]
func (h *SupervisorHandler) List(c *gin.Context) {
	var filter models.SupervisorFilter
	filter.LocationID = c.Query("locationId")
	filter.Search = c.Query("search")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	supervisors, pagination, err := h.supervisors.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, supervisors, pagination)
}

// Get godoc
// @Summary Get supervisor
// @Tags Supervisors
// @Produce json
// @Param id path string true "Supervisor ID"
// @Success 200 {object} response.Envelope
// @Router /supervisors/{id} [get]
func (h *SupervisorHandler) Get(c *gin.Context) {
	supervisor, err := h.supervisors.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, supervisor, nil)
}

// Create godoc
// @Summary Create supervisor profile
// @Tags Supervisors
// @Accept json
// @Produce json
// @Param payload body service.SupervisorRequest true "Supervisor payload"
// @Success 201 {object} response.Envelope
// @Router /supervisors [post]
func (h *SupervisorHandler) Create(c *gin.Context) {
	var req service.SupervisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	supervisor, err := h.supervisors.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, supervisor)
}

// Update godoc
// @Summary Update supervisor profile
// @Tags Supervisors
// @Accept json
// @Produce json
// @Param id path string true "Supervisor ID"
// @Param payload body service.SupervisorRequest true "Supervisor payload"
// @Success 200 {object} response.Envelope
// @Router /supervisors/{id} [put]
func (h *SupervisorHandler) Update(c *gin.Context) {
	var req service.SupervisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	supervisor, err := h.supervisors.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, supervisor, nil)
}
