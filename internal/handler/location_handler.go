package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dimasfarhan/ppl-placement-api/internal/models"
	"github.com/dimasfarhan/ppl-placement-api/internal/service"
	appErrors "github.com/dimasfarhan/ppl-placement-api/pkg/errors"
	"github.com/dimasfarhan/ppl-placement-api/pkg/response"
)

// LocationHandler exposes partner school endpoints.
type LocationHandler struct {
	locations *service.LocationService
}

// NewLocationHandler constructs LocationHandler.
func NewLocationHandler(locations *service.LocationService) *LocationHandler {
	return &LocationHandler{locations: locations}
}

// List godoc
// @Summary List locations
// @Tags Locations
// @Produce json
// @Param status query string false "Filter by status"
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /locations [get]
func (h *LocationHandler) List(c *gin.Context) {
	var filter models.LocationFilter
	filter.Status = models.LocationStatus(strings.ToUpper(c.Query("status")))
	filter.Search = c.Query("search")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	locations, pagination, err := h.locations.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, locations, pagination)
}

// Get godoc
// @Summary Get location
// @Tags Locations
// @Produce json
// @Param id path string true "Location ID"
// @Success 200 {object} response.Envelope
// @Router /locations/{id} [get]
func (h *LocationHandler) Get(c *gin.Context) {
	location, err := h.locations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, location, nil)
}

// Occupancy godoc
// @Summary List locations with active placement counts
// @Tags Locations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /locations/occupancy [get]
func (h *LocationHandler) Occupancy(c *gin.Context) {
	occupancy, err := h.locations.Occupancy(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, occupancy, nil)
}

// Create godoc
// @Summary Create location
// @Tags Locations
// @Accept json
// @Produce json
// @Param payload body service.LocationRequest true "Location payload"
// @Success 201 {object} response.Envelope
// @Router /locations [post]
func (h *LocationHandler) Create(c *gin.Context) {
	var req service.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	location, err := h.locations.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, location)
}

// Update godoc
// @Summary Update location
// @Tags Locations
// @Accept json
// @Produce json
// @Param id path string true "Location ID"
// @Param payload body service.LocationRequest true "Location payload"
// @Success 200 {object} response.Envelope
// @Router /locations/{id} [put]
func (h *LocationHandler) Update(c *gin.Context) {
	var req service.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	location, err := h.locations.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, location, nil)
}
