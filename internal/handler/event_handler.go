package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/smansa-dev/portal-api/internal/dto"
	"github.com/smansa-dev/portal-api/internal/models"
	"github.com/smansa-dev/portal-api/internal/service"
	appErrors "github.com/smansa-dev/portal-api/pkg/errors"
	"github.com/smansa-dev/portal-api/pkg/export"
	"github.com/smansa-dev/portal-api/pkg/response"
)

type eventService interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, *models.Pagination, error)
	ListAll(ctx context.Context, actor *models.JWTClaims, filter models.EventFilter) ([]models.Event, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Event, error)
	GetAny(ctx context.Context, actor *models.JWTClaims, id string) (*models.Event, error)
	Create(ctx context.Context, actor *models.JWTClaims, input service.CreateEventInput) (*models.Event, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, input service.UpdateEventInput) (*models.Event, error)
	Toggle(ctx context.Context, actor *models.JWTClaims, id, flag string) (*models.Event, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
	ExportDataset(ctx context.Context, actor *models.JWTClaims) (*export.Dataset, error)
}

// EventHandler manages event HTTP endpoints.
type EventHandler struct {
	service eventService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
}

// NewEventHandler constructs the handler.
func NewEventHandler(service eventService, csv *export.CSVExporter, pdf *export.PDFExporter) *EventHandler {
	return &EventHandler{service: service, csv: csv, pdf: pdf}
}

func eventFilterFromQuery(c *gin.Context) models.EventFilter {
	filter := models.EventFilter{Search: strings.TrimSpace(c.Query("search"))}
	if status := c.Query("status"); status != "" {
		filter.Status = models.EventStatus(strings.ToUpper(status))
	}
	if timeframe := c.Query("timeframe"); timeframe != "" {
		filter.Timeframe = models.EventTimeframe(strings.ToLower(timeframe))
	}
	if raw := c.Query("featured"); raw != "" {
		if featured, err := strconv.ParseBool(raw); err == nil {
			filter.Featured = &featured
		}
	}
	filter.Page, filter.PageSize = paginationParams(c)
	return filter
}

// List godoc
// @Summary List published events
// @Tags Events
// @Produce json
// @Param status query string false "Status filter"
// @Param timeframe query string false "upcoming or past"
// @Param featured query bool false "Featured filter"
// @Param search query string false "Title/description search"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	events, pagination, err := h.service.List(c.Request.Context(), eventFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Get godoc
// @Summary Get a published event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// AdminList godoc
// @Summary List all events including drafts
// @Tags Admin Events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/events [get]
func (h *EventHandler) AdminList(c *gin.Context) {
	events, pagination, err := h.service.ListAll(c.Request.Context(), claimsFromContext(c), eventFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// AdminGet godoc
// @Summary Get any event including drafts
// @Tags Admin Events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /admin/events/{id} [get]
func (h *EventHandler) AdminGet(c *gin.Context) {
	event, err := h.service.GetAny(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Create godoc
// @Summary Create an event
// @Tags Admin Events
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param status formData string true "Status"
// @Param startDate formData string true "Start date"
// @Param endDate formData string true "End date"
// @Param isPublished formData bool false "Published flag"
// @Param isFeatured formData bool false "Featured flag"
// @Param attachment formData file false "Image attachment"
// @Success 201 {object} response.Envelope
// @Router /admin/events [post]
func (h *EventHandler) Create(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid event payload"))
		return
	}
	input := service.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.EventStatus(strings.ToUpper(req.Status)),
		IsPublished: req.IsPublished,
		IsFeatured:  req.IsFeatured,
	}
	start, err := parseDateParam("start_date", req.StartDate)
	if err != nil {
		response.Error(c, err)
		return
	}
	end, err := parseDateParam("end_date", req.EndDate)
	if err != nil {
		response.Error(c, err)
		return
	}
	if start != nil {
		input.StartDate = *start
	}
	if end != nil {
		input.EndDate = *end
	}
	upload, err := formUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	input.Attachment = upload

	event, err := h.service.Create(c.Request.Context(), claimsFromContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Update an event
// @Tags Admin Events
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /admin/events/{id} [patch]
func (h *EventHandler) Update(c *gin.Context) {
	var req dto.UpdateEventRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid event payload"))
		return
	}
	input := service.UpdateEventInput{
		Title:            req.Title,
		Description:      req.Description,
		IsPublished:      req.IsPublished,
		IsFeatured:       req.IsFeatured,
		RemoveAttachment: req.RemoveAttachment,
	}
	if req.Status != nil {
		status := models.EventStatus(strings.ToUpper(*req.Status))
		input.Status = &status
	}
	if req.StartDate != nil {
		start, err := parseDateParam("start_date", *req.StartDate)
		if err != nil {
			response.Error(c, err)
			return
		}
		input.StartDate = start
	}
	if req.EndDate != nil {
		end, err := parseDateParam("end_date", *req.EndDate)
		if err != nil {
			response.Error(c, err)
			return
		}
		input.EndDate = end
	}
	upload, err := formUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	input.Attachment = upload

	event, err := h.service.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Toggle godoc
// @Summary Toggle an event flag
// @Tags Admin Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /admin/events/{id}/toggle [patch]
func (h *EventHandler) Toggle(c *gin.Context) {
	var req dto.ToggleRequest
	if err := c.ShouldBind(&req); err != nil || strings.TrimSpace(req.Flag) == "" {
		response.Error(c, appErrors.Validation("flag", "flag is required"))
		return
	}
	event, err := h.service.Toggle(c.Request.Context(), claimsFromContext(c), c.Param("id"), req.Flag)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Delete godoc
// @Summary Delete an event
// @Tags Admin Events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 204
// @Router /admin/events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export events as CSV or PDF
// @Tags Admin Events
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Success 200
// @Router /admin/events/export [get]
func (h *EventHandler) Export(c *gin.Context) {
	dataset, err := h.service.ExportDataset(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	renderExport(c, dataset, "events", h.csv, h.pdf)
}
