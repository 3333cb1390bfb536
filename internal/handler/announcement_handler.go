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

type announcementService interface {
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, *models.Pagination, error)
	ListAll(ctx context.Context, actor *models.JWTClaims, filter models.AnnouncementFilter) ([]models.Announcement, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Announcement, error)
	GetAny(ctx context.Context, actor *models.JWTClaims, id string) (*models.Announcement, error)
	Create(ctx context.Context, actor *models.JWTClaims, input service.CreateAnnouncementInput) (*models.Announcement, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, input service.UpdateAnnouncementInput) (*models.Announcement, error)
	Toggle(ctx context.Context, actor *models.JWTClaims, id, flag string) (*models.Announcement, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
	ExportDataset(ctx context.Context, actor *models.JWTClaims) (*export.Dataset, error)
}

// AnnouncementHandler manages announcement HTTP endpoints.
type AnnouncementHandler struct {
	service announcementService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
}

// NewAnnouncementHandler constructs the handler.
func NewAnnouncementHandler(service announcementService, csv *export.CSVExporter, pdf *export.PDFExporter) *AnnouncementHandler {
	return &AnnouncementHandler{service: service, csv: csv, pdf: pdf}
}

func announcementFilterFromQuery(c *gin.Context) models.AnnouncementFilter {
	filter := models.AnnouncementFilter{Search: strings.TrimSpace(c.Query("search"))}
	if category := c.Query("category"); category != "" {
		filter.Category = models.AnnouncementCategory(strings.ToUpper(category))
	}
	if raw := c.Query("pinned"); raw != "" {
		if pinned, err := strconv.ParseBool(raw); err == nil {
			filter.Pinned = &pinned
		}
	}
	filter.Page, filter.PageSize = paginationParams(c)
	return filter
}

// List godoc
// @Summary List visible announcements
// @Tags Announcements
// @Produce json
// @Param category query string false "Category filter"
// @Param pinned query bool false "Pinned filter"
// @Param search query string false "Title/body search"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	announcements, pagination, err := h.service.List(c.Request.Context(), announcementFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcements, pagination)
}

// Get godoc
// @Summary Get a visible announcement
// @Tags Announcements
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Router /announcements/{id} [get]
func (h *AnnouncementHandler) Get(c *gin.Context) {
	announcement, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcement, nil)
}

// AdminList godoc
// @Summary List all announcements including hidden ones
// @Tags Admin Announcements
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/announcements [get]
func (h *AnnouncementHandler) AdminList(c *gin.Context) {
	announcements, pagination, err := h.service.ListAll(c.Request.Context(), claimsFromContext(c), announcementFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcements, pagination)
}

// AdminGet godoc
// @Summary Get any announcement
// @Tags Admin Announcements
// @Produce json
// @Security BearerAuth
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Router /admin/announcements/{id} [get]
func (h *AnnouncementHandler) AdminGet(c *gin.Context) {
	announcement, err := h.service.GetAny(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcement, nil)
}

// Create godoc
// @Summary Create an announcement
// @Tags Admin Announcements
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param body formData string true "Body"
// @Param category formData string true "Category"
// @Param startDate formData string true "Display start"
// @Param endDate formData string false "Display end"
// @Param isPublished formData bool false "Published flag"
// @Param isPinned formData bool false "Pinned flag"
// @Param attachment formData file false "Image attachment"
// @Success 201 {object} response.Envelope
// @Router /admin/announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	var req dto.CreateAnnouncementRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid announcement payload"))
		return
	}
	input := service.CreateAnnouncementInput{
		Title:       req.Title,
		Body:        req.Body,
		Category:    models.AnnouncementCategory(strings.ToUpper(req.Category)),
		IsPublished: req.IsPublished,
		IsPinned:    req.IsPinned,
	}
	start, err := parseDateParam("start_date", req.StartDate)
	if err != nil {
		response.Error(c, err)
		return
	}
	if start != nil {
		input.StartDate = *start
	}
	end, err := parseDateParam("end_date", req.EndDate)
	if err != nil {
		response.Error(c, err)
		return
	}
	input.EndDate = end

	upload, err := formUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	input.Attachment = upload

	announcement, err := h.service.Create(c.Request.Context(), claimsFromContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, announcement)
}

// Update godoc
// @Summary Update an announcement
// @Tags Admin Announcements
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Router /admin/announcements/{id} [patch]
func (h *AnnouncementHandler) Update(c *gin.Context) {
	var req dto.UpdateAnnouncementRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid announcement payload"))
		return
	}
	input := service.UpdateAnnouncementInput{
		Title:            req.Title,
		Body:             req.Body,
		ClearEndDate:     req.ClearEndDate,
		IsPublished:      req.IsPublished,
		IsPinned:         req.IsPinned,
		RemoveAttachment: req.RemoveAttachment,
	}
	if req.Category != nil {
		category := models.AnnouncementCategory(strings.ToUpper(*req.Category))
		input.Category = &category
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

	announcement, err := h.service.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcement, nil)
}

// Toggle godoc
// @Summary Toggle an announcement flag
// @Tags Admin Announcements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Router /admin/announcements/{id}/toggle [patch]
func (h *AnnouncementHandler) Toggle(c *gin.Context) {
	var req dto.ToggleRequest
	if err := c.ShouldBind(&req); err != nil || strings.TrimSpace(req.Flag) == "" {
		response.Error(c, appErrors.Validation("flag", "flag is required"))
		return
	}
	announcement, err := h.service.Toggle(c.Request.Context(), claimsFromContext(c), c.Param("id"), req.Flag)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcement, nil)
}

// Delete godoc
// @Summary Delete an announcement
// @Tags Admin Announcements
// @Produce json
// @Security BearerAuth
// @Param id path string true "Announcement ID"
// @Success 204
// @Router /admin/announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export announcements as CSV or PDF
// @Tags Admin Announcements
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Success 200
// @Router /admin/announcements/export [get]
func (h *AnnouncementHandler) Export(c *gin.Context) {
	dataset, err := h.service.ExportDataset(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	renderExport(c, dataset, "announcements", h.csv, h.pdf)
}
