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

type classGroupService interface {
	List(ctx context.Context, filter models.ClassGroupFilter) ([]models.ClassGroup, *models.Pagination, error)
	ListAll(ctx context.Context, actor *models.JWTClaims, filter models.ClassGroupFilter) ([]models.ClassGroup, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.ClassGroup, error)
	GetAny(ctx context.Context, actor *models.JWTClaims, id string) (*models.ClassGroup, error)
	Create(ctx context.Context, actor *models.JWTClaims, input service.CreateClassGroupInput) (*models.ClassGroup, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, input service.UpdateClassGroupInput) (*models.ClassGroup, error)
	Toggle(ctx context.Context, actor *models.JWTClaims, id, flag string) (*models.ClassGroup, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
	ExportDataset(ctx context.Context, actor *models.JWTClaims) (*export.Dataset, error)
}

// ClassGroupHandler manages class group HTTP endpoints.
type ClassGroupHandler struct {
	service classGroupService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
}

// NewClassGroupHandler constructs the handler.
func NewClassGroupHandler(service classGroupService, csv *export.CSVExporter, pdf *export.PDFExporter) *ClassGroupHandler {
	return &ClassGroupHandler{service: service, csv: csv, pdf: pdf}
}

func classGroupFilterFromQuery(c *gin.Context) models.ClassGroupFilter {
	filter := models.ClassGroupFilter{Search: strings.TrimSpace(c.Query("search"))}
	if raw := c.Query("graduationYear"); raw != "" {
		if year, err := strconv.Atoi(raw); err == nil {
			filter.GraduationYear = year
		}
	}
	filter.Page, filter.PageSize = paginationParams(c)
	return filter
}

// List godoc
// @Summary List public class groups
// @Tags Class Groups
// @Produce json
// @Param graduationYear query int false "Graduation year filter"
// @Param search query string false "Name/description search"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /class-groups [get]
func (h *ClassGroupHandler) List(c *gin.Context) {
	groups, pagination, err := h.service.List(c.Request.Context(), classGroupFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, pagination)
}

// Get godoc
// @Summary Get a public class group
// @Tags Class Groups
// @Produce json
// @Param id path string true "Class group ID"
// @Success 200 {object} response.Envelope
// @Router /class-groups/{id} [get]
func (h *ClassGroupHandler) Get(c *gin.Context) {
	group, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// AdminList godoc
// @Summary List all class groups including private ones
// @Tags Admin Class Groups
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/class-groups [get]
func (h *ClassGroupHandler) AdminList(c *gin.Context) {
	groups, pagination, err := h.service.ListAll(c.Request.Context(), claimsFromContext(c), classGroupFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, pagination)
}

// AdminGet godoc
// @Summary Get any class group
// @Tags Admin Class Groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class group ID"
// @Success 200 {object} response.Envelope
// @Router /admin/class-groups/{id} [get]
func (h *ClassGroupHandler) AdminGet(c *gin.Context) {
	group, err := h.service.GetAny(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Create godoc
// @Summary Create a class group
// @Tags Admin Class Groups
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param name formData string true "Name"
// @Param description formData string false "Description"
// @Param graduationYear formData int true "Graduation year"
// @Param isPublic formData bool false "Public flag"
// @Param attachment formData file false "Image attachment"
// @Success 201 {object} response.Envelope
// @Router /admin/class-groups [post]
func (h *ClassGroupHandler) Create(c *gin.Context) {
	var req dto.CreateClassGroupRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid class group payload"))
		return
	}
	input := service.CreateClassGroupInput{
		Name:           req.Name,
		Description:    req.Description,
		GraduationYear: req.GraduationYear,
		IsPublic:       req.IsPublic,
	}
	upload, err := formUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	input.Attachment = upload

	group, err := h.service.Create(c.Request.Context(), claimsFromContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// Update godoc
// @Summary Update a class group
// @Tags Admin Class Groups
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class group ID"
// @Success 200 {object} response.Envelope
// @Router /admin/class-groups/{id} [patch]
func (h *ClassGroupHandler) Update(c *gin.Context) {
	var req dto.UpdateClassGroupRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid class group payload"))
		return
	}
	input := service.UpdateClassGroupInput{
		Name:             req.Name,
		Description:      req.Description,
		GraduationYear:   req.GraduationYear,
		IsPublic:         req.IsPublic,
		RemoveAttachment: req.RemoveAttachment,
	}
	upload, err := formUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	input.Attachment = upload

	group, err := h.service.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Toggle godoc
// @Summary Toggle a class group flag
// @Tags Admin Class Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class group ID"
// @Success 200 {object} response.Envelope
// @Router /admin/class-groups/{id}/toggle [patch]
func (h *ClassGroupHandler) Toggle(c *gin.Context) {
	var req dto.ToggleRequest
	if err := c.ShouldBind(&req); err != nil || strings.TrimSpace(req.Flag) == "" {
		response.Error(c, appErrors.Validation("flag", "flag is required"))
		return
	}
	group, err := h.service.Toggle(c.Request.Context(), claimsFromContext(c), c.Param("id"), req.Flag)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Delete godoc
// @Summary Delete a class group
// @Tags Admin Class Groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class group ID"
// @Success 204
// @Router /admin/class-groups/{id} [delete]
func (h *ClassGroupHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export class groups as CSV or PDF
// @Tags Admin Class Groups
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Success 200
// @Router /admin/class-groups/export [get]
func (h *ClassGroupHandler) Export(c *gin.Context) {
	dataset, err := h.service.ExportDataset(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	renderExport(c, dataset, "class_groups", h.csv, h.pdf)
}
