package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/smansa-dev/portal-api/internal/dto"
	"github.com/smansa-dev/portal-api/internal/models"
	appErrors "github.com/smansa-dev/portal-api/pkg/errors"
	"github.com/smansa-dev/portal-api/pkg/response"
)

type attachmentService interface {
	Get(ctx context.Context, id string) (*models.Attachment, error)
	Open(ctx context.Context, attachment *models.Attachment) (io.ReadCloser, error)
	DownloadURL(ctx context.Context, attachment *models.Attachment) (string, error)
	ParseDownloadToken(attachmentID, token string) error
}

// AttachmentHandler serves attachment bytes and download links.
type AttachmentHandler struct {
	service attachmentService
}

// NewAttachmentHandler constructs the handler.
func NewAttachmentHandler(service attachmentService) *AttachmentHandler {
	return &AttachmentHandler{service: service}
}

// Download godoc
// @Summary Download an attachment using a signed token
// @Tags Attachments
// @Produce octet-stream
// @Param id path string true "Attachment ID"
// @Param token query string true "Signed download token"
// @Success 200
// @Router /attachments/{id}/download [get]
func (h *AttachmentHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Validation("token", "token is required"))
		return
	}
	id := c.Param("id")
	if err := h.service.ParseDownloadToken(id, token); err != nil {
		response.Error(c, err)
		return
	}
	attachment, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.service.Open(c.Request.Context(), attachment)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, attachment.SizeBytes, attachment.MimeType, file, nil)
}

// DownloadURL godoc
// @Summary Get a temporary download URL for an attachment
// @Tags Admin Attachments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Attachment ID"
// @Success 200 {object} response.Envelope
// @Router /admin/attachments/{id}/url [get]
func (h *AttachmentHandler) DownloadURL(c *gin.Context) {
	attachment, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	url, err := h.service.DownloadURL(c.Request.Context(), attachment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.AttachmentDownloadResponse{
		AttachmentID: attachment.ID,
		DownloadURL:  url,
	}, nil)
}
