package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smansa-dev/portal-api/internal/models"
	"github.com/smansa-dev/portal-api/pkg/response"
)

type summaryService interface {
	Get(ctx context.Context) (*models.SiteSummary, error)
}

// SummaryHandler serves the aggregated homepage counters.
type SummaryHandler struct {
	service summaryService
}

// NewSummaryHandler constructs the handler.
func NewSummaryHandler(service summaryService) *SummaryHandler {
	return &SummaryHandler{service: service}
}

// Get godoc
// @Summary Aggregated public content counts
// @Tags Summary
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /summary [get]
func (h *SummaryHandler) Get(c *gin.Context) {
	summary, err := h.service.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
