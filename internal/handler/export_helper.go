package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/smansa-dev/portal-api/pkg/errors"
	"github.com/smansa-dev/portal-api/pkg/export"
	"github.com/smansa-dev/portal-api/pkg/response"
)

// renderExport writes the dataset in the requested format.
func renderExport(c *gin.Context, dataset *export.Dataset, prefix string, csv *export.CSVExporter, pdf *export.PDFExporter) {
	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	switch format {
	case "csv":
		if csv == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrInternal, "csv exporter not configured"))
			return
		}
		payload, err := csv.Render(*dataset)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv"))
			return
		}
		c.Header("Content-Disposition", contentDisposition(export.Filename(prefix, "csv")))
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		if pdf == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrInternal, "pdf exporter not configured"))
			return
		}
		payload, err := pdf.Render(*dataset)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf"))
			return
		}
		c.Header("Content-Disposition", contentDisposition(export.Filename(prefix, "pdf")))
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Validation("format", "must be csv or pdf"))
	}
}
