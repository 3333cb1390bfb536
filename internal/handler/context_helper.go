package handler

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smansa-dev/portal-api/internal/middleware"
	"github.com/smansa-dev/portal-api/internal/models"
	"github.com/smansa-dev/portal-api/internal/service"
	appErrors "github.com/smansa-dev/portal-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func paginationParams(c *gin.Context) (int, int) {
	page := 1
	size := 20
	if v, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil && v > 0 {
		size = v
	}
	return page, size
}

// parseDateParam accepts RFC3339 or plain YYYY-MM-DD values.
func parseDateParam(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		parsed = parsed.UTC()
		return &parsed, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, appErrors.Validation(field, "must be RFC3339 or YYYY-MM-DD")
	}
	parsed = parsed.UTC()
	return &parsed, nil
}

// formUpload extracts the optional "attachment" multipart file.
func formUpload(c *gin.Context) (*service.Upload, error) {
	if c.ContentType() != "multipart/form-data" && !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, nil
	}
	fileHeader, err := c.FormFile("attachment")
	if err != nil {
		return nil, nil
	}
	src, err := fileHeader.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open attachment")
	}
	defer src.Close()

	buf, err := io.ReadAll(src)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer attachment")
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &service.Upload{
		Filename:  fileHeader.Filename,
		MimeType:  mimeType,
		SizeBytes: fileHeader.Size,
		Content:   bytes.NewReader(buf),
	}, nil
}

func contentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}
