package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/smansa-dev/portal-api/internal/models"
	appErrors "github.com/smansa-dev/portal-api/pkg/errors"
)

type attachmentServiceMock struct {
	attachment *models.Attachment
	getErr     error
	content    string
	tokenErr   error
	url        string
}

func (m *attachmentServiceMock) Get(ctx context.Context, id string) (*models.Attachment, error) {
	return m.attachment, m.getErr
}

func (m *attachmentServiceMock) Open(ctx context.Context, attachment *models.Attachment) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader([]byte(m.content))), nil
}

func (m *attachmentServiceMock) DownloadURL(ctx context.Context, attachment *models.Attachment) (string, error) {
	return m.url, nil
}

func (m *attachmentServiceMock) ParseDownloadToken(attachmentID, token string) error {
	return m.tokenErr
}

func TestAttachmentHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &attachmentServiceMock{
		attachment: &models.Attachment{ID: "att-1", MimeType: "image/png", SizeBytes: 3},
		content:    "png",
	}
	handler := NewAttachmentHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/attachments/att-1/download?token=abc", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "att-1"}}

	handler.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "png", w.Body.String())
	require.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestAttachmentHandlerDownloadRequiresToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttachmentHandler(&attachmentServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/attachments/att-1/download", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "att-1"}}

	handler.Download(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttachmentHandlerDownloadRejectsBadToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &attachmentServiceMock{
		tokenErr: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token"),
	}
	handler := NewAttachmentHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/attachments/att-1/download?token=bad", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "att-1"}}

	handler.Download(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}
