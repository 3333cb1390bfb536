package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smansa-dev/portal-api/internal/models"
	appErrors "github.com/smansa-dev/portal-api/pkg/errors"
	"github.com/smansa-dev/portal-api/pkg/storage"
	"github.com/smansa-dev/portal-api/pkg/upload"
)

type attachmentStore interface {
	Create(ctx context.Context, attachment *models.Attachment) error
	FindByID(ctx context.Context, id string) (*models.Attachment, error)
	Delete(ctx context.Context, id string) error
}

// Upload carries attachment metadata and the byte stream.
type Upload struct {
	Filename  string
	MimeType  string
	SizeBytes int64
	Content   io.Reader
}

// AttachmentService persists validated uploads: bytes go to the blob backend,
// metadata to the attachments table. It trusts callers to have run the
// upload validator already.
type AttachmentService struct {
	repo      attachmentStore
	blob      storage.Backend
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	policy    upload.Policy
	apiPrefix string
}

// NewAttachmentService constructs the service.
func NewAttachmentService(repo attachmentStore, blob storage.Backend, signer *storage.SignedURLSigner, logger *zap.Logger, policy upload.Policy, apiPrefix string) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(policy.AllowedTypes) == 0 {
		policy = upload.DefaultPolicy()
	}
	if apiPrefix == "" {
		apiPrefix = "/api/v1"
	}
	return &AttachmentService{
		repo:      repo,
		blob:      blob,
		signer:    signer,
		logger:    logger,
		policy:    policy,
		apiPrefix: apiPrefix,
	}
}

// Policy returns the validation policy shared by all upload contexts.
func (s *AttachmentService) Policy() upload.Policy {
	return s.policy
}

// Store writes the bytes and the metadata row. The blob is written first; if
// the metadata insert fails the blob is removed again so no orphan survives.
func (s *AttachmentService) Store(ctx context.Context, ownerKind models.ContentKind, ownerID string, up Upload) (*models.Attachment, error) {
	if up.Content == nil || up.SizeBytes <= 0 {
		return nil, appErrors.Validation("attachment", "file is required")
	}
	key := s.buildKey(ownerKind, up)
	uri, err := s.blob.Save(ctx, key, up.Content, up.SizeBytes, up.MimeType)
	if err != nil {
		return nil, storeError(err, "failed to persist attachment bytes")
	}
	attachment := &models.Attachment{
		URI:        uri,
		StorageKey: key,
		MimeType:   up.MimeType,
		SizeBytes:  up.SizeBytes,
		OwnerKind:  ownerKind,
		OwnerID:    ownerID,
	}
	if err := s.repo.Create(ctx, attachment); err != nil {
		if cleanupErr := s.blob.Delete(ctx, key); cleanupErr != nil {
			s.logger.Warn("failed to clean up blob after metadata failure",
				zap.String("key", key), zap.Error(cleanupErr))
		}
		return nil, storeError(err, "failed to record attachment metadata")
	}
	return attachment, nil
}

// Get returns attachment metadata.
func (s *AttachmentService) Get(ctx context.Context, id string) (*models.Attachment, error) {
	attachment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, storeError(err, "failed to load attachment")
	}
	return attachment, nil
}

// Delete removes metadata and bytes. Deleting a missing id is not an error.
func (s *AttachmentService) Delete(ctx context.Context, id string) error {
	attachment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return storeError(err, "failed to load attachment")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "failed to delete attachment metadata")
	}
	if err := s.blob.Delete(ctx, attachment.StorageKey); err != nil {
		s.logger.Warn("failed to delete attachment blob",
			zap.String("key", attachment.StorageKey), zap.Error(err))
	}
	return nil
}

// Open streams the stored bytes.
func (s *AttachmentService) Open(ctx context.Context, attachment *models.Attachment) (io.ReadCloser, error) {
	reader, err := s.blob.Open(ctx, attachment.StorageKey)
	if err != nil {
		return nil, storeError(err, "failed to open attachment")
	}
	return reader, nil
}

// DownloadURL returns a temporary direct URL when the backend supports
// presigning, otherwise a signed API download link.
func (s *AttachmentService) DownloadURL(ctx context.Context, attachment *models.Attachment) (string, error) {
	if presigner, ok := s.blob.(storage.URLPresigner); ok {
		url, err := presigner.PresignURL(ctx, attachment.StorageKey)
		if err != nil {
			return "", storeError(err, "failed to presign attachment url")
		}
		return url, nil
	}
	if s.signer == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
	}
	token, _, err := s.signer.Generate(attachment.ID, attachment.StorageKey)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate download token")
	}
	base := strings.TrimRight(s.apiPrefix, "/")
	return fmt.Sprintf("%s/attachments/%s/download?token=%s", base, attachment.ID, token), nil
}

// ParseDownloadToken validates a signed token for the given attachment.
func (s *AttachmentService) ParseDownloadToken(attachmentID, token string) error {
	if s.signer == nil {
		return appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
	}
	tokenID, _, _, err := s.signer.Parse(token)
	if err != nil || tokenID != attachmentID {
		return appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	return nil
}

func (s *AttachmentService) buildKey(ownerKind models.ContentKind, up Upload) string {
	ext := strings.ToLower(filepath.Ext(up.Filename))
	if ext == "" {
		ext = mimeExtension(up.MimeType)
	}
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("%s/%s%s", ownerKind, uuid.NewString(), ext)
}

func mimeExtension(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	default:
		return ""
	}
}
