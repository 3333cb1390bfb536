package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smansa-dev/portal-api/internal/models"
	appErrors "github.com/smansa-dev/portal-api/pkg/errors"
	"github.com/smansa-dev/portal-api/pkg/export"
	"github.com/smansa-dev/portal-api/pkg/upload"
)

type announcementRepository interface {
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error)
	FindByID(ctx context.Context, id string) (*models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Update(ctx context.Context, announcement *models.Announcement) error
	Delete(ctx context.Context, id string) error
}

// CreateAnnouncementInput carries the fields accepted when creating an
// announcement. EndDate is optional and means "never expires" when absent.
type CreateAnnouncementInput struct {
	Title       string                      `json:"title" validate:"required,max=200"`
	Body        string                      `json:"body" validate:"required,max=500"`
	Category    models.AnnouncementCategory `json:"category" validate:"required"`
	IsPublished bool                        `json:"is_published"`
	IsPinned    bool                        `json:"is_pinned"`
	StartDate   time.Time                   `json:"start_date" validate:"required"`
	EndDate     *time.Time                  `json:"end_date"`
	Attachment  *Upload                     `json:"-"`
}

// UpdateAnnouncementInput carries a partial update; nil fields are left
// untouched. ClearEndDate removes the expiry window.
type UpdateAnnouncementInput struct {
	Title            *string                      `json:"title" validate:"omitempty,max=200"`
	Body             *string                      `json:"body" validate:"omitempty,min=1,max=500"`
	Category         *models.AnnouncementCategory `json:"category"`
	IsPublished      *bool                        `json:"is_published"`
	IsPinned         *bool                        `json:"is_pinned"`
	StartDate        *time.Time                   `json:"start_date"`
	EndDate          *time.Time                   `json:"end_date"`
	ClearEndDate     bool                         `json:"clear_end_date"`
	Attachment       *Upload                      `json:"-"`
	RemoveAttachment bool                         `json:"remove_attachment"`
}

// AnnouncementService implements announcement reads and admin mutations.
type AnnouncementService struct {
	repo        announcementRepository
	attachments attachmentManager
	summary     summaryInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(repo announcementRepository, attachments attachmentManager, summary summaryInvalidator, v *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if v == nil {
		v = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{
		repo:        repo,
		attachments: attachments,
		summary:     summary,
		validator:   v,
		logger:      logger,
	}
}

// List returns announcements that are published and inside their display
// window at the current time.
func (s *AnnouncementService) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, *models.Pagination, error) {
	filter.VisibleOnly = true
	filter.AsOf = time.Now().UTC()
	return s.list(ctx, filter)
}

// ListAll returns announcements regardless of visibility. Admin only.
func (s *AnnouncementService) ListAll(ctx context.Context, actor *models.JWTClaims, filter models.AnnouncementFilter) ([]models.Announcement, *models.Pagination, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, nil, err
	}
	filter.VisibleOnly = false
	filter.AsOf = time.Now().UTC()
	return s.list(ctx, filter)
}

func (s *AnnouncementService) list(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, *models.Pagination, error) {
	filter.Page, filter.PageSize = normalizePaging(filter.Page, filter.PageSize)
	announcements, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, storeError(err, "failed to list announcements")
	}
	if announcements == nil {
		announcements = []models.Announcement{}
	}
	return announcements, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one announcement to public callers. Records outside their
// display window are reported as missing, same as unknown ids.
func (s *AnnouncementService) Get(ctx context.Context, id string) (*models.Announcement, error) {
	announcement, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !announcement.VisibleAt(time.Now().UTC()) {
		return nil, appErrors.ErrNotFound
	}
	return announcement, nil
}

// GetAny returns one announcement regardless of visibility. Admin only.
func (s *AnnouncementService) GetAny(ctx context.Context, actor *models.JWTClaims, id string) (*models.Announcement, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

func (s *AnnouncementService) find(ctx context.Context, id string) (*models.Announcement, error) {
	announcement, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, storeError(err, "failed to load announcement")
	}
	return announcement, nil
}

// Create validates and persists a new announcement. Admin only.
func (s *AnnouncementService) Create(ctx context.Context, actor *models.JWTClaims, input CreateAnnouncementInput) (*models.Announcement, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, firstValidationError(err)
	}
	if !input.Category.Valid() {
		return nil, appErrors.Validation("category", "unknown announcement category")
	}
	if input.EndDate != nil && input.EndDate.Before(input.StartDate) {
		return nil, appErrors.Validation("end_date", "must not be before start_date")
	}

	announcement := &models.Announcement{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Body:        input.Body,
		Category:    input.Category,
		IsPublished: input.IsPublished,
		IsPinned:    input.IsPinned,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
	}

	attachment, err := s.storeAttachment(ctx, announcement.ID, input.Attachment)
	if err != nil {
		return nil, err
	}
	if attachment != nil {
		announcement.AttachmentID = &attachment.ID
		announcement.AttachmentURI = &attachment.URI
	}

	if err := s.repo.Create(ctx, announcement); err != nil {
		s.rollbackAttachment(ctx, attachment)
		return nil, storeError(err, "failed to create announcement")
	}
	s.invalidateSummary(ctx)
	return announcement, nil
}

// Update applies a partial update to an existing announcement. Admin only.
func (s *AnnouncementService) Update(ctx context.Context, actor *models.JWTClaims, id string, input UpdateAnnouncementInput) (*models.Announcement, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, firstValidationError(err)
	}
	announcement, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		announcement.Title = *input.Title
	}
	if input.Body != nil {
		announcement.Body = *input.Body
	}
	if input.Category != nil {
		if !input.Category.Valid() {
			return nil, appErrors.Validation("category", "unknown announcement category")
		}
		announcement.Category = *input.Category
	}
	if input.IsPublished != nil {
		announcement.IsPublished = *input.IsPublished
	}
	if input.IsPinned != nil {
		announcement.IsPinned = *input.IsPinned
	}
	if input.StartDate != nil {
		announcement.StartDate = *input.StartDate
	}
	if input.ClearEndDate {
		announcement.EndDate = nil
	} else if input.EndDate != nil {
		announcement.EndDate = input.EndDate
	}
	if announcement.EndDate != nil && announcement.EndDate.Before(announcement.StartDate) {
		return nil, appErrors.Validation("end_date", "must not be before start_date")
	}

	previousAttachmentID := announcement.AttachmentID
	replacing := false

	newAttachment, err := s.storeAttachment(ctx, announcement.ID, input.Attachment)
	if err != nil {
		return nil, err
	}
	if newAttachment != nil {
		announcement.AttachmentID = &newAttachment.ID
		announcement.AttachmentURI = &newAttachment.URI
		replacing = true
	} else if input.RemoveAttachment {
		announcement.AttachmentID = nil
		announcement.AttachmentURI = nil
		replacing = true
	}

	if err := s.repo.Update(ctx, announcement); err != nil {
		s.rollbackAttachment(ctx, newAttachment)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, storeError(err, "failed to update announcement")
	}
	if replacing && previousAttachmentID != nil {
		s.cleanupAttachment(ctx, *previousAttachmentID)
	}
	s.invalidateSummary(ctx)
	return announcement, nil
}

// Toggle flips a boolean flag on the announcement. Admin only.
func (s *AnnouncementService) Toggle(ctx context.Context, actor *models.JWTClaims, id, flag string) (*models.Announcement, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	announcement, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	switch flag {
	case "is_published":
		announcement.IsPublished = !announcement.IsPublished
	case "is_pinned":
		announcement.IsPinned = !announcement.IsPinned
	default:
		return nil, appErrors.Validation("flag", fmt.Sprintf("unknown flag %q", flag))
	}
	if err := s.repo.Update(ctx, announcement); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, storeError(err, "failed to toggle announcement flag")
	}
	s.invalidateSummary(ctx)
	return announcement, nil
}

// Delete removes an announcement and its attachment. Admin only.
func (s *AnnouncementService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	announcement, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return storeError(err, "failed to delete announcement")
	}
	if announcement.AttachmentID != nil {
		s.cleanupAttachment(ctx, *announcement.AttachmentID)
	}
	s.invalidateSummary(ctx)
	return nil
}

// ExportDataset assembles every announcement into a tabular dataset. Admin
// only.
func (s *AnnouncementService) ExportDataset(ctx context.Context, actor *models.JWTClaims) (*export.Dataset, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	dataset := &export.Dataset{
		Title:   "Announcements",
		Headers: []string{"ID", "Title", "Category", "Start Date", "End Date", "Published", "Pinned"},
	}
	filter := models.AnnouncementFilter{Page: 1, PageSize: 100}
	for {
		announcements, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, storeError(err, "failed to export announcements")
		}
		for _, a := range announcements {
			endDate := ""
			if a.EndDate != nil {
				endDate = a.EndDate.Format("2006-01-02")
			}
			dataset.Rows = append(dataset.Rows, []string{
				a.ID,
				a.Title,
				string(a.Category),
				a.StartDate.Format("2006-01-02"),
				endDate,
				fmt.Sprintf("%t", a.IsPublished),
				fmt.Sprintf("%t", a.IsPinned),
			})
		}
		if len(dataset.Rows) >= total || len(announcements) == 0 {
			break
		}
		filter.Page++
	}
	return dataset, nil
}

func (s *AnnouncementService) storeAttachment(ctx context.Context, ownerID string, up *Upload) (*models.Attachment, error) {
	if up == nil {
		return nil, nil
	}
	meta := upload.Meta{MimeType: up.MimeType, SizeBytes: up.SizeBytes}
	if err := upload.Validate(meta, s.attachments.Policy()); err != nil {
		return nil, err
	}
	return s.attachments.Store(ctx, models.KindAnnouncement, ownerID, *up)
}

func (s *AnnouncementService) rollbackAttachment(ctx context.Context, attachment *models.Attachment) {
	if attachment == nil {
		return
	}
	if err := s.attachments.Delete(ctx, attachment.ID); err != nil {
		s.logger.Warn("failed to roll back attachment", zap.String("attachment_id", attachment.ID), zap.Error(err))
	}
}

func (s *AnnouncementService) cleanupAttachment(ctx context.Context, attachmentID string) {
	if err := s.attachments.Delete(ctx, attachmentID); err != nil {
		s.logger.Warn("failed to remove replaced attachment", zap.String("attachment_id", attachmentID), zap.Error(err))
	}
}

func (s *AnnouncementService) invalidateSummary(ctx context.Context) {
	if s.summary == nil {
		return
	}
	s.summary.Invalidate(ctx)
}
