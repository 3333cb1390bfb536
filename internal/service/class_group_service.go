package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smansa-dev/portal-api/internal/models"
	appErrors "github.com/smansa-dev/portal-api/pkg/errors"
	"github.com/smansa-dev/portal-api/pkg/export"
	"github.com/smansa-dev/portal-api/pkg/upload"
)

type classGroupRepository interface {
	List(ctx context.Context, filter models.ClassGroupFilter) ([]models.ClassGroup, int, error)
	FindByID(ctx context.Context, id string) (*models.ClassGroup, error)
	Create(ctx context.Context, group *models.ClassGroup) error
	Update(ctx context.Context, group *models.ClassGroup) error
	Delete(ctx context.Context, id string) error
}

// CreateClassGroupInput carries the fields accepted when creating a group.
type CreateClassGroupInput struct {
	Name           string  `json:"name" validate:"required,max=200"`
	Description    string  `json:"description" validate:"max=1000"`
	GraduationYear int     `json:"graduation_year" validate:"required"`
	IsPublic       bool    `json:"is_public"`
	Attachment     *Upload `json:"-"`
}

// UpdateClassGroupInput carries a partial update; nil fields are left
// untouched.
type UpdateClassGroupInput struct {
	Name             *string `json:"name" validate:"omitempty,max=200"`
	Description      *string `json:"description" validate:"omitempty,max=1000"`
	GraduationYear   *int    `json:"graduation_year"`
	IsPublic         *bool   `json:"is_public"`
	Attachment       *Upload `json:"-"`
	RemoveAttachment bool    `json:"remove_attachment"`
}

// ClassGroupService implements class group reads and admin mutations.
type ClassGroupService struct {
	repo        classGroupRepository
	attachments attachmentManager
	summary     summaryInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewClassGroupService constructs the service.
func NewClassGroupService(repo classGroupRepository, attachments attachmentManager, summary summaryInvalidator, v *validator.Validate, logger *zap.Logger) *ClassGroupService {
	if v == nil {
		v = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassGroupService{
		repo:        repo,
		attachments: attachments,
		summary:     summary,
		validator:   v,
		logger:      logger,
	}
}

// List returns public groups only.
func (s *ClassGroupService) List(ctx context.Context, filter models.ClassGroupFilter) ([]models.ClassGroup, *models.Pagination, error) {
	filter.VisibleOnly = true
	filter.AsOf = time.Now().UTC()
	return s.list(ctx, filter)
}

// ListAll returns groups regardless of the public flag. Admin only.
func (s *ClassGroupService) ListAll(ctx context.Context, actor *models.JWTClaims, filter models.ClassGroupFilter) ([]models.ClassGroup, *models.Pagination, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, nil, err
	}
	filter.VisibleOnly = false
	filter.AsOf = time.Now().UTC()
	return s.list(ctx, filter)
}

func (s *ClassGroupService) list(ctx context.Context, filter models.ClassGroupFilter) ([]models.ClassGroup, *models.Pagination, error) {
	filter.Page, filter.PageSize = normalizePaging(filter.Page, filter.PageSize)
	groups, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, storeError(err, "failed to list class groups")
	}
	if groups == nil {
		groups = []models.ClassGroup{}
	}
	return groups, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one group to public callers. Private groups are reported as
// missing so the response does not reveal whether the id exists.
func (s *ClassGroupService) Get(ctx context.Context, id string) (*models.ClassGroup, error) {
	group, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !group.VisibleAt(time.Now().UTC()) {
		return nil, appErrors.ErrNotFound
	}
	return group, nil
}

// GetAny returns one group regardless of the public flag. Admin only.
func (s *ClassGroupService) GetAny(ctx context.Context, actor *models.JWTClaims, id string) (*models.ClassGroup, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

func (s *ClassGroupService) find(ctx context.Context, id string) (*models.ClassGroup, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, storeError(err, "failed to load class group")
	}
	return group, nil
}

// Create validates and persists a new class group. Admin only.
func (s *ClassGroupService) Create(ctx context.Context, actor *models.JWTClaims, input CreateClassGroupInput) (*models.ClassGroup, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, firstValidationError(err)
	}
	if input.GraduationYear < models.GraduationYearMin || input.GraduationYear > models.GraduationYearMax {
		return nil, appErrors.Validation("graduation_year",
			fmt.Sprintf("must be between %d and %d", models.GraduationYearMin, models.GraduationYearMax))
	}

	group := &models.ClassGroup{
		ID:             uuid.NewString(),
		Name:           input.Name,
		Description:    input.Description,
		GraduationYear: input.GraduationYear,
		IsPublic:       input.IsPublic,
	}

	attachment, err := s.storeAttachment(ctx, group.ID, input.Attachment)
	if err != nil {
		return nil, err
	}
	if attachment != nil {
		group.AttachmentID = &attachment.ID
		group.AttachmentURI = &attachment.URI
	}

	if err := s.repo.Create(ctx, group); err != nil {
		s.rollbackAttachment(ctx, attachment)
		return nil, storeError(err, "failed to create class group")
	}
	s.invalidateSummary(ctx)
	return group, nil
}

// Update applies a partial update to an existing class group. Admin only.
func (s *ClassGroupService) Update(ctx context.Context, actor *models.JWTClaims, id string, input UpdateClassGroupInput) (*models.ClassGroup, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, firstValidationError(err)
	}
	group, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		group.Name = *input.Name
	}
	if input.Description != nil {
		group.Description = *input.Description
	}
	if input.GraduationYear != nil {
		if *input.GraduationYear < models.GraduationYearMin || *input.GraduationYear > models.GraduationYearMax {
			return nil, appErrors.Validation("graduation_year",
				fmt.Sprintf("must be between %d and %d", models.GraduationYearMin, models.GraduationYearMax))
		}
		group.GraduationYear = *input.GraduationYear
	}
	if input.IsPublic != nil {
		group.IsPublic = *input.IsPublic
	}

	previousAttachmentID := group.AttachmentID
	replacing := false

	newAttachment, err := s.storeAttachment(ctx, group.ID, input.Attachment)
	if err != nil {
		return nil, err
	}
	if newAttachment != nil {
		group.AttachmentID = &newAttachment.ID
		group.AttachmentURI = &newAttachment.URI
		replacing = true
	} else if input.RemoveAttachment {
		group.AttachmentID = nil
		group.AttachmentURI = nil
		replacing = true
	}

	if err := s.repo.Update(ctx, group); err != nil {
		s.rollbackAttachment(ctx, newAttachment)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, storeError(err, "failed to update class group")
	}
	if replacing && previousAttachmentID != nil {
		s.cleanupAttachment(ctx, *previousAttachmentID)
	}
	s.invalidateSummary(ctx)
	return group, nil
}

// Toggle flips a boolean flag on the group. Admin only.
func (s *ClassGroupService) Toggle(ctx context.Context, actor *models.JWTClaims, id, flag string) (*models.ClassGroup, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	group, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	switch flag {
	case "is_public":
		group.IsPublic = !group.IsPublic
	default:
		return nil, appErrors.Validation("flag", fmt.Sprintf("unknown flag %q", flag))
	}
	if err := s.repo.Update(ctx, group); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, storeError(err, "failed to toggle class group flag")
	}
	s.invalidateSummary(ctx)
	return group, nil
}

// Delete removes a class group and its attachment. Admin only.
func (s *ClassGroupService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	group, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return storeError(err, "failed to delete class group")
	}
	if group.AttachmentID != nil {
		s.cleanupAttachment(ctx, *group.AttachmentID)
	}
	s.invalidateSummary(ctx)
	return nil
}

// ExportDataset assembles every class group into a tabular dataset. Admin
// only.
func (s *ClassGroupService) ExportDataset(ctx context.Context, actor *models.JWTClaims) (*export.Dataset, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	dataset := &export.Dataset{
		Title:   "Class Groups",
		Headers: []string{"ID", "Name", "Graduation Year", "Public"},
	}
	filter := models.ClassGroupFilter{Page: 1, PageSize: 100}
	for {
		groups, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, storeError(err, "failed to export class groups")
		}
		for _, g := range groups {
			dataset.Rows = append(dataset.Rows, []string{
				g.ID,
				g.Name,
				strconv.Itoa(g.GraduationYear),
				fmt.Sprintf("%t", g.IsPublic),
			})
		}
		if len(dataset.Rows) >= total || len(groups) == 0 {
			break
		}
		filter.Page++
	}
	return dataset, nil
}

func (s *ClassGroupService) storeAttachment(ctx context.Context, ownerID string, up *Upload) (*models.Attachment, error) {
	if up == nil {
		return nil, nil
	}
	meta := upload.Meta{MimeType: up.MimeType, SizeBytes: up.SizeBytes}
	if err := upload.Validate(meta, s.attachments.Policy()); err != nil {
		return nil, err
	}
	return s.attachments.Store(ctx, models.KindClassGroup, ownerID, *up)
}

func (s *ClassGroupService) rollbackAttachment(ctx context.Context, attachment *models.Attachment) {
	if attachment == nil {
		return
	}
	if err := s.attachments.Delete(ctx, attachment.ID); err != nil {
		s.logger.Warn("failed to roll back attachment", zap.String("attachment_id", attachment.ID), zap.Error(err))
	}
}

func (s *ClassGroupService) cleanupAttachment(ctx context.Context, attachmentID string) {
	if err := s.attachments.Delete(ctx, attachmentID); err != nil {
		s.logger.Warn("failed to remove replaced attachment", zap.String("attachment_id", attachmentID), zap.Error(err))
	}
}

func (s *ClassGroupService) invalidateSummary(ctx context.Context) {
	if s.summary == nil {
		return
	}
	s.summary.Invalidate(ctx)
}
