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

type eventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	FindByID(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id string) error
}

type attachmentManager interface {
	Policy() upload.Policy
	Store(ctx context.Context, ownerKind models.ContentKind, ownerID string, up Upload) (*models.Attachment, error)
	Delete(ctx context.Context, id string) error
}

// CreateEventInput carries the fields accepted when creating an event.
type CreateEventInput struct {
	Title       string             `json:"title" validate:"required,max=200"`
	Description string             `json:"description" validate:"required,max=500"`
	Status      models.EventStatus `json:"status" validate:"required"`
	StartDate   time.Time          `json:"start_date" validate:"required"`
	EndDate     time.Time          `json:"end_date" validate:"required"`
	IsPublished bool               `json:"is_published"`
	IsFeatured  bool               `json:"is_featured"`
	Attachment  *Upload            `json:"-"`
}

// UpdateEventInput carries a partial update; nil fields are left untouched.
type UpdateEventInput struct {
	Title            *string             `json:"title" validate:"omitempty,max=200"`
	Description      *string             `json:"description" validate:"omitempty,min=1,max=500"`
	Status           *models.EventStatus `json:"status"`
	StartDate        *time.Time          `json:"start_date"`
	EndDate          *time.Time          `json:"end_date"`
	IsPublished      *bool               `json:"is_published"`
	IsFeatured       *bool               `json:"is_featured"`
	Attachment       *Upload             `json:"-"`
	RemoveAttachment bool                `json:"remove_attachment"`
}

// EventService implements event reads and admin mutations.
type EventService struct {
	repo        eventRepository
	attachments attachmentManager
	summary     summaryInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEventService constructs the service.
func NewEventService(repo eventRepository, attachments attachmentManager, summary summaryInvalidator, v *validator.Validate, logger *zap.Logger) *EventService {
	if v == nil {
		v = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{
		repo:        repo,
		attachments: attachments,
		summary:     summary,
		validator:   v,
		logger:      logger,
	}
}

// List returns published events only, evaluated at the current time.
func (s *EventService) List(ctx context.Context, filter models.EventFilter) ([]models.Event, *models.Pagination, error) {
	filter.VisibleOnly = true
	filter.AsOf = time.Now().UTC()
	return s.list(ctx, filter)
}

// ListAll returns events regardless of publish state. Admin only.
func (s *EventService) ListAll(ctx context.Context, actor *models.JWTClaims, filter models.EventFilter) ([]models.Event, *models.Pagination, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, nil, err
	}
	filter.VisibleOnly = false
	filter.AsOf = time.Now().UTC()
	return s.list(ctx, filter)
}

func (s *EventService) list(ctx context.Context, filter models.EventFilter) ([]models.Event, *models.Pagination, error) {
	filter.Page, filter.PageSize = normalizePaging(filter.Page, filter.PageSize)
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, storeError(err, "failed to list events")
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one event to public callers. Unpublished events are reported as
// missing so the response does not reveal whether the id exists.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !event.VisibleAt(time.Now().UTC()) {
		return nil, appErrors.ErrNotFound
	}
	return event, nil
}

// GetAny returns one event regardless of publish state. Admin only.
func (s *EventService) GetAny(ctx context.Context, actor *models.JWTClaims, id string) (*models.Event, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

func (s *EventService) find(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, storeError(err, "failed to load event")
	}
	return event, nil
}

// Create validates and persists a new event. Admin only. When an attachment
// is supplied, its bytes are stored before the row insert; an insert failure
// rolls the attachment back.
func (s *EventService) Create(ctx context.Context, actor *models.JWTClaims, input CreateEventInput) (*models.Event, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, firstValidationError(err)
	}
	if !input.Status.Valid() {
		return nil, appErrors.Validation("status", "unknown event status")
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, appErrors.Validation("end_date", "must not be before start_date")
	}

	event := &models.Event{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		IsPublished: input.IsPublished,
		IsFeatured:  input.IsFeatured,
	}

	attachment, err := s.storeAttachment(ctx, event.ID, input.Attachment)
	if err != nil {
		return nil, err
	}
	if attachment != nil {
		event.AttachmentID = &attachment.ID
		event.AttachmentURI = &attachment.URI
	}

	if err := s.repo.Create(ctx, event); err != nil {
		s.rollbackAttachment(ctx, attachment)
		return nil, storeError(err, "failed to create event")
	}
	s.invalidateSummary(ctx)
	return event, nil
}

// Update applies a partial update to an existing event. Admin only. A
// replacement attachment is stored before the old one is removed, and the old
// one is removed only after the row update succeeds.
func (s *EventService) Update(ctx context.Context, actor *models.JWTClaims, id string, input UpdateEventInput) (*models.Event, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, firstValidationError(err)
	}
	event, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		event.Title = *input.Title
	}
	if input.Description != nil {
		event.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, appErrors.Validation("status", "unknown event status")
		}
		event.Status = *input.Status
	}
	if input.StartDate != nil {
		event.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		event.EndDate = *input.EndDate
	}
	if event.EndDate.Before(event.StartDate) {
		return nil, appErrors.Validation("end_date", "must not be before start_date")
	}
	if input.IsPublished != nil {
		event.IsPublished = *input.IsPublished
	}
	if input.IsFeatured != nil {
		event.IsFeatured = *input.IsFeatured
	}

	previousAttachmentID := event.AttachmentID
	replacing := false

	newAttachment, err := s.storeAttachment(ctx, event.ID, input.Attachment)
	if err != nil {
		return nil, err
	}
	if newAttachment != nil {
		event.AttachmentID = &newAttachment.ID
		event.AttachmentURI = &newAttachment.URI
		replacing = true
	} else if input.RemoveAttachment {
		event.AttachmentID = nil
		event.AttachmentURI = nil
		replacing = true
	}

	if err := s.repo.Update(ctx, event); err != nil {
		s.rollbackAttachment(ctx, newAttachment)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, storeError(err, "failed to update event")
	}
	if replacing && previousAttachmentID != nil {
		s.cleanupAttachment(ctx, *previousAttachmentID)
	}
	s.invalidateSummary(ctx)
	return event, nil
}

// Toggle flips a boolean flag on the event and returns the updated record.
// Admin only.
func (s *EventService) Toggle(ctx context.Context, actor *models.JWTClaims, id, flag string) (*models.Event, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	event, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	switch flag {
	case "is_published":
		event.IsPublished = !event.IsPublished
	case "is_featured":
		event.IsFeatured = !event.IsFeatured
	default:
		return nil, appErrors.Validation("flag", fmt.Sprintf("unknown flag %q", flag))
	}
	if err := s.repo.Update(ctx, event); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, storeError(err, "failed to toggle event flag")
	}
	s.invalidateSummary(ctx)
	return event, nil
}

// Delete removes an event and its attachment. Admin only.
func (s *EventService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	event, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return storeError(err, "failed to delete event")
	}
	if event.AttachmentID != nil {
		s.cleanupAttachment(ctx, *event.AttachmentID)
	}
	s.invalidateSummary(ctx)
	return nil
}

// ExportDataset assembles every event into a tabular dataset. Admin only.
func (s *EventService) ExportDataset(ctx context.Context, actor *models.JWTClaims) (*export.Dataset, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	dataset := &export.Dataset{
		Title:   "Events",
		Headers: []string{"ID", "Title", "Status", "Start Date", "End Date", "Published", "Featured"},
	}
	filter := models.EventFilter{Page: 1, PageSize: 100}
	for {
		events, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, storeError(err, "failed to export events")
		}
		for _, e := range events {
			dataset.Rows = append(dataset.Rows, []string{
				e.ID,
				e.Title,
				string(e.Status),
				e.StartDate.Format("2006-01-02"),
				e.EndDate.Format("2006-01-02"),
				fmt.Sprintf("%t", e.IsPublished),
				fmt.Sprintf("%t", e.IsFeatured),
			})
		}
		if len(dataset.Rows) >= total || len(events) == 0 {
			break
		}
		filter.Page++
	}
	return dataset, nil
}

func (s *EventService) storeAttachment(ctx context.Context, ownerID string, up *Upload) (*models.Attachment, error) {
	if up == nil {
		return nil, nil
	}
	meta := upload.Meta{MimeType: up.MimeType, SizeBytes: up.SizeBytes}
	if err := upload.Validate(meta, s.attachments.Policy()); err != nil {
		return nil, err
	}
	return s.attachments.Store(ctx, models.KindEvent, ownerID, *up)
}

func (s *EventService) rollbackAttachment(ctx context.Context, attachment *models.Attachment) {
	if attachment == nil {
		return
	}
	if err := s.attachments.Delete(ctx, attachment.ID); err != nil {
		s.logger.Warn("failed to roll back attachment", zap.String("attachment_id", attachment.ID), zap.Error(err))
	}
}

func (s *EventService) cleanupAttachment(ctx context.Context, attachmentID string) {
	if err := s.attachments.Delete(ctx, attachmentID); err != nil {
		s.logger.Warn("failed to remove replaced attachment", zap.String("attachment_id", attachmentID), zap.Error(err))
	}
}

func (s *EventService) invalidateSummary(ctx context.Context) {
	if s.summary == nil {
		return
	}
	s.summary.Invalidate(ctx)
}
