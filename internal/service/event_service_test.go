package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smansa-dev/portal-api/internal/models"
	appErrors "github.com/smansa-dev/portal-api/pkg/errors"
	"github.com/smansa-dev/portal-api/pkg/upload"
)

type eventRepoStub struct {
	events     map[string]*models.Event
	createErr  error
	updateErr  error
	createHits int
}

func newEventRepoStub() *eventRepoStub {
	return &eventRepoStub{events: make(map[string]*models.Event)}
}

func (r *eventRepoStub) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	var matched []models.Event
	for _, e := range r.events {
		if filter.VisibleOnly && !e.IsPublished {
			continue
		}
		matched = append(matched, *e)
	}
	return matched, len(matched), nil
}

func (r *eventRepoStub) FindByID(ctx context.Context, id string) (*models.Event, error) {
	if e, ok := r.events[id]; ok {
		copy := *e
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *eventRepoStub) Create(ctx context.Context, event *models.Event) error {
	r.createHits++
	if r.createErr != nil {
		return r.createErr
	}
	if event.ID == "" {
		event.ID = fmt.Sprintf("evt-%d", len(r.events)+1)
	}
	copy := *event
	r.events[event.ID] = &copy
	return nil
}

func (r *eventRepoStub) Update(ctx context.Context, event *models.Event) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.events[event.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *event
	r.events[event.ID] = &copy
	return nil
}

func (r *eventRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := r.events[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.events, id)
	return nil
}

type attachmentManagerStub struct {
	stored  map[string]*models.Attachment
	deleted []string
}

func newAttachmentManagerStub() *attachmentManagerStub {
	return &attachmentManagerStub{stored: make(map[string]*models.Attachment)}
}

func (m *attachmentManagerStub) Policy() upload.Policy {
	return upload.DefaultPolicy()
}

func (m *attachmentManagerStub) Store(ctx context.Context, ownerKind models.ContentKind, ownerID string, up Upload) (*models.Attachment, error) {
	attachment := &models.Attachment{
		ID:        fmt.Sprintf("att-%d", len(m.stored)+1),
		URI:       fmt.Sprintf("file://%s/%d", ownerKind, len(m.stored)+1),
		MimeType:  up.MimeType,
		SizeBytes: up.SizeBytes,
		OwnerKind: ownerKind,
		OwnerID:   ownerID,
	}
	m.stored[attachment.ID] = attachment
	return attachment, nil
}

func (m *attachmentManagerStub) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.stored, id)
	return nil
}

type summaryStub struct {
	invalidations int
}

func (s *summaryStub) Invalidate(ctx context.Context) {
	s.invalidations++
}

func adminActor() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func viewerActor() *models.JWTClaims {
	return &models.JWTClaims{UserID: "viewer-1", Role: models.RoleViewer}
}

func newTestEventService() (*EventService, *eventRepoStub, *attachmentManagerStub, *summaryStub) {
	repo := newEventRepoStub()
	attachments := newAttachmentManagerStub()
	summary := &summaryStub{}
	return NewEventService(repo, attachments, summary, nil, nil), repo, attachments, summary
}

func validEventInput() CreateEventInput {
	start := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
	return CreateEventInput{
		Title:       "Open House",
		Description: "Campus tour for new families",
		Status:      models.EventStatusUpcoming,
		StartDate:   start,
		EndDate:     start.Add(4 * time.Hour),
		IsPublished: true,
	}
}

func TestEventServiceCreateAndGet(t *testing.T) {
	svc, _, _, summary := newTestEventService()
	ctx := context.Background()

	created, err := svc.Create(ctx, adminActor(), validEventInput())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Open House", created.Title)
	require.Equal(t, 1, summary.invalidations)

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, fetched.ID)
	require.Equal(t, created.Title, fetched.Title)
	require.Equal(t, created.StartDate, fetched.StartDate)
}

func TestEventServiceCreateRequiresAdmin(t *testing.T) {
	svc, repo, _, _ := newTestEventService()
	ctx := context.Background()

	_, err := svc.Create(ctx, nil, validEventInput())
	require.Equal(t, "UNAUTHORIZED", appErrors.FromError(err).Code)

	_, err = svc.Create(ctx, viewerActor(), validEventInput())
	require.Equal(t, "FORBIDDEN", appErrors.FromError(err).Code)

	require.Zero(t, repo.createHits)
}

func TestEventServiceCreateValidation(t *testing.T) {
	svc, repo, _, _ := newTestEventService()
	ctx := context.Background()

	input := validEventInput()
	input.Title = ""
	_, err := svc.Create(ctx, adminActor(), input)
	appErr := appErrors.FromError(err)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
	require.Equal(t, "title", appErr.Field)

	input = validEventInput()
	input.Title = strings.Repeat("x", 201)
	_, err = svc.Create(ctx, adminActor(), input)
	appErr = appErrors.FromError(err)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
	require.Equal(t, "title", appErr.Field)

	input = validEventInput()
	input.EndDate = input.StartDate.Add(-time.Hour)
	_, err = svc.Create(ctx, adminActor(), input)
	appErr = appErrors.FromError(err)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
	require.Equal(t, "end_date", appErr.Field)

	input = validEventInput()
	input.Description = strings.Repeat("x", 501)
	_, err = svc.Create(ctx, adminActor(), input)
	appErr = appErrors.FromError(err)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
	require.Equal(t, "description", appErr.Field)

	input = validEventInput()
	input.Status = "HAPPENING"
	_, err = svc.Create(ctx, adminActor(), input)
	appErr = appErrors.FromError(err)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
	require.Equal(t, "status", appErr.Field)

	require.Zero(t, repo.createHits)
}

func TestEventServiceCreateRejectsBadAttachments(t *testing.T) {
	svc, repo, attachments, _ := newTestEventService()
	ctx := context.Background()

	input := validEventInput()
	input.Attachment = &Upload{
		Filename:  "notes.pdf",
		MimeType:  "application/pdf",
		SizeBytes: 1024,
		Content:   strings.NewReader("pdf"),
	}
	_, err := svc.Create(ctx, adminActor(), input)
	require.Equal(t, "INVALID_ATTACHMENT_TYPE", appErrors.FromError(err).Code)

	input.Attachment = &Upload{
		Filename:  "huge.png",
		MimeType:  "image/png",
		SizeBytes: 6 * 1024 * 1024,
		Content:   strings.NewReader("png"),
	}
	_, err = svc.Create(ctx, adminActor(), input)
	require.Equal(t, "ATTACHMENT_TOO_LARGE", appErrors.FromError(err).Code)

	require.Zero(t, repo.createHits)
	require.Empty(t, attachments.stored)
}

func TestEventServiceCreateLinksAttachmentToOwner(t *testing.T) {
	svc, _, attachments, _ := newTestEventService()
	ctx := context.Background()

	input := validEventInput()
	input.Attachment = &Upload{
		Filename:  "banner.png",
		MimeType:  "image/png",
		SizeBytes: 2048,
		Content:   strings.NewReader("png"),
	}
	created, err := svc.Create(ctx, adminActor(), input)
	require.NoError(t, err)
	require.NotNil(t, created.AttachmentID)

	stored := attachments.stored[*created.AttachmentID]
	require.NotNil(t, stored)
	require.Equal(t, models.KindEvent, stored.OwnerKind)
	require.Equal(t, created.ID, stored.OwnerID)
}

func TestEventServiceCreateRollsBackAttachmentOnInsertFailure(t *testing.T) {
	svc, repo, attachments, _ := newTestEventService()
	ctx := context.Background()
	repo.createErr = fmt.Errorf("insert failed")

	input := validEventInput()
	input.Attachment = &Upload{
		Filename:  "banner.png",
		MimeType:  "image/png",
		SizeBytes: 2048,
		Content:   strings.NewReader("png"),
	}
	_, err := svc.Create(ctx, adminActor(), input)
	require.Error(t, err)
	require.Empty(t, attachments.stored)
	require.Len(t, attachments.deleted, 1)
}

func TestEventServiceGetHidesUnpublished(t *testing.T) {
	svc, repo, _, _ := newTestEventService()
	ctx := context.Background()

	repo.events["evt-hidden"] = &models.Event{ID: "evt-hidden", Title: "Draft", IsPublished: false}

	_, err := svc.Get(ctx, "evt-hidden")
	require.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)

	_, err = svc.Get(ctx, "evt-missing")
	require.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)

	fetched, err := svc.GetAny(ctx, adminActor(), "evt-hidden")
	require.NoError(t, err)
	require.Equal(t, "Draft", fetched.Title)
}

func TestEventServiceListShowsPublishedOnly(t *testing.T) {
	svc, repo, _, _ := newTestEventService()
	ctx := context.Background()

	repo.events["evt-1"] = &models.Event{ID: "evt-1", IsPublished: true}
	repo.events["evt-2"] = &models.Event{ID: "evt-2", IsPublished: false}

	events, pagination, err := svc.List(ctx, models.EventFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, 1, pagination.TotalCount)

	all, pagination, err := svc.ListAll(ctx, adminActor(), models.EventFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, 2, pagination.TotalCount)
}

func TestEventServiceListClampsOversizedPage(t *testing.T) {
	svc, repo, _, _ := newTestEventService()
	ctx := context.Background()

	repo.events["evt-1"] = &models.Event{ID: "evt-1", IsPublished: true}

	// Paging limits match the store's, so page_size reports the size served.
	_, pagination, err := svc.List(ctx, models.EventFilter{Page: 0, PageSize: 500})
	require.NoError(t, err)
	require.Equal(t, 1, pagination.Page)
	require.Equal(t, 20, pagination.PageSize)
	require.Equal(t, 1, pagination.TotalPages)
}

func TestEventServiceUpdateReplacesAttachment(t *testing.T) {
	svc, repo, attachments, _ := newTestEventService()
	ctx := context.Background()

	oldID := "att-old"
	attachments.stored[oldID] = &models.Attachment{ID: oldID}
	repo.events["evt-1"] = &models.Event{
		ID:           "evt-1",
		Title:        "Open House",
		Description:  "desc",
		Status:       models.EventStatusUpcoming,
		StartDate:    time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC),
		AttachmentID: &oldID,
	}

	updated, err := svc.Update(ctx, adminActor(), "evt-1", UpdateEventInput{
		Attachment: &Upload{
			Filename:  "new.png",
			MimeType:  "image/png",
			SizeBytes: 512,
			Content:   strings.NewReader("png"),
		},
	})
	require.NoError(t, err)
	require.NotNil(t, updated.AttachmentID)
	require.NotEqual(t, oldID, *updated.AttachmentID)
	require.Equal(t, "evt-1", attachments.stored[*updated.AttachmentID].OwnerID)
	require.Contains(t, attachments.deleted, oldID)
}

func TestEventServiceToggle(t *testing.T) {
	svc, repo, _, summary := newTestEventService()
	ctx := context.Background()

	repo.events["evt-1"] = &models.Event{ID: "evt-1", IsPublished: false}

	toggled, err := svc.Toggle(ctx, adminActor(), "evt-1", "is_published")
	require.NoError(t, err)
	require.True(t, toggled.IsPublished)
	require.Equal(t, 1, summary.invalidations)

	_, err = svc.Toggle(ctx, adminActor(), "evt-1", "is_archived")
	appErr := appErrors.FromError(err)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
	require.Equal(t, "flag", appErr.Field)
}

func TestEventServiceDeleteRemovesAttachment(t *testing.T) {
	svc, repo, attachments, summary := newTestEventService()
	ctx := context.Background()

	attID := "att-1"
	attachments.stored[attID] = &models.Attachment{ID: attID}
	repo.events["evt-1"] = &models.Event{ID: "evt-1", AttachmentID: &attID}

	require.NoError(t, svc.Delete(ctx, adminActor(), "evt-1"))
	require.Empty(t, repo.events)
	require.Contains(t, attachments.deleted, attID)
	require.Equal(t, 1, summary.invalidations)

	err := svc.Delete(ctx, adminActor(), "evt-1")
	require.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}

func TestEventServiceExportDataset(t *testing.T) {
	svc, repo, _, _ := newTestEventService()
	ctx := context.Background()

	repo.events["evt-1"] = &models.Event{
		ID:        "evt-1",
		Title:     "Open House",
		Status:    models.EventStatusUpcoming,
		StartDate: time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC),
	}

	_, err := svc.ExportDataset(ctx, viewerActor())
	require.Equal(t, "FORBIDDEN", appErrors.FromError(err).Code)

	dataset, err := svc.ExportDataset(ctx, adminActor())
	require.NoError(t, err)
	require.Len(t, dataset.Rows, 1)
	require.Equal(t, "Open House", dataset.Rows[0][1])
}
