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
)

type announcementRepoStub struct {
	announcements map[string]*models.Announcement
	createHits    int
}

func newAnnouncementRepoStub() *announcementRepoStub {
	return &announcementRepoStub{announcements: make(map[string]*models.Announcement)}
}

func (r *announcementRepoStub) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	var matched []models.Announcement
	for _, a := range r.announcements {
		if filter.VisibleOnly && !a.VisibleAt(filter.AsOf) {
			continue
		}
		matched = append(matched, *a)
	}
	return matched, len(matched), nil
}

func (r *announcementRepoStub) FindByID(ctx context.Context, id string) (*models.Announcement, error) {
	if a, ok := r.announcements[id]; ok {
		copy := *a
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *announcementRepoStub) Create(ctx context.Context, announcement *models.Announcement) error {
	r.createHits++
	if announcement.ID == "" {
		announcement.ID = fmt.Sprintf("ann-%d", len(r.announcements)+1)
	}
	copy := *announcement
	r.announcements[announcement.ID] = &copy
	return nil
}

func (r *announcementRepoStub) Update(ctx context.Context, announcement *models.Announcement) error {
	if _, ok := r.announcements[announcement.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *announcement
	r.announcements[announcement.ID] = &copy
	return nil
}

func (r *announcementRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := r.announcements[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.announcements, id)
	return nil
}

func newTestAnnouncementService() (*AnnouncementService, *announcementRepoStub, *attachmentManagerStub, *summaryStub) {
	repo := newAnnouncementRepoStub()
	attachments := newAttachmentManagerStub()
	summary := &summaryStub{}
	return NewAnnouncementService(repo, attachments, summary, nil, nil), repo, attachments, summary
}

func validAnnouncementInput() CreateAnnouncementInput {
	return CreateAnnouncementInput{
		Title:       "Exam Schedule",
		Body:        "Final exams start next week.",
		Category:    models.CategoryUpdates,
		IsPublished: true,
		StartDate:   time.Now().UTC().Add(-time.Hour),
	}
}

func TestAnnouncementServiceCreateAndGet(t *testing.T) {
	svc, _, _, summary := newTestAnnouncementService()
	ctx := context.Background()

	created, err := svc.Create(ctx, adminActor(), validAnnouncementInput())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Nil(t, created.EndDate)
	require.Equal(t, 1, summary.invalidations)

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Title, fetched.Title)
}

func TestAnnouncementServiceCreateValidation(t *testing.T) {
	svc, repo, _, _ := newTestAnnouncementService()
	ctx := context.Background()

	input := validAnnouncementInput()
	input.Body = ""
	_, err := svc.Create(ctx, adminActor(), input)
	appErr := appErrors.FromError(err)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
	require.Equal(t, "body", appErr.Field)

	input = validAnnouncementInput()
	input.Body = strings.Repeat("x", 501)
	_, err = svc.Create(ctx, adminActor(), input)
	appErr = appErrors.FromError(err)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
	require.Equal(t, "body", appErr.Field)

	input = validAnnouncementInput()
	input.Category = "GOSSIP"
	_, err = svc.Create(ctx, adminActor(), input)
	appErr = appErrors.FromError(err)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
	require.Equal(t, "category", appErr.Field)

	input = validAnnouncementInput()
	end := input.StartDate.Add(-time.Hour)
	input.EndDate = &end
	_, err = svc.Create(ctx, adminActor(), input)
	appErr = appErrors.FromError(err)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
	require.Equal(t, "end_date", appErr.Field)

	require.Zero(t, repo.createHits)
}

func TestAnnouncementServiceGetHonorsDisplayWindow(t *testing.T) {
	svc, repo, _, _ := newTestAnnouncementService()
	ctx := context.Background()
	now := time.Now().UTC()

	future := now.Add(24 * time.Hour)
	expired := now.Add(-24 * time.Hour)
	expiredStart := now.Add(-48 * time.Hour)

	repo.announcements["ann-future"] = &models.Announcement{
		ID: "ann-future", IsPublished: true, StartDate: future,
	}
	repo.announcements["ann-expired"] = &models.Announcement{
		ID: "ann-expired", IsPublished: true, StartDate: expiredStart, EndDate: &expired,
	}
	repo.announcements["ann-live"] = &models.Announcement{
		ID: "ann-live", IsPublished: true, StartDate: now.Add(-time.Hour),
	}

	_, err := svc.Get(ctx, "ann-future")
	require.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)

	_, err = svc.Get(ctx, "ann-expired")
	require.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)

	_, err = svc.Get(ctx, "ann-live")
	require.NoError(t, err)

	_, err = svc.GetAny(ctx, adminActor(), "ann-future")
	require.NoError(t, err)
}

func TestAnnouncementServiceUpdateClearsEndDate(t *testing.T) {
	svc, repo, _, _ := newTestAnnouncementService()
	ctx := context.Background()

	end := time.Now().UTC().Add(time.Hour)
	repo.announcements["ann-1"] = &models.Announcement{
		ID:          "ann-1",
		Title:       "Exam Schedule",
		Body:        "body",
		Category:    models.CategoryUpdates,
		StartDate:   time.Now().UTC().Add(-time.Hour),
		EndDate:     &end,
		IsPublished: true,
	}

	updated, err := svc.Update(ctx, adminActor(), "ann-1", UpdateAnnouncementInput{ClearEndDate: true})
	require.NoError(t, err)
	require.Nil(t, updated.EndDate)
}

func TestAnnouncementServiceToggle(t *testing.T) {
	svc, repo, _, _ := newTestAnnouncementService()
	ctx := context.Background()

	repo.announcements["ann-1"] = &models.Announcement{ID: "ann-1"}

	toggled, err := svc.Toggle(ctx, adminActor(), "ann-1", "is_pinned")
	require.NoError(t, err)
	require.True(t, toggled.IsPinned)

	toggled, err = svc.Toggle(ctx, adminActor(), "ann-1", "is_published")
	require.NoError(t, err)
	require.True(t, toggled.IsPublished)

	_, err = svc.Toggle(ctx, adminActor(), "ann-1", "is_public")
	require.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
}

func TestAnnouncementServiceDeletePropagates(t *testing.T) {
	svc, repo, attachments, _ := newTestAnnouncementService()
	ctx := context.Background()

	attID := "att-1"
	attachments.stored[attID] = &models.Attachment{ID: attID}
	repo.announcements["ann-1"] = &models.Announcement{ID: "ann-1", AttachmentID: &attID}

	require.NoError(t, svc.Delete(ctx, adminActor(), "ann-1"))
	require.Empty(t, repo.announcements)
	require.Contains(t, attachments.deleted, attID)
}
