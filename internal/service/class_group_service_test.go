package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smansa-dev/portal-api/internal/models"
	appErrors "github.com/smansa-dev/portal-api/pkg/errors"
)

type classGroupRepoStub struct {
	groups     map[string]*models.ClassGroup
	createHits int
}

func newClassGroupRepoStub() *classGroupRepoStub {
	return &classGroupRepoStub{groups: make(map[string]*models.ClassGroup)}
}

func (r *classGroupRepoStub) List(ctx context.Context, filter models.ClassGroupFilter) ([]models.ClassGroup, int, error) {
	var matched []models.ClassGroup
	for _, g := range r.groups {
		if filter.VisibleOnly && !g.IsPublic {
			continue
		}
		matched = append(matched, *g)
	}
	return matched, len(matched), nil
}

func (r *classGroupRepoStub) FindByID(ctx context.Context, id string) (*models.ClassGroup, error) {
	if g, ok := r.groups[id]; ok {
		copy := *g
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *classGroupRepoStub) Create(ctx context.Context, group *models.ClassGroup) error {
	r.createHits++
	if group.ID == "" {
		group.ID = fmt.Sprintf("grp-%d", len(r.groups)+1)
	}
	copy := *group
	r.groups[group.ID] = &copy
	return nil
}

func (r *classGroupRepoStub) Update(ctx context.Context, group *models.ClassGroup) error {
	if _, ok := r.groups[group.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *group
	r.groups[group.ID] = &copy
	return nil
}

func (r *classGroupRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := r.groups[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.groups, id)
	return nil
}

func newTestClassGroupService() (*ClassGroupService, *classGroupRepoStub, *attachmentManagerStub, *summaryStub) {
	repo := newClassGroupRepoStub()
	attachments := newAttachmentManagerStub()
	summary := &summaryStub{}
	return NewClassGroupService(repo, attachments, summary, nil, nil), repo, attachments, summary
}

func TestClassGroupServiceCreateAndGet(t *testing.T) {
	svc, _, _, _ := newTestClassGroupService()
	ctx := context.Background()

	created, err := svc.Create(ctx, adminActor(), CreateClassGroupInput{
		Name:           "Class of 2015",
		GraduationYear: 2015,
		IsPublic:       true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, 2015, fetched.GraduationYear)
}

func TestClassGroupServiceGraduationYearBounds(t *testing.T) {
	svc, repo, _, _ := newTestClassGroupService()
	ctx := context.Background()

	for _, year := range []int{1999, 2101} {
		_, err := svc.Create(ctx, adminActor(), CreateClassGroupInput{
			Name:           "Class",
			GraduationYear: year,
		})
		appErr := appErrors.FromError(err)
		require.Equal(t, "VALIDATION_ERROR", appErr.Code)
		require.Equal(t, "graduation_year", appErr.Field)
	}
	require.Zero(t, repo.createHits)

	for _, year := range []int{2000, 2100} {
		_, err := svc.Create(ctx, adminActor(), CreateClassGroupInput{
			Name:           fmt.Sprintf("Class of %d", year),
			GraduationYear: year,
		})
		require.NoError(t, err)
	}
}

func TestClassGroupServiceDescriptionLengthBound(t *testing.T) {
	svc, repo, _, _ := newTestClassGroupService()
	ctx := context.Background()

	_, err := svc.Create(ctx, adminActor(), CreateClassGroupInput{
		Name:           "Class of 2012",
		Description:    strings.Repeat("x", 1001),
		GraduationYear: 2012,
	})
	appErr := appErrors.FromError(err)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
	require.Equal(t, "description", appErr.Field)
	require.Zero(t, repo.createHits)

	_, err = svc.Create(ctx, adminActor(), CreateClassGroupInput{
		Name:           "Class of 2012",
		Description:    strings.Repeat("x", 1000),
		GraduationYear: 2012,
	})
	require.NoError(t, err)
}

func TestClassGroupServiceGetHidesPrivate(t *testing.T) {
	svc, repo, _, _ := newTestClassGroupService()
	ctx := context.Background()

	repo.groups["grp-1"] = &models.ClassGroup{ID: "grp-1", Name: "Private", IsPublic: false}

	_, err := svc.Get(ctx, "grp-1")
	require.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)

	fetched, err := svc.GetAny(ctx, adminActor(), "grp-1")
	require.NoError(t, err)
	require.Equal(t, "Private", fetched.Name)
}

func TestClassGroupServiceToggle(t *testing.T) {
	svc, repo, _, summary := newTestClassGroupService()
	ctx := context.Background()

	repo.groups["grp-1"] = &models.ClassGroup{ID: "grp-1", IsPublic: false}

	toggled, err := svc.Toggle(ctx, adminActor(), "grp-1", "is_public")
	require.NoError(t, err)
	require.True(t, toggled.IsPublic)
	require.Equal(t, 1, summary.invalidations)

	_, err = svc.Toggle(ctx, adminActor(), "grp-1", "is_published")
	require.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
}

func TestClassGroupServiceDeletePropagates(t *testing.T) {
	svc, repo, attachments, _ := newTestClassGroupService()
	ctx := context.Background()

	attID := "att-1"
	attachments.stored[attID] = &models.Attachment{ID: attID}
	repo.groups["grp-1"] = &models.ClassGroup{ID: "grp-1", AttachmentID: &attID}

	require.NoError(t, svc.Delete(ctx, adminActor(), "grp-1"))
	require.Empty(t, repo.groups)
	require.Contains(t, attachments.deleted, attID)
}
