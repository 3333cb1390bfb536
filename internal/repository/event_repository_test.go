package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/smansa-dev/portal-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func eventRows(events ...models.Event) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "title", "description", "status", "start_date", "end_date",
		"is_published", "is_featured", "attachment_id", "attachment_uri", "created_at", "updated_at"})
	for _, e := range events {
		rows.AddRow(e.ID, e.Title, e.Description, e.Status, e.StartDate, e.EndDate,
			e.IsPublished, e.IsFeatured, e.AttachmentID, e.AttachmentURI, e.CreatedAt, e.UpdatedAt)
	}
	return rows
}

func TestEventRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO events")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	event := &models.Event{
		Title:       "Reunion",
		Status:      models.EventStatusUpcoming,
		StartDate:   time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 8, 1, 17, 0, 0, 0, time.UTC),
		IsPublished: true,
	}
	require.NoError(t, repo.Create(context.Background(), event))
	require.NotEmpty(t, event.ID, "create assigns an id")
	require.False(t, event.UpdatedAt.IsZero())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT e.id, e.title")).
		WithArgs(event.ID).
		WillReturnRows(eventRows(*event))

	found, err := repo.FindByID(context.Background(), event.ID)
	require.NoError(t, err)
	require.Equal(t, event.ID, found.ID)
	require.Equal(t, "Reunion", found.Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryListVisibleUpcoming(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	published := models.Event{ID: "e1", Title: "Open Day", Status: models.EventStatusUpcoming,
		StartDate: asOf.AddDate(0, 1, 0), EndDate: asOf.AddDate(0, 1, 1), IsPublished: true}

	mock.ExpectQuery("(?s)SELECT e.id, .+ e.is_published = TRUE .+ e.start_date >= .+ ORDER BY e.start_date ASC, e.id ASC").
		WithArgs(asOf).
		WillReturnRows(eventRows(published))
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs(asOf).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	events, total, err := repo.List(context.Background(), models.EventFilter{
		VisibleOnly: true,
		Timeframe:   models.TimeframeUpcoming,
		AsOf:        asOf,
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, events, 1)
	require.Equal(t, "e1", events[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryUpdateMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Event{ID: "missing"})
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEventRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEventRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM events")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, repo.Delete(context.Background(), "missing"), sql.ErrNoRows)
}
