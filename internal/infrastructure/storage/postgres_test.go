package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CityWatch/internal/domain"
)

func newMockRepo(t *testing.T) (*ComplaintRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewComplaintRepository(db), mock
}

func TestSaveInsertsRecord(t *testing.T) {
	repo, mock := newMockRepo(t)

	c := &domain.Complaint{
		ID:          "11111111-2222-3333-4444-555555555555",
		Title:       "Pothole on Lenina",
		Description: "Big pothole near the crosswalk",
		Category:    "Roads",
		Status:      domain.StatusOpen,
		Address:     "ul. Lenina 15, Nizhnevartovsk",
	}

	mock.ExpectExec("INSERT INTO complaints").
		WithArgs(c.ID, c.Title, c.Description, c.Category, c.Status,
			nil, nil, c.Address, "", "", "", "", 0,
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), c)
	require.NoError(t, err)
	assert.False(t, c.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentByCategoryFiltersByCutoff(t *testing.T) {
	repo, mock := newMockRepo(t)

	since := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "title", "description", "category", "status", "address"}).
		AddRow("id-1", "Pothole", "text", "Roads", "open", "ul. Lenina 15")

	mock.ExpectQuery("SELECT (.+) FROM complaints WHERE category = \\$1 AND created_at >= \\$2").
		WithArgs("Roads", since).
		WillReturnRows(rows)

	got, err := repo.RecentByCategory(context.Background(), "Roads", since)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "id-1", got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveSelectsUnresolvedWithCoords(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "category", "status", "lat", "lon"}).
		AddRow("id-1", "Roads", "open", 60.93, 76.55).
		AddRow("id-2", "Lighting", "in_progress", 60.94, 76.56)

	mock.ExpectQuery("SELECT (.+) FROM complaints WHERE status IN \\(\\$1,\\$2\\) AND lat IS NOT NULL AND lon IS NOT NULL").
		WithArgs("open", "in_progress").
		WillReturnRows(rows)

	got, err := repo.Active(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].HasCoords())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddSupporterIncrements(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE complaints SET supporter_count = supporter_count \\+ 1").
		WithArgs(sqlmock.AnyArg(), "id-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AddSupporter(context.Background(), "id-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddSupporterUnknownID(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE complaints").
		WithArgs(sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AddSupporter(context.Background(), "missing")
	assert.Error(t, err)
}
