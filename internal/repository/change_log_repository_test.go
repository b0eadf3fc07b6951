package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/nkc-crm/campaign-sync-api/internal/models"
)

func TestChangeLogRepositoryListUnprocessed(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChangeLogRepository(db)

	oldValues, err := json.Marshal(map[string]interface{}{"status": "draft"})
	require.NoError(t, err)
	newValues, err := json.Marshal(map[string]interface{}{"status": "running"})
	require.NoError(t, err)
	changedFields, err := json.Marshal([]string{"status"})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "table_name", "record_id", "action", "old_values", "new_values",
		"changed_fields", "triggered_at", "processed", "processed_at"}).
		AddRow(int64(6), "campaigns", int64(10), "UPDATE", oldValues, newValues, changedFields, time.Now(), false, nil)

	mock.ExpectQuery(regexp.QuoteMeta("table_name IN ($2,$3)")).
		WithArgs(int64(5), "campaigns", "campaign_schedules", 50).
		WillReturnRows(rows)

	entries, err := repo.ListUnprocessed(context.Background(), 5, []string{"campaigns", "campaign_schedules"}, 50)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, int64(6), entries[0].ID)
	require.Equal(t, models.ChangeActionUpdate, entries[0].Action)
	require.Equal(t, models.StringList{"status"}, entries[0].ChangedFields)
	require.Equal(t, "running", entries[0].NewValues["status"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeLogRepositoryListUnprocessedNoTables(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChangeLogRepository(db)
	entries, err := repo.ListUnprocessed(context.Background(), 0, nil, 50)
	require.NoError(t, err)
	require.Nil(t, entries)
}

func TestChangeLogRepositoryMarkProcessed(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChangeLogRepository(db)
	at := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE database_change_log SET processed = true")).
		WithArgs(int64(6), at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkProcessed(context.Background(), 6, at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeLogRepositoryMaxProcessedID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChangeLogRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(id), 0)")).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(int64(42)))

	id, err := repo.MaxProcessedID(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeLogRepositoryCountUnprocessed(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChangeLogRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM database_change_log")).
		WithArgs("campaigns").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountUnprocessed(context.Background(), []string{"campaigns"})
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
