package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nkc-crm/campaign-sync-api/internal/models"
)

// ChangeLogRepository reads the trigger-populated change log. The feed is
// append-only; this repository only ever mutates the processed marker.
type ChangeLogRepository struct {
	db *sqlx.DB
}

// NewChangeLogRepository constructs the repository.
func NewChangeLogRepository(db *sqlx.DB) *ChangeLogRepository {
	return &ChangeLogRepository{db: db}
}

const changeLogColumns = `id, table_name, record_id, action, old_values, new_values, changed_fields,
triggered_at, processed, processed_at`

// ListUnprocessed returns up to limit unprocessed rows with id > afterID
// for the watched tables, in strictly increasing id order.
func (r *ChangeLogRepository) ListUnprocessed(ctx context.Context, afterID int64, tables []string, limit int) ([]models.ChangeLogEntry, error) {
	if len(tables) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	args := []interface{}{afterID}
	placeholders := make([]string, len(tables))
	for i, table := range tables {
		args = append(args, table)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT %s FROM database_change_log
WHERE id > $1 AND processed = false AND table_name IN (%s)
ORDER BY id ASC
LIMIT $%d`, changeLogColumns, strings.Join(placeholders, ","), len(args))

	var entries []models.ChangeLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list unprocessed changes: %w", err)
	}
	return entries, nil
}

// MarkProcessed stamps a row as consumed.
func (r *ChangeLogRepository) MarkProcessed(ctx context.Context, id int64, at time.Time) error {
	const query = `UPDATE database_change_log SET processed = true, processed_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("mark change %d processed: %w", id, err)
	}
	return nil
}

// MaxProcessedID returns the highest id already marked processed, the
// startup resumption cursor. Returns 0 on an empty log.
func (r *ChangeLogRepository) MaxProcessedID(ctx context.Context) (int64, error) {
	const query = `SELECT COALESCE(MAX(id), 0) FROM database_change_log WHERE processed = true`
	var id int64
	if err := r.db.GetContext(ctx, &id, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("max processed change id: %w", err)
	}
	return id, nil
}

// CountUnprocessed counts pending rows for the watched tables.
func (r *ChangeLogRepository) CountUnprocessed(ctx context.Context, tables []string) (int, error) {
	if len(tables) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(tables))
	args := make([]interface{}, len(tables))
	for i, table := range tables {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = table
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM database_change_log WHERE processed = false AND table_name IN (%s)`,
		strings.Join(placeholders, ","))

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count unprocessed changes: %w", err)
	}
	return count, nil
}
