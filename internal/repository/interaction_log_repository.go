package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nkc-crm/campaign-sync-api/internal/models"
)

// InteractionLogRepository reloads interaction logs for change notifications.
type InteractionLogRepository struct {
	db *sqlx.DB
}

// NewInteractionLogRepository constructs the repository.
func NewInteractionLogRepository(db *sqlx.DB) *InteractionLogRepository {
	return &InteractionLogRepository{db: db}
}

// GetByID fetches a single interaction log.
func (r *InteractionLogRepository) GetByID(ctx context.Context, id int64) (*models.CampaignInteractionLog, error) {
	const query = `SELECT id, campaign_id, customer_id, status, created_at, updated_at
FROM campaign_interaction_logs WHERE id = $1`
	var log models.CampaignInteractionLog
	if err := r.db.GetContext(ctx, &log, query, id); err != nil {
		return nil, fmt.Errorf("get interaction log %d: %w", id, err)
	}
	return &log, nil
}
