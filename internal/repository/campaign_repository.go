package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nkc-crm/campaign-sync-api/internal/models"
)

// CampaignRepository reads campaigns and flips their status. The campaign
// module proper owns everything else about the entity.
type CampaignRepository struct {
	db *sqlx.DB
}

// NewCampaignRepository constructs the repository.
func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

const campaignColumns = `id, name, status, department_id, created_at, updated_at`

// GetByID fetches a single campaign.
func (r *CampaignRepository) GetByID(ctx context.Context, id int64) (*models.Campaign, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE id = $1`, campaignColumns)
	var campaign models.Campaign
	if err := r.db.GetContext(ctx, &campaign, query, id); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// ListByStatus returns campaigns currently in the given status.
func (r *CampaignRepository) ListByStatus(ctx context.Context, status models.CampaignStatus) ([]models.Campaign, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE status = $1 ORDER BY id ASC`, campaignColumns)
	var campaigns []models.Campaign
	if err := r.db.SelectContext(ctx, &campaigns, query, status); err != nil {
		return nil, fmt.Errorf("list campaigns by status: %w", err)
	}
	return campaigns, nil
}

// UpdateStatus flips a campaign's status.
func (r *CampaignRepository) UpdateStatus(ctx context.Context, id int64, status models.CampaignStatus) error {
	const query = `UPDATE campaigns SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update campaign status: %w", err)
	}
	return nil
}
