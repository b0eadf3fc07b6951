package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/nkc-crm/campaign-sync-api/internal/models"
)

// CampaignScheduleRepository reads the one-to-one campaign time anchors.
type CampaignScheduleRepository struct {
	db *sqlx.DB
}

// NewCampaignScheduleRepository constructs the repository.
func NewCampaignScheduleRepository(db *sqlx.DB) *CampaignScheduleRepository {
	return &CampaignScheduleRepository{db: db}
}

const campaignScheduleColumns = `id, campaign_id, is_active, start_date, end_date, created_at, updated_at`

// GetByID fetches a campaign schedule by its own id.
func (r *CampaignScheduleRepository) GetByID(ctx context.Context, id int64) (*models.CampaignSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaign_schedules WHERE id = $1`, campaignScheduleColumns)
	var schedule models.CampaignSchedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// GetByCampaignID fetches the schedule attached to a campaign.
// Returns sql.ErrNoRows when the campaign has none.
func (r *CampaignScheduleRepository) GetByCampaignID(ctx context.Context, campaignID int64) (*models.CampaignSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaign_schedules WHERE campaign_id = $1`, campaignScheduleColumns)
	var schedule models.CampaignSchedule
	if err := r.db.GetContext(ctx, &schedule, query, campaignID); err != nil {
		return nil, err
	}
	return &schedule, nil
}
