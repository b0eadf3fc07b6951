package models

import "time"

// FieldChange captures the old/new pair for a single changed column.
type FieldChange struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// ChangeSet maps changed column names to their old/new values.
type ChangeSet map[string]FieldChange

// DatabaseChangeEvent is the internal domain event emitted for every
// processed change-log row, consumed by in-process subscribers.
type DatabaseChangeEvent struct {
	ID          string       `json:"id"`
	Entity      string       `json:"entity"`
	Action      ChangeAction `json:"action"`
	EntityID    int64        `json:"entity_id"`
	Changes     ChangeSet    `json:"changes"`
	Timestamp   time.Time    `json:"timestamp"`
	TriggeredBy string       `json:"triggered_by"`
}

// RealtimeEventBase carries the fields common to every outbound
// notification. Clients treat refresh_request as "re-fetch affected
// data" rather than a full state transfer.
type RealtimeEventBase struct {
	Type           string    `json:"type"`
	EntityID       int64     `json:"entity_id"`
	Changes        ChangeSet `json:"changes"`
	Timestamp      time.Time `json:"timestamp"`
	TriggeredBy    string    `json:"triggered_by"`
	RefreshRequest bool      `json:"refresh_request"`
}

// CampaignRealtimeEvent notifies clients about a campaign row change.
type CampaignRealtimeEvent struct {
	RealtimeEventBase
	CampaignID     int64          `json:"campaign_id"`
	CampaignName   string         `json:"campaign_name"`
	CampaignStatus CampaignStatus `json:"campaign_status"`
	DepartmentID   int64          `json:"department_id"`
}

// InteractionLogRealtimeEvent notifies clients about an interaction log change.
type InteractionLogRealtimeEvent struct {
	RealtimeEventBase
	CampaignID        int64  `json:"campaign_id"`
	CustomerID        int64  `json:"customer_id"`
	InteractionStatus string `json:"interaction_status"`
}

// CampaignScheduleRealtimeEvent notifies clients about a campaign schedule change.
type CampaignScheduleRealtimeEvent struct {
	RealtimeEventBase
	CampaignID int64      `json:"campaign_id"`
	IsActive   bool       `json:"is_active"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

// RealtimeBatch is the payload broadcast to a room after a debounce flush.
type RealtimeBatch struct {
	Events         []interface{} `json:"events"`
	RefreshRequest bool          `json:"refresh_request"`
}
