package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ChangeAction is the row-level mutation kind recorded by the triggers.
type ChangeAction string

const (
	ChangeActionInsert ChangeAction = "INSERT"
	ChangeActionUpdate ChangeAction = "UPDATE"
	ChangeActionDelete ChangeAction = "DELETE"
)

// JSONMap scans a JSON object column into a generic map.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = nil
		return nil
	default:
		return fmt.Errorf("unsupported json map source type %T", src)
	}
}

// StringList scans a JSON string array column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		*l = nil
		return nil
	default:
		return fmt.Errorf("unsupported string list source type %T", src)
	}
}

// ChangeLogEntry is one row of the append-only trigger-populated change
// log. The id is strictly increasing and is the only safe resumption
// cursor. Only the dispatcher mutates the processed marker.
type ChangeLogEntry struct {
	ID            int64        `db:"id" json:"id"`
	TableName     string       `db:"table_name" json:"table_name"`
	RecordID      int64        `db:"record_id" json:"record_id"`
	Action        ChangeAction `db:"action" json:"action"`
	OldValues     JSONMap      `db:"old_values" json:"old_values,omitempty"`
	NewValues     JSONMap      `db:"new_values" json:"new_values,omitempty"`
	ChangedFields StringList   `db:"changed_fields" json:"changed_fields,omitempty"`
	TriggeredAt   time.Time    `db:"triggered_at" json:"triggered_at"`
	Processed     bool         `db:"processed" json:"processed"`
	ProcessedAt   *time.Time   `db:"processed_at" json:"processed_at,omitempty"`
}
