package schema

import "time"

// StoreStatus represents the status of the survey store.
type StoreStatus struct {
	Backend        string           `json:"backend"`
	Connected      bool             `json:"connected"`
	SchemaVersion  uint             `json:"schema_version"`
	Dirty          bool             `json:"dirty"`
	TotalUsers     int              `json:"total_users"`
	CompletedUsers int              `json:"completed_users"`
	LastSubmission *time.Time       `json:"last_submission,omitempty"`
	TableSizes     map[string]int64 `json:"table_sizes"`
}
