package status

import (
	"time"

	"loan-origination/internal/domain/audit"
)

type UpdateStatusInput struct {
	ApplicationID   string
	Status          string
	ActorExternalID string
	Reason          string
	// RejectionReason is required when Status is rejected.
	RejectionReason string
	Metadata        map[string]any
}

type UpdateStatusResult struct {
	Success         bool   `json:"success"`
	ApplicationID   string `json:"application_id"`
	PreviousStatus  string `json:"previous_status"`
	NewStatus       string `json:"new_status"`
	Message         string `json:"message"`
	SnapshotCreated bool   `json:"snapshot_created"`
	SnapshotID      string `json:"snapshot_id,omitempty"`
	AuditEntryID    string `json:"audit_entry_id"`
	OfferLetterID   string `json:"offer_letter_id,omitempty"`
}

type StatusView struct {
	ApplicationID string    `json:"application_id"`
	Status        string    `json:"status"`
	AllowedNext   []string  `json:"allowed_next"`
	IsTerminal    bool      `json:"is_terminal"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type HistoryItem struct {
	EntryID        string       `json:"entry_id"`
	Action         audit.Action `json:"action"`
	PreviousStatus string       `json:"previous_status,omitempty"`
	NewStatus      string       `json:"new_status,omitempty"`
	Reason         string       `json:"reason,omitempty"`
	ChangedBy      uint64       `json:"changed_by"`
	ChangedAt      time.Time    `json:"changed_at"`
}

type History struct {
	ApplicationID string        `json:"application_id"`
	Items         []HistoryItem `json:"items"`
	Total         int64         `json:"total"`
}

// statusChange is the before/after payload of a status audit entry.
type statusChange struct {
	Status          string `json:"status"`
	StatusReason    string `json:"status_reason,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	Version         int64  `json:"version"`
}
