package task

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	// StatusDead holds tasks that exhausted their attempts.
	StatusDead Status = "dead"
)

const (
	KindNotification    = "notification.send"
	KindOfferLetterSend = "offer_letter.send"
)

// Task is a durable unit of asynchronous work, delivered at least once.
type Task struct {
	ID          uint64         `gorm:"primaryKey;column:id" json:"-"`
	TaskID      string         `gorm:"size:36;not null;uniqueIndex:ux_tasks_task_id" json:"task_id"`
	Kind        string         `gorm:"size:64;not null;index" json:"kind"`
	Payload     datatypes.JSON `gorm:"not null" json:"payload"`
	Status      Status         `gorm:"size:16;not null;index:idx_tasks_due" json:"status"`
	Attempts    int            `gorm:"not null" json:"attempts"`
	MaxAttempts int            `gorm:"not null" json:"max_attempts"`
	NextRunAt   time.Time      `gorm:"not null;index:idx_tasks_due" json:"next_run_at"`
	LockedUntil *time.Time     `json:"locked_until,omitempty"`
	LastError   string         `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Task) TableName() string { return "tasks" }

// Backoff returns the delay before retry number attempt (1-based): 30s, 1m, 2m ... capped at 1h.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := 30 * time.Second
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= time.Hour {
			return time.Hour
		}
	}
	return d
}

// NotificationPayload is the body of a KindNotification task.
type NotificationPayload struct {
	ApplicationID  string `json:"application_id"`
	Template       string `json:"template"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
	Reason         string `json:"reason,omitempty"`
}

// OfferLetterSendPayload is the body of a KindOfferLetterSend task.
type OfferLetterSendPayload struct {
	OfferLetterID string `json:"offer_letter_id"`
}

// New builds a pending task due at runAt.
func New(taskID, kind string, payload any, maxAttempts int, runAt time.Time) (*Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Task{
		TaskID:      taskID,
		Kind:        kind,
		Payload:     datatypes.JSON(b),
		Status:      StatusPending,
		MaxAttempts: maxAttempts,
		NextRunAt:   runAt.UTC(),
	}, nil
}

// Decode unmarshals the payload into v.
func (t *Task) Decode(v any) error {
	if err := json.Unmarshal(t.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", t.Kind, err)
	}
	return nil
}
