// Package events publishes domain events on Redis pub/sub. Publishing is
// best effort: subscribers that miss an event can read the audit trail.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const ChannelStatusChanged = "loan_application.status_changed"

type StatusChanged struct {
	Type           string    `json:"type"`
	ApplicationID  string    `json:"application_id"`
	UserID         string    `json:"user_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	ChangedBy      string    `json:"changed_by"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type Publisher interface {
	PublishStatusChanged(ctx context.Context, ev StatusChanged) error
}

type RedisPublisher struct{ rdb *redis.Client }

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher { return &RedisPublisher{rdb: rdb} }

func (p *RedisPublisher) PublishStatusChanged(ctx context.Context, ev StatusChanged) error {
	ev.Type = ChannelStatusChanged
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, ChannelStatusChanged, payload).Err()
}

// Nop drops events; used when Redis is not configured.
type Nop struct{}

func (Nop) PublishStatusChanged(context.Context, StatusChanged) error { return nil }
