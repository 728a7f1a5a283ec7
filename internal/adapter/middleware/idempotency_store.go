package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// record is what the replay store keeps per idempotency slot.
type record struct {
	Pending     bool      `json:"pending"`
	Status      int       `json:"status,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Body        []byte    `json:"body,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	SentAt      time.Time `json:"sent_at"`
	StoredAt    time.Time `json:"stored_at"`
}

type replayStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// reserve claims slot for one in-flight request. false means somebody else
// holds it or already finished.
func (s *replayStore) reserve(ctx context.Context, slot string, r record) (bool, error) {
	r.Pending = true
	r.StoredAt = nowUTC()
	payload, err := json.Marshal(r)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, slot, payload, pendingTTL).Result()
}

func (s *replayStore) load(ctx context.Context, slot string) (record, error) {
	var r record
	raw, err := s.rdb.Get(ctx, slot).Bytes()
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return r, fmt.Errorf("decode %s: %w", slot, err)
	}
	return r, nil
}

func (s *replayStore) finish(ctx context.Context, slot string, r record) error {
	r.Pending = false
	r.StoredAt = nowUTC()
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, slot, payload, s.ttl).Err()
}

func (s *replayStore) release(ctx context.Context, slot string) error {
	return s.rdb.Del(ctx, slot).Err()
}

func fingerprint(b []byte) string { s := sha256.Sum256(b); return hex.EncodeToString(s[:]) }

func nowUTC() time.Time { return time.Now().UTC() }

func slotKey(method, route, subject, key string) string {
	return strings.Join([]string{"idem", strings.ToLower(method), route, subject, key}, ":")
}

var (
	reUUID  = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[1-5][a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$`)
	reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)
)

// normalizeKey lowercases a UUID or 32-hex idempotency key; ok is false for
// anything else.
func normalizeKey(raw string) (string, bool) {
	k := strings.ToLower(strings.TrimSpace(raw))
	return k, reUUID.MatchString(k) || reHex32.MatchString(k)
}

var errNaiveTimestamp = errors.New(HeaderRequestTimestamp + " must be epoch seconds, epoch milliseconds or RFC3339 with a zone")

// parseRequestTimestamp takes epoch seconds, epoch milliseconds or RFC3339
// with an explicit zone. Values above 1e12 are milliseconds.
func parseRequestTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing " + HeaderRequestTimestamp)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, errNaiveTimestamp
	}
	return t.UTC(), nil
}

// readIdempotencyHeaders validates the key and timestamp headers against now.
func readIdempotencyHeaders(h http.Header, now time.Time) (string, time.Time, *problem) {
	raw := h.Get(HeaderIdempotencyKey)
	if strings.TrimSpace(raw) == "" {
		return "", time.Time{}, &problem{Error: "missing " + HeaderIdempotencyKey, Code: "IDEMPOTENCY_KEY_REQUIRED"}
	}
	key, ok := normalizeKey(raw)
	if !ok {
		return "", time.Time{}, &problem{Error: HeaderIdempotencyKey + " must be a UUID or 32 hex characters", Code: "IDEMPOTENCY_KEY_INVALID"}
	}
	sentAt, err := parseRequestTimestamp(h.Get(HeaderRequestTimestamp))
	if err != nil {
		return "", time.Time{}, &problem{Error: err.Error(), Code: "REQUEST_TIMESTAMP_INVALID"}
	}
	if sentAt.Before(now.Add(-maxClockSkew)) || sentAt.After(now.Add(maxClockSkew)) {
		return "", time.Time{}, &problem{Error: HeaderRequestTimestamp + " is outside the allowed clock skew", Code: "REQUEST_TIMESTAMP_SKEWED"}
	}
	return key, sentAt, nil
}
