package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	sum := sha256.Sum256([]byte("hello world"))
	assert.Equal(t, hex.EncodeToString(sum[:]), fingerprint([]byte("hello world")))
	assert.NotEqual(t, fingerprint([]byte(`{"x":1}`)), fingerprint([]byte(`{"x":2}`)))
}

func TestSlotKey(t *testing.T) {
	assert.Equal(t, "idem:post:/applications/:application_id:auth0|user-1:"+testKey,
		slotKey("POST", "/applications/:application_id", "auth0|user-1", testKey))
}

func TestNormalizeKey(t *testing.T) {
	accepted := []struct{ in, want string }{
		{"3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88", "3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88"},
		{"3F9A6A1B-3D54-4FBE-8B3A-6B3E8D6B2C88", "3f9a6a1b-3d54-4fbe-8b3a-6b3e8d6b2c88"},
		{" " + testKey + " ", testKey},
		{"3f9a6a1b3d544fbe8b3a6b3e8d6b2c88", "3f9a6a1b3d544fbe8b3a6b3e8d6b2c88"},
		{strings.ToUpper(testKey), testKey},
	}
	for _, tc := range accepted {
		got, ok := normalizeKey(tc.in)
		assert.True(t, ok, tc.in)
		assert.Equal(t, tc.want, got)
	}

	for _, in := range []string{
		"",
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c8",
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c880",
		"zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz",
		"3f9a6a1b-3d54-9fbe-8b3a-6b3e8d6b2c88",
	} {
		_, ok := normalizeKey(in)
		assert.False(t, ok, in)
	}
}

func TestParseRequestTimestamp(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		raw  string
		want time.Time
	}{
		{strconv.FormatInt(now.Unix(), 10), time.Unix(now.Unix(), 0).UTC()},
		{strconv.FormatInt(now.UnixMilli(), 10), time.UnixMilli(now.UnixMilli()).UTC()},
		{"2025-09-05T10:00:00+07:00", time.Date(2025, 9, 5, 3, 0, 0, 0, time.UTC)},
		{"2025-09-05T03:00:00Z", time.Date(2025, 9, 5, 3, 0, 0, 0, time.UTC)},
		{"2025-09-05T03:00:00.250Z", time.Date(2025, 9, 5, 3, 0, 0, 250_000_000, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseRequestTimestamp(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.True(t, got.Equal(tt.want), "%s: got %v want %v", tt.raw, got, tt.want)
		assert.Equal(t, time.UTC, got.Location())
	}

	for _, raw := range []string{"", "not-a-time", "2025-09-05T10:00:00", "1736123456abc"} {
		_, err := parseRequestTimestamp(raw)
		assert.Error(t, err, raw)
	}
}

func TestReadIdempotencyHeaders(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	h := http.Header{}
	h.Set(HeaderIdempotencyKey, strings.ToUpper(testKey))
	h.Set(HeaderRequestTimestamp, now.Add(-time.Minute).Format(time.RFC3339))

	key, sentAt, bad := readIdempotencyHeaders(h, now)
	require.Nil(t, bad)
	assert.Equal(t, testKey, key)
	assert.True(t, sentAt.Equal(now.Add(-time.Minute)))

	h.Set(HeaderRequestTimestamp, now.Add(maxClockSkew+time.Second).Format(time.RFC3339))
	_, _, bad = readIdempotencyHeaders(h, now)
	require.NotNil(t, bad)
	assert.Equal(t, "REQUEST_TIMESTAMP_SKEWED", bad.Code)
}

func TestReplayStore_Lifecycle(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	s := &replayStore{rdb: rdb, ttl: 5 * time.Minute}
	slot := slotKey(http.MethodPost, "/applications", testSubject, testKey)

	won, err := s.reserve(ctx, slot, record{Fingerprint: "fp"})
	require.NoError(t, err)
	require.True(t, won)
	assert.Equal(t, pendingTTL, mr.TTL(slot))

	won, err = s.reserve(ctx, slot, record{Fingerprint: "fp"})
	require.NoError(t, err)
	assert.False(t, won, "second reserve must lose")

	got, err := s.load(ctx, slot)
	require.NoError(t, err)
	assert.True(t, got.Pending)
	assert.False(t, got.StoredAt.IsZero())

	require.NoError(t, s.finish(ctx, slot, record{Status: http.StatusCreated, Body: []byte(`{"ok":true}`), Fingerprint: "fp"}))
	got, err = s.load(ctx, slot)
	require.NoError(t, err)
	assert.False(t, got.Pending)
	assert.Equal(t, http.StatusCreated, got.Status)
	assert.JSONEq(t, `{"ok":true}`, string(got.Body))
	assert.Equal(t, 5*time.Minute, mr.TTL(slot))

	require.NoError(t, s.release(ctx, slot))
	_, err = s.load(ctx, slot)
	assert.True(t, errors.Is(err, redis.Nil))
}

func TestReplayStore_PendingLockExpires(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	s := &replayStore{rdb: rdb, ttl: time.Minute}

	_, err := s.reserve(ctx, "idem:slot", record{})
	require.NoError(t, err)
	mr.FastForward(pendingTTL + time.Second)

	won, err := s.reserve(ctx, "idem:slot", record{})
	require.NoError(t, err)
	assert.True(t, won)
}

func TestReplayStore_CorruptEntry(t *testing.T) {
	mr, rdb := newRedis(t)
	require.NoError(t, mr.Set("idem:slot", "not json"))
	_, err := (&replayStore{rdb: rdb}).load(context.Background(), "idem:slot")
	require.Error(t, err)
	assert.False(t, errors.Is(err, redis.Nil))
}
