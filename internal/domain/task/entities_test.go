package task

import (
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 30 * time.Second},
		{1, 30 * time.Second},
		{2, time.Minute},
		{3, 2 * time.Minute},
		{7, 32 * time.Minute},
		{8, time.Hour},
		{20, time.Hour},
	}
	for _, tt := range tests {
		if got := Backoff(tt.attempt); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestNewAndDecode(t *testing.T) {
	at := time.Date(2026, 5, 1, 8, 0, 0, 0, time.FixedZone("x", 3600))
	tk, err := New("tid", KindOfferLetterSend, OfferLetterSendPayload{OfferLetterID: "ol-1"}, 0, at)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tk.Status != StatusPending || tk.MaxAttempts != 1 || tk.NextRunAt.Location() != time.UTC {
		t.Fatalf("unexpected task: %+v", tk)
	}
	var p OfferLetterSendPayload
	if err := tk.Decode(&p); err != nil || p.OfferLetterID != "ol-1" {
		t.Fatalf("Decode = %+v, %v", p, err)
	}

	if _, err := New("tid", KindNotification, make(chan int), 3, at); err == nil {
		t.Fatalf("unencodable payload must fail")
	}
}
