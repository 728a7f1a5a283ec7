// Package application holds the loan-application aggregate and its lifecycle.
//
// Status graph:
//
//	draft ─► submitted ─► under_review ─► approved ─► offer_letter_sent ─► offer_letter_signed ─► disbursed
//	             ▲                │            │               │
//	             └── rejected ◄───┘            └─► disbursed   └─► offer_letter_declined ─► approved | rejected
//
// Every non-terminal state may also move to withdrawn. withdrawn, disbursed
// and expired are terminal.
package application

import (
	"fmt"

	"loan-origination/internal/domain/apperr"
)

type Status string

const (
	StatusDraft               Status = "draft"
	StatusSubmitted           Status = "submitted"
	StatusUnderReview         Status = "under_review"
	StatusApproved            Status = "approved"
	StatusOfferLetterSent     Status = "offer_letter_sent"
	StatusOfferLetterSigned   Status = "offer_letter_signed"
	StatusOfferLetterDeclined Status = "offer_letter_declined"
	StatusRejected            Status = "rejected"
	StatusWithdrawn           Status = "withdrawn"
	StatusDisbursed           Status = "disbursed"
	StatusExpired             Status = "expired"
)

// AllStatuses is the closed status set, in lifecycle order.
var AllStatuses = []Status{
	StatusDraft,
	StatusSubmitted,
	StatusUnderReview,
	StatusApproved,
	StatusOfferLetterSent,
	StatusOfferLetterSigned,
	StatusOfferLetterDeclined,
	StatusRejected,
	StatusWithdrawn,
	StatusDisbursed,
	StatusExpired,
}

// transitions lists every allowed (from → to) pair. Every member of
// AllStatuses has an entry, terminal states map to an empty set.
var transitions = map[Status][]Status{
	StatusDraft:               {StatusSubmitted, StatusWithdrawn},
	StatusSubmitted:           {StatusUnderReview, StatusWithdrawn},
	StatusUnderReview:         {StatusApproved, StatusRejected, StatusWithdrawn},
	StatusApproved:            {StatusOfferLetterSent, StatusDisbursed, StatusWithdrawn},
	StatusOfferLetterSent:     {StatusOfferLetterSigned, StatusOfferLetterDeclined, StatusWithdrawn},
	StatusOfferLetterSigned:   {StatusDisbursed, StatusWithdrawn},
	StatusOfferLetterDeclined: {StatusApproved, StatusRejected, StatusWithdrawn},
	StatusRejected:            {StatusSubmitted, StatusWithdrawn},
	StatusWithdrawn:           {},
	StatusDisbursed:           {},
	StatusExpired:             {},
}

// ParseStatus converts a raw string to a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("unknown loan application status %q", s)
	}
	return st, nil
}

// AllowedNext returns the statuses reachable from current. An unknown
// current status means the stored row is corrupt.
func AllowedNext(current Status) ([]Status, error) {
	next, ok := transitions[current]
	if !ok {
		return nil, apperr.Internal("INVALID_STATUS_DATA",
			fmt.Sprintf("loan application has unknown status %q", current), nil)
	}
	out := make([]Status, len(next))
	copy(out, next)
	return out, nil
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s Status) bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// Validate checks current → requested against the table. On success it
// returns the set allowed from current.
func Validate(current, requested Status) ([]Status, error) {
	allowed, err := AllowedNext(current)
	if err != nil {
		return nil, err
	}
	if _, ok := transitions[requested]; !ok {
		return allowed, apperr.InvalidParameters("INVALID_STATUS",
			fmt.Sprintf("unknown requested status %q", requested))
	}
	for _, s := range allowed {
		if s == requested {
			return allowed, nil
		}
	}
	return allowed, apperr.InvalidTransition(
		fmt.Sprintf("cannot transition from %s to %s", current, requested),
		Strings(allowed),
	)
}

// Strings converts a status list for transport.
func Strings(list []Status) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, string(s))
	}
	return out
}
