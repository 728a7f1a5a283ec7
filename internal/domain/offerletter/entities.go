package offerletter

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"loan-origination/internal/domain/application"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusCompleted Status = "completed"
	StatusDeclined  Status = "declined"
	StatusVoided    Status = "voided"
	StatusExpired   Status = "expired"
)

// ParseEnvelopeStatus maps a signing-service status string.
func ParseEnvelopeStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusSent, StatusDelivered, StatusCompleted, StatusDeclined, StatusVoided:
		return st, nil
	}
	return "", fmt.Errorf("unknown envelope status %q", s)
}

// PendingStatuses are the letter states still waiting on the borrower.
// Only these can expire.
var PendingStatuses = []Status{StatusDraft, StatusSent, StatusDelivered}

func (s Status) rank() int {
	switch s {
	case StatusDraft:
		return 0
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	}
	return 3
}

// Pending reports whether the envelope has not reached an outcome yet.
func (s Status) Pending() bool { return s.rank() < 3 }

// Accepts reports whether an envelope update moves the letter forward.
// Outcomes are final and late or out-of-order updates are ignored.
func (o *OfferLetter) Accepts(s Status) bool {
	return o.Status.Pending() && s.rank() > o.Status.rank()
}

// Expirable reports whether the letter is active, pending and past its
// deadline at now.
func (o *OfferLetter) Expirable(now time.Time) bool {
	return o.IsActive && o.Status.Pending() && o.ExpiresAt != nil && o.ExpiresAt.Before(now)
}

// ApplicationStatusFor returns the parent application status an envelope
// outcome advances to, if any.
func ApplicationStatusFor(s Status) (application.Status, bool) {
	switch s {
	case StatusCompleted:
		return application.StatusOfferLetterSigned, true
	case StatusDeclined:
		return application.StatusOfferLetterDeclined, true
	}
	return "", false
}

// OfferLetter is a versioned offer tied to one application. At most one per
// application is active; the unique (loan_application_id, active_marker)
// index enforces it since NULL markers never collide.
type OfferLetter struct {
	ID                 uint64                       `gorm:"primaryKey;column:id" json:"-"`
	OfferLetterID      string                       `gorm:"size:32;not null;uniqueIndex:ux_offer_letters_offer_letter_id" json:"offer_letter_id"`
	LoanApplicationID  uint64                       `gorm:"not null;uniqueIndex:ux_offer_letters_active" json:"-"`
	LoanApplication    *application.LoanApplication `gorm:"foreignKey:LoanApplicationID;constraint:OnDelete:CASCADE" json:"-"`
	Version            int                          `gorm:"not null" json:"version"`
	Amount             decimal.Decimal              `gorm:"type:decimal(18,2);not null" json:"amount"`
	TermMonths         int                          `gorm:"not null" json:"term_months"`
	InterestRate       decimal.Decimal              `gorm:"type:decimal(7,4);not null" json:"interest_rate"`
	MonthlyInstallment decimal.Decimal              `gorm:"type:decimal(18,2);not null" json:"monthly_installment"`
	Currency           string                       `gorm:"size:3;not null" json:"currency"`
	Status             Status                       `gorm:"size:16;not null;index" json:"status"`
	EnvelopeID         string                       `gorm:"size:128;index" json:"envelope_id,omitempty"`
	IsActive           bool                         `gorm:"not null" json:"is_active"`
	ActiveMarker       *bool                        `gorm:"uniqueIndex:ux_offer_letters_active" json:"-"`
	CreatedBy          uint64                       `gorm:"not null" json:"-"`
	SentAt             *time.Time                   `json:"sent_at,omitempty"`
	SignedAt           *time.Time                   `json:"signed_at,omitempty"`
	DeclinedAt         *time.Time                   `json:"declined_at,omitempty"`
	ExpiresAt          *time.Time                   `json:"expires_at,omitempty"`
	CreatedAt          time.Time                    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time                    `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt               `gorm:"index" json:"-"`
}

func (OfferLetter) TableName() string { return "offer_letters" }

// BeforeSave keeps ActiveMarker in step with IsActive.
func (o *OfferLetter) BeforeSave(tx *gorm.DB) error {
	if o.IsActive {
		t := true
		o.ActiveMarker = &t
	} else {
		o.ActiveMarker = nil
	}
	return nil
}

// ApplyEnvelopeStatus records a signing-service update.
func (o *OfferLetter) ApplyEnvelopeStatus(s Status, at time.Time) {
	o.Status = s
	t := at.UTC()
	switch s {
	case StatusSent:
		if o.SentAt == nil {
			o.SentAt = &t
		}
	case StatusCompleted:
		o.SignedAt = &t
	case StatusDeclined:
		o.DeclinedAt = &t
		o.IsActive = false
	case StatusVoided, StatusExpired:
		o.IsActive = false
	}
}

// MonthlyInstallment computes an amortized payment for principal at an
// annual percentage rate over termMonths, rounded to cents.
func MonthlyInstallment(principal, annualRatePct decimal.Decimal, termMonths int) decimal.Decimal {
	if termMonths <= 0 {
		return decimal.Zero
	}
	n := decimal.NewFromInt(int64(termMonths))
	if annualRatePct.IsZero() {
		return principal.Div(n).Round(2)
	}
	r := annualRatePct.Div(decimal.NewFromInt(1200))
	growth := decimal.NewFromInt(1).Add(r).Pow(n)
	installment := principal.Mul(r).Mul(growth).Div(growth.Sub(decimal.NewFromInt(1)))
	return installment.Round(2)
}
