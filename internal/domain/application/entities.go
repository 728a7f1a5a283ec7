package application

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	// ErrStaleVersion is returned by a guarded update when another writer got there first.
	ErrStaleVersion = errors.New("loan application modified concurrently")
)

type LoanApplication struct {
	ID                uint64          `gorm:"primaryKey;column:id" json:"-"`
	ApplicationID     string          `gorm:"size:32;not null;uniqueIndex:ux_loan_applications_application_id" json:"application_id"`
	ApplicationNumber string          `gorm:"size:32;not null;uniqueIndex:ux_loan_applications_number" json:"application_number"`
	UserID            uint64          `gorm:"not null;index:idx_loan_applications_user_status" json:"-"`
	BusinessID        *uint64         `gorm:"index" json:"-"`
	LoanProductID     uint64          `gorm:"not null;index" json:"-"`
	ProductSnapshotID uint64          `gorm:"not null" json:"-"`
	RequestedAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"requested_amount"`
	TermMonths        int             `gorm:"not null" json:"term_months"`
	Currency          string          `gorm:"size:3;not null" json:"currency"`
	Purpose           string          `gorm:"type:text" json:"purpose"`
	Status            Status          `gorm:"size:32;not null;index:idx_loan_applications_user_status" json:"status"`
	StatusReason      string          `gorm:"type:text" json:"status_reason,omitempty"`
	RejectionReason   string          `gorm:"type:text" json:"rejection_reason,omitempty"`
	LastUpdatedBy     *uint64         `json:"-"`
	SubmittedAt       *time.Time      `json:"submitted_at,omitempty"`
	ReviewedAt        *time.Time      `json:"reviewed_at,omitempty"`
	ApprovedAt        *time.Time      `json:"approved_at,omitempty"`
	DisbursedAt       *time.Time      `json:"disbursed_at,omitempty"`
	RejectedAt        *time.Time      `json:"rejected_at,omitempty"`
	WithdrawnAt       *time.Time      `json:"withdrawn_at,omitempty"`
	Version           int64           `gorm:"not null" json:"version"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`
	DeletedBy         *uint64         `json:"-"`
}

func (LoanApplication) TableName() string { return "loan_applications" }

// ApplyStatus moves the row to next and stamps the milestone that belongs to
// it. The rejection reason is only touched when rejecting.
func (a *LoanApplication) ApplyStatus(next Status, actorID uint64, reason, rejectionReason string, at time.Time) {
	a.Status = next
	a.StatusReason = reason
	a.LastUpdatedBy = &actorID
	t := at.UTC()
	switch next {
	case StatusSubmitted:
		a.SubmittedAt = &t
	case StatusUnderReview:
		a.ReviewedAt = &t
	case StatusApproved:
		a.ApprovedAt = &t
	case StatusDisbursed:
		a.DisbursedAt = &t
	case StatusRejected:
		a.RejectedAt = &t
		a.RejectionReason = rejectionReason
	case StatusWithdrawn:
		a.WithdrawnAt = &t
	}
}

// IsEditable reports whether borrower-facing fields may still change.
func (a *LoanApplication) IsEditable() bool { return a.Status == StatusDraft }

// ListFilter narrows List; zero values mean "any".
type ListFilter struct {
	UserID uint64
	Status Status
	Limit  int
	Offset int
}
