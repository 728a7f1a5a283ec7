package application

import (
	"time"

	"github.com/shopspring/decimal"

	domain "loan-origination/internal/domain/application"
	"loan-origination/internal/domain/product"
)

type CreateInput struct {
	ActorExternalID string
	ProductID       string
	BusinessID      string
	RequestedAmount decimal.Decimal
	TermMonths      int
	Currency        string
	Purpose         string
}

// UpdateInput carries a partial edit; nil fields are left unchanged.
type UpdateInput struct {
	ActorExternalID string
	ApplicationID   string
	RequestedAmount *decimal.Decimal
	TermMonths      *int
	Purpose         *string
}

type ListInput struct {
	ActorExternalID string
	Status          string
	Limit           int
	Offset          int
}

type ApplicationDTO struct {
	ApplicationID     string          `json:"application_id"`
	ApplicationNumber string          `json:"application_number"`
	OwnerUserID       string          `json:"owner_user_id,omitempty"`
	BusinessID        string          `json:"business_id,omitempty"`
	Product           *ProductTerms   `json:"product,omitempty"`
	RequestedAmount   decimal.Decimal `json:"requested_amount"`
	TermMonths        int             `json:"term_months"`
	Currency          string          `json:"currency"`
	Purpose           string          `json:"purpose"`
	Status            string          `json:"status"`
	StatusReason      string          `json:"status_reason,omitempty"`
	RejectionReason   string          `json:"rejection_reason,omitempty"`
	SubmittedAt       *time.Time      `json:"submitted_at,omitempty"`
	ReviewedAt        *time.Time      `json:"reviewed_at,omitempty"`
	ApprovedAt        *time.Time      `json:"approved_at,omitempty"`
	DisbursedAt       *time.Time      `json:"disbursed_at,omitempty"`
	RejectedAt        *time.Time      `json:"rejected_at,omitempty"`
	WithdrawnAt       *time.Time      `json:"withdrawn_at,omitempty"`
	Version           int64           `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ProductTerms are the frozen terms the application was priced on.
type ProductTerms struct {
	ProductID      string          `json:"product_id"`
	ProductVersion int             `json:"product_version"`
	Name           string          `json:"name"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	MinAmount      decimal.Decimal `json:"min_amount"`
	MaxAmount      decimal.Decimal `json:"max_amount"`
	MinTermMonths  int             `json:"min_term_months"`
	MaxTermMonths  int             `json:"max_term_months"`
}

type ListResult struct {
	Items  []ApplicationDTO `json:"items"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

func toDTO(a *domain.LoanApplication, terms *product.LoanProductSnapshot) ApplicationDTO {
	out := ApplicationDTO{
		ApplicationID:     a.ApplicationID,
		ApplicationNumber: a.ApplicationNumber,
		RequestedAmount:   a.RequestedAmount,
		TermMonths:        a.TermMonths,
		Currency:          a.Currency,
		Purpose:           a.Purpose,
		Status:            string(a.Status),
		StatusReason:      a.StatusReason,
		RejectionReason:   a.RejectionReason,
		SubmittedAt:       a.SubmittedAt,
		ReviewedAt:        a.ReviewedAt,
		ApprovedAt:        a.ApprovedAt,
		DisbursedAt:       a.DisbursedAt,
		RejectedAt:        a.RejectedAt,
		WithdrawnAt:       a.WithdrawnAt,
		Version:           a.Version,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
	if terms != nil {
		out.Product = &ProductTerms{
			ProductID:      terms.ProductID,
			ProductVersion: terms.ProductVersion,
			Name:           terms.Name,
			InterestRate:   terms.InterestRate,
			MinAmount:      terms.MinAmount,
			MaxAmount:      terms.MaxAmount,
			MinTermMonths:  terms.MinTermMonths,
			MaxTermMonths:  terms.MaxTermMonths,
		}
	}
	return out
}
