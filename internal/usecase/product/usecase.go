// Package product manages the catalogue of loan products. Every edit bumps
// the product version; applications keep the snapshot they were priced on.
package product

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"loan-origination/internal/domain/apperr"
	domain "loan-origination/internal/domain/product"
	"loan-origination/pkg/id"
)

type Input struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	MinAmount     decimal.Decimal `json:"min_amount"`
	MaxAmount     decimal.Decimal `json:"max_amount"`
	MinTermMonths int             `json:"min_term_months"`
	MaxTermMonths int             `json:"max_term_months"`
	InterestRate  decimal.Decimal `json:"interest_rate"`
	Currency      string          `json:"currency"`
}

type Usecase struct {
	repo domain.Repository
	log  logrus.FieldLogger
}

func NewUsecase(repo domain.Repository, log logrus.FieldLogger) *Usecase {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Usecase{repo: repo, log: log}
}

func (u *Usecase) Create(ctx context.Context, in Input) (*domain.LoanProduct, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	p := &domain.LoanProduct{ProductID: id.NewID32(), Version: 1, IsActive: true}
	apply(p, in)
	if err := u.repo.Create(ctx, p); err != nil {
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "create loan product", err)
	}
	u.log.WithField("product_id", p.ProductID).Info("loan product created")
	return p, nil
}

func (u *Usecase) Get(ctx context.Context, productID string) (*domain.LoanProduct, error) {
	p, err := u.repo.GetByProductID(ctx, productID)
	if err != nil {
		return nil, classify(err)
	}
	return p, nil
}

func (u *Usecase) List(ctx context.Context, activeOnly bool) ([]domain.LoanProduct, error) {
	out, err := u.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "list loan products", err)
	}
	return out, nil
}

// Update replaces the terms of a product and bumps its version.
func (u *Usecase) Update(ctx context.Context, productID string, in Input) (*domain.LoanProduct, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	p, err := u.repo.GetByProductID(ctx, productID)
	if err != nil {
		return nil, classify(err)
	}
	apply(p, in)
	p.Version++
	if err := u.repo.Save(ctx, p); err != nil {
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "update loan product", err)
	}
	u.log.WithFields(logrus.Fields{"product_id": p.ProductID, "version": p.Version}).Info("loan product updated")
	return p, nil
}

// Deactivate stops a product from taking new applications. Existing
// applications are unaffected.
func (u *Usecase) Deactivate(ctx context.Context, productID string) (*domain.LoanProduct, error) {
	p, err := u.repo.GetByProductID(ctx, productID)
	if err != nil {
		return nil, classify(err)
	}
	if !p.IsActive {
		return p, nil
	}
	p.IsActive = false
	p.Version++
	if err := u.repo.Save(ctx, p); err != nil {
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "deactivate loan product", err)
	}
	return p, nil
}

func validate(in Input) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return apperr.InvalidParameters("INVALID_PARAMETERS", "name is required")
	case !in.MinAmount.IsPositive() || in.MaxAmount.LessThan(in.MinAmount):
		return apperr.InvalidParameters("INVALID_PARAMETERS", "amount range must be positive and ordered")
	case in.MinTermMonths <= 0 || in.MaxTermMonths < in.MinTermMonths:
		return apperr.InvalidParameters("INVALID_PARAMETERS", "term range must be positive and ordered")
	case in.InterestRate.IsNegative():
		return apperr.InvalidParameters("INVALID_PARAMETERS", "interest rate cannot be negative")
	case len(strings.TrimSpace(in.Currency)) != 3:
		return apperr.InvalidParameters("INVALID_PARAMETERS", "currency must be an ISO 4217 code")
	}
	return nil
}

func apply(p *domain.LoanProduct, in Input) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.MinAmount = in.MinAmount
	p.MaxAmount = in.MaxAmount
	p.MinTermMonths = in.MinTermMonths
	p.MaxTermMonths = in.MaxTermMonths
	p.InterestRate = in.InterestRate
	p.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
}

func classify(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("PRODUCT_NOT_FOUND", "loan product not found")
	}
	return apperr.Internal("PERSISTENCE_FAILURE", "load loan product", err)
}
