// Package business stores borrowers' business profiles.
package business

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"loan-origination/internal/domain/apperr"
	domain "loan-origination/internal/domain/business"
	"loan-origination/internal/domain/user"
	"loan-origination/pkg/id"
)

type ActorResolver interface {
	Resolve(ctx context.Context, externalID string) (*user.User, error)
}

type CreateInput struct {
	LegalName          string          `json:"legal_name"`
	RegistrationNumber string          `json:"registration_number"`
	Industry           string          `json:"industry"`
	YearsInOperation   int             `json:"years_in_operation"`
	AnnualRevenue      decimal.Decimal `json:"annual_revenue"`
	Address            string          `json:"address"`
}

type Usecase struct {
	repo   domain.Repository
	actors ActorResolver
}

func NewUsecase(repo domain.Repository, actors ActorResolver) *Usecase {
	return &Usecase{repo: repo, actors: actors}
}

// Create registers a business owned by the calling user.
func (u *Usecase) Create(ctx context.Context, actorExternalID string, in CreateInput) (*domain.BusinessProfile, error) {
	actor, err := u.actors.Resolve(ctx, actorExternalID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.LegalName) == "" {
		return nil, apperr.InvalidParameters("INVALID_PARAMETERS", "legal_name is required")
	}
	if in.YearsInOperation < 0 || in.AnnualRevenue.IsNegative() {
		return nil, apperr.InvalidParameters("INVALID_PARAMETERS", "years in operation and revenue cannot be negative")
	}
	b := &domain.BusinessProfile{
		BusinessID:         id.NewID32(),
		OwnerUserID:        actor.ID,
		LegalName:          strings.TrimSpace(in.LegalName),
		RegistrationNumber: strings.TrimSpace(in.RegistrationNumber),
		Industry:           in.Industry,
		YearsInOperation:   in.YearsInOperation,
		AnnualRevenue:      in.AnnualRevenue,
		Address:            in.Address,
	}
	if err := u.repo.Create(ctx, b); err != nil {
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "create business profile", err)
	}
	return b, nil
}

// Get returns a profile. Borrowers only see their own.
func (u *Usecase) Get(ctx context.Context, actorExternalID, businessID string) (*domain.BusinessProfile, error) {
	actor, err := u.actors.Resolve(ctx, actorExternalID)
	if err != nil {
		return nil, err
	}
	b, err := u.repo.GetByBusinessID(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("BUSINESS_NOT_FOUND", "business profile not found")
		}
		return nil, apperr.Internal("PERSISTENCE_FAILURE", "load business profile", err)
	}
	if !actor.IsStaff() && b.OwnerUserID != actor.ID {
		return nil, apperr.NotFound("BUSINESS_NOT_FOUND", "business profile not found")
	}
	return b, nil
}
