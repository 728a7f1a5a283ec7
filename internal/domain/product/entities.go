package product

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LoanProduct is the editable template of loan terms. Version increases on
// every edit so applications can tell which terms they were priced on.
type LoanProduct struct {
	ID            uint64          `gorm:"primaryKey;column:id" json:"-"`
	ProductID     string          `gorm:"size:32;not null;uniqueIndex:ux_loan_products_product_id" json:"product_id"`
	Name          string          `gorm:"size:120;not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	MinAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"min_amount"`
	MaxAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"max_amount"`
	MinTermMonths int             `gorm:"not null" json:"min_term_months"`
	MaxTermMonths int             `gorm:"not null" json:"max_term_months"`
	InterestRate  decimal.Decimal `gorm:"type:decimal(7,4);not null" json:"interest_rate"`
	Currency      string          `gorm:"size:3;not null" json:"currency"`
	Version       int             `gorm:"not null" json:"version"`
	IsActive      bool            `gorm:"not null;index" json:"is_active"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (LoanProduct) TableName() string { return "loan_products" }

// Accepts reports whether amount and term fall inside the product's bounds.
func (p *LoanProduct) Accepts(amount decimal.Decimal, termMonths int) bool {
	if amount.LessThan(p.MinAmount) || amount.GreaterThan(p.MaxAmount) {
		return false
	}
	return termMonths >= p.MinTermMonths && termMonths <= p.MaxTermMonths
}

// LoanProductSnapshot freezes a product's terms at application time.
type LoanProductSnapshot struct {
	ID             uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanProductID  uint64          `gorm:"not null;index" json:"-"`
	ProductID      string          `gorm:"size:32;not null" json:"product_id"`
	ProductVersion int             `gorm:"not null" json:"product_version"`
	Name           string          `gorm:"size:120;not null" json:"name"`
	MinAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"min_amount"`
	MaxAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"max_amount"`
	MinTermMonths  int             `gorm:"not null" json:"min_term_months"`
	MaxTermMonths  int             `gorm:"not null" json:"max_term_months"`
	InterestRate   decimal.Decimal `gorm:"type:decimal(7,4);not null" json:"interest_rate"`
	Currency       string          `gorm:"size:3;not null" json:"currency"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (LoanProductSnapshot) TableName() string { return "loan_product_snapshots" }

// Freeze copies the current terms of p.
func (p *LoanProduct) Freeze() *LoanProductSnapshot {
	return &LoanProductSnapshot{
		LoanProductID:  p.ID,
		ProductID:      p.ProductID,
		ProductVersion: p.Version,
		Name:           p.Name,
		MinAmount:      p.MinAmount,
		MaxAmount:      p.MaxAmount,
		MinTermMonths:  p.MinTermMonths,
		MaxTermMonths:  p.MaxTermMonths,
		InterestRate:   p.InterestRate,
		Currency:       p.Currency,
	}
}
