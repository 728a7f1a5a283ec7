package business

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BusinessProfile struct {
	ID                 uint64          `gorm:"primaryKey;column:id" json:"-"`
	BusinessID         string          `gorm:"size:32;not null;uniqueIndex:ux_business_profiles_business_id" json:"business_id"`
	OwnerUserID        uint64          `gorm:"not null;index" json:"-"`
	LegalName          string          `gorm:"size:255;not null" json:"legal_name"`
	RegistrationNumber string          `gorm:"size:64" json:"registration_number"`
	Industry           string          `gorm:"size:120" json:"industry"`
	YearsInOperation   int             `json:"years_in_operation"`
	AnnualRevenue      decimal.Decimal `gorm:"type:decimal(18,2)" json:"annual_revenue"`
	Address            string          `gorm:"type:text" json:"address"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (BusinessProfile) TableName() string { return "business_profiles" }
