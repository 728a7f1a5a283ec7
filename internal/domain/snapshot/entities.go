package snapshot

import (
	"time"

	"gorm.io/datatypes"

	"loan-origination/internal/domain/application"
)

// Snapshot is an immutable capture of an application's full state.
// Sequence increases per application so repeated approvals stay ordered.
type Snapshot struct {
	ID                uint64                       `gorm:"primaryKey;column:id" json:"-"`
	SnapshotID        string                       `gorm:"size:32;not null;uniqueIndex:ux_snapshots_snapshot_id" json:"snapshot_id"`
	LoanApplicationID uint64                       `gorm:"not null;uniqueIndex:ux_snapshots_app_sequence" json:"-"`
	LoanApplication   *application.LoanApplication `gorm:"foreignKey:LoanApplicationID;constraint:OnDelete:CASCADE" json:"-"`
	Sequence          int                          `gorm:"not null;uniqueIndex:ux_snapshots_app_sequence" json:"sequence"`
	CreatedBy         uint64                       `gorm:"not null" json:"created_by"`
	ApprovalStage     string                       `gorm:"size:64" json:"approval_stage"`
	SnapshotData      datatypes.JSON               `gorm:"not null" json:"-"`
	CreatedAt         time.Time                    `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Snapshot) TableName() string { return "loan_application_snapshots" }
