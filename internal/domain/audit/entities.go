package audit

import (
	"time"

	"gorm.io/datatypes"

	"loan-origination/internal/domain/application"
)

type Action string

const (
	ActionApplicationCreated        Action = "application_created"
	ActionApplicationUpdated        Action = "application_updated"
	ActionApplicationDeleted        Action = "application_deleted"
	ActionApplicationSubmitted      Action = "application_submitted"
	ActionApplicationUnderReview    Action = "application_under_review"
	ActionApplicationApproved       Action = "application_approved"
	ActionApplicationRejected       Action = "application_rejected"
	ActionApplicationWithdrawn      Action = "application_withdrawn"
	ActionApplicationDisbursed      Action = "application_disbursed"
	ActionApplicationExpired        Action = "application_expired"
	ActionOfferLetterSent           Action = "offer_letter_sent"
	ActionOfferLetterSigned         Action = "offer_letter_signed"
	ActionOfferLetterDeclined       Action = "offer_letter_declined"
	ActionOfferLetterCreated        Action = "offer_letter_created"
	ActionOfferLetterSendScheduled  Action = "offer_letter_send_scheduled"
	ActionOfferLetterEnvelopeStatus Action = "offer_letter_envelope_status"
	ActionSnapshotCreated           Action = "snapshot_created"
	ActionDocumentUploaded          Action = "document_uploaded"
	ActionDocumentRequestCreated    Action = "document_request_created"
	ActionDocumentRequestFulfilled  Action = "document_request_fulfilled"
	ActionDocumentRequestOverdue    Action = "document_request_overdue"
)

var statusActions = map[application.Status]Action{
	application.StatusSubmitted:           ActionApplicationSubmitted,
	application.StatusUnderReview:         ActionApplicationUnderReview,
	application.StatusApproved:            ActionApplicationApproved,
	application.StatusRejected:            ActionApplicationRejected,
	application.StatusWithdrawn:           ActionApplicationWithdrawn,
	application.StatusDisbursed:           ActionApplicationDisbursed,
	application.StatusExpired:             ActionApplicationExpired,
	application.StatusOfferLetterSent:     ActionOfferLetterSent,
	application.StatusOfferLetterSigned:   ActionOfferLetterSigned,
	application.StatusOfferLetterDeclined: ActionOfferLetterDeclined,
}

// ActionForStatus names the audit action recorded when entering s.
func ActionForStatus(s application.Status) Action {
	if a, ok := statusActions[s]; ok {
		return a
	}
	return Action("status_changed_to_" + string(s))
}

// StatusActions lists the actions that mark a lifecycle change.
func StatusActions() []Action {
	out := make([]Action, 0, len(statusActions))
	for _, s := range application.AllStatuses {
		if a, ok := statusActions[s]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Entry is an immutable fact about an application. There is no update path.
type Entry struct {
	ID                uint64                       `gorm:"primaryKey;column:id" json:"-"`
	EntryID           string                       `gorm:"size:32;not null;uniqueIndex:ux_audit_trail_entries_entry_id" json:"entry_id"`
	LoanApplicationID uint64                       `gorm:"not null;index:idx_audit_trail_app_created" json:"-"`
	LoanApplication   *application.LoanApplication `gorm:"foreignKey:LoanApplicationID;constraint:OnDelete:CASCADE" json:"-"`
	UserID            uint64                       `gorm:"not null" json:"user_id"`
	Action            Action                       `gorm:"size:64;not null;index" json:"action"`
	Reason            string                       `gorm:"type:text" json:"reason,omitempty"`
	Details           string                       `gorm:"type:text" json:"details,omitempty"`
	BeforeData        datatypes.JSON               `json:"before_data,omitempty"`
	AfterData         datatypes.JSON               `json:"after_data,omitempty"`
	Metadata          datatypes.JSON               `json:"metadata,omitempty"`
	CreatedAt         time.Time                    `gorm:"autoCreateTime;index:idx_audit_trail_app_created" json:"created_at"`
}

func (Entry) TableName() string { return "audit_trail_entries" }

// ActionCount is one row of a per-action aggregate.
type ActionCount struct {
	Action Action `json:"action"`
	Count  int64  `json:"count"`
}

// Query filters a trail read.
type Query struct {
	LoanApplicationID uint64
	Actions           []Action
	Limit             int
	Offset            int
}
