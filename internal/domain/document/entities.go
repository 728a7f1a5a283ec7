package document

import (
	"time"

	"gorm.io/gorm"

	"loan-origination/internal/domain/application"
)

type Kind string

const (
	KindPersonal Kind = "personal"
	KindBusiness Kind = "business"
)

// Document is the shared shape of uploaded files; the two tables differ
// only in ownership semantics.
type Document struct {
	ID                uint64         `gorm:"primaryKey;column:id" json:"-"`
	DocumentID        string         `gorm:"size:32;not null;uniqueIndex" json:"document_id"`
	LoanApplicationID uint64         `gorm:"not null;index" json:"-"`
	UploadedBy        uint64         `gorm:"not null" json:"-"`
	DocumentType      string         `gorm:"size:64;not null" json:"document_type"`
	FileName          string         `gorm:"size:255;not null" json:"file_name"`
	FileURL           string         `gorm:"type:text;not null" json:"file_url"`
	MimeType          string         `gorm:"size:128" json:"mime_type"`
	SizeBytes         int64          `json:"size_bytes"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

type PersonalDocument struct {
	Document
	LoanApplication *application.LoanApplication `gorm:"foreignKey:LoanApplicationID;constraint:OnDelete:CASCADE" json:"-"`
}

func (PersonalDocument) TableName() string { return "personal_documents" }

type BusinessDocument struct {
	Document
	LoanApplication *application.LoanApplication `gorm:"foreignKey:LoanApplicationID;constraint:OnDelete:CASCADE" json:"-"`
}

func (BusinessDocument) TableName() string { return "business_documents" }

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestFulfilled RequestStatus = "fulfilled"
	RequestOverdue   RequestStatus = "overdue"
)

// Request is an outstanding ask for a document.
type Request struct {
	ID                  uint64                       `gorm:"primaryKey;column:id" json:"-"`
	RequestID           string                       `gorm:"size:32;not null;uniqueIndex" json:"request_id"`
	LoanApplicationID   uint64                       `gorm:"not null;index" json:"-"`
	LoanApplication     *application.LoanApplication `gorm:"foreignKey:LoanApplicationID;constraint:OnDelete:CASCADE" json:"-"`
	RequestedBy         uint64                       `gorm:"not null" json:"-"`
	RequestedFrom       uint64                       `gorm:"not null;index" json:"-"`
	DocumentKind        Kind                         `gorm:"size:16;not null" json:"document_kind"`
	DocumentType        string                       `gorm:"size:64;not null" json:"document_type"`
	Description         string                       `gorm:"type:text" json:"description"`
	Status              RequestStatus                `gorm:"size:16;not null;index" json:"status"`
	DueAt               *time.Time                   `gorm:"index" json:"due_at,omitempty"`
	FulfilledAt         *time.Time                   `json:"fulfilled_at,omitempty"`
	FulfilledDocumentID string                       `gorm:"size:32" json:"fulfilled_document_id,omitempty"`
	CreatedAt           time.Time                    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time                    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Request) TableName() string { return "document_requests" }

// IsOpen reports whether the request still awaits a document.
func (r *Request) IsOpen() bool { return r.Status == RequestPending || r.Status == RequestOverdue }
