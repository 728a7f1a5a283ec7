package user

import "time"

type Role string

const (
	RoleBorrower Role = "borrower"
	RoleOfficer  Role = "officer"
	RoleAdmin    Role = "admin"
)

// User maps an identity-provider subject onto an internal row.
type User struct {
	ID             uint64    `gorm:"primaryKey;column:id" json:"-"`
	UserID         string    `gorm:"size:32;not null;uniqueIndex:ux_users_user_id" json:"user_id"`
	ExternalAuthID string    `gorm:"size:128;not null;uniqueIndex:ux_users_external_auth_id" json:"external_auth_id"`
	Email          string    `gorm:"size:255" json:"email"`
	Phone          string    `gorm:"size:32" json:"phone,omitempty"`
	FullName       string    `gorm:"size:255" json:"full_name"`
	Role           Role      `gorm:"size:16;not null" json:"role"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// IsStaff reports whether u works the pipeline rather than borrows.
func (u *User) IsStaff() bool {
	return u != nil && (u.Role == RoleOfficer || u.Role == RoleAdmin)
}
