package model

import (
	"time"

	"github.com/google/uuid"
)

// Membership role constants
const (
	MemberRoleManager = "MANAGER"
	MemberRoleMember  = "MEMBER"
)

// Membership assigns a user to an organization node. Assignment is only
// valid against an existing, active node of the same tenant.
type Membership struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID       uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_membership_org_user,priority:1" json:"organization_id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_membership_org_user,priority:2" json:"user_id"`
	User           *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role           string    `gorm:"type:varchar(20);not null" json:"role"` // MANAGER, MEMBER
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
