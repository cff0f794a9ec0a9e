package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// EntitlementGrant records which application (and which of its modules) a
// tenant may use under its current subscription plan. At most one row per
// (tenant, application) pair; the reconciler enforces this on top of the
// unique index because concurrent inserts can race.
type EntitlementGrant struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_grant_tenant_app,priority:1" json:"tenant_id"`
	ApplicationID    string         `gorm:"type:varchar(100);not null;uniqueIndex:uq_grant_tenant_app,priority:2" json:"application_id"`
	IsEnabled        bool           `gorm:"default:true" json:"is_enabled"`
	EnabledModules   pq.StringArray `gorm:"type:text[]" json:"enabled_modules"`
	SubscriptionTier string         `gorm:"type:varchar(50);not null" json:"subscription_tier"`
	MaxUsers         *int           `json:"max_users"` // nil means unlimited
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}
