package model

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is a customer account owning one organization tree and a set of
// entitlement grants derived from its plan.
type Tenant struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Plan      string    `gorm:"type:varchar(50);not null" json:"plan"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
