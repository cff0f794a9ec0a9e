package model

import (
	"time"

	"github.com/google/uuid"
)

// OrgType enum constants
const (
	OrgTypeRoot = "ROOT"
	OrgTypeSub  = "SUB"
)

// Organization is a node in a tenant's organization tree. The tree is kept
// as a materialized path: Path is the dot-separated chain of node ids from
// the root down to this node inclusive, and Level is the number of path
// segments (root = 1). Descendants of a node are exactly the rows whose
// path has the node's path as a dot-delimited prefix.
type Organization struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index" json:"parent_id"` // nil only for a root node
	Type        string     `gorm:"type:varchar(10);not null" json:"type"` // ROOT, SUB
	Path        string     `gorm:"type:text;not null;index" json:"path"`
	Level       int        `gorm:"not null" json:"level"`
	Name        string     `gorm:"type:varchar(255);not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	TaxCode     string     `gorm:"type:varchar(50)" json:"tax_code"`
	IsActive    bool       `gorm:"default:true;index" json:"is_active"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid" json:"created_by"`
	UpdatedBy   *uuid.UUID `gorm:"type:uuid" json:"updated_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
