package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntitlementRepository persists per-tenant entitlement grants.
type EntitlementRepository interface {
	Create(ctx context.Context, grant *model.EntitlementGrant) error
	Save(ctx context.Context, grant *model.EntitlementGrant) error
	// FindByKey returns the grant for (tenant, application), or nil when absent.
	FindByKey(ctx context.Context, tenantID uuid.UUID, applicationID string) (*model.EntitlementGrant, error)
	// ListByTenant returns all grant rows for a tenant ordered by created_at,
	// so the earliest row of a duplicated key comes first.
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]model.EntitlementGrant, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type entitlementRepository struct {
	db *gorm.DB
}

func NewEntitlementRepository(db *gorm.DB) EntitlementRepository {
	return &entitlementRepository{db: db}
}

func (r *entitlementRepository) Create(ctx context.Context, grant *model.EntitlementGrant) error {
	return GetDB(ctx, r.db).Create(grant).Error
}

func (r *entitlementRepository) Save(ctx context.Context, grant *model.EntitlementGrant) error {
	return GetDB(ctx, r.db).Save(grant).Error
}

func (r *entitlementRepository) FindByKey(ctx context.Context, tenantID uuid.UUID, applicationID string) (*model.EntitlementGrant, error) {
	var grant model.EntitlementGrant
	err := GetDB(ctx, r.db).
		First(&grant, "tenant_id = ? AND application_id = ?", tenantID, applicationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &grant, nil
}

func (r *entitlementRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]model.EntitlementGrant, error) {
	var grants []model.EntitlementGrant
	err := GetDB(ctx, r.db).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}

func (r *entitlementRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.EntitlementGrant{}).Error
}
