package repository

import (
	"context"
	"errors"

	"backend/internal/model"
	"backend/pkg/treepath"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrganizationRepository is the persistence boundary of the hierarchy
// engine. All methods resolve the transaction from context, so calls made
// inside TransactionManager.RunInTx share one transaction.
type OrganizationRepository interface {
	Create(ctx context.Context, org *model.Organization) error
	Save(ctx context.Context, org *model.Organization) error
	FindActiveByID(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	// FindActiveRoot returns the tenant's active root node, or nil when none exists.
	FindActiveRoot(ctx context.Context, tenantID uuid.UUID) (*model.Organization, error)
	// ListActiveByTenant returns active nodes ordered by (level, created_at),
	// optionally restricted to an allow-list of node ids.
	ListActiveByTenant(ctx context.Context, tenantID uuid.UUID, allowedIDs []uuid.UUID) ([]model.Organization, error)
	// ListDescendants returns every node strictly below the given path,
	// active or not, so a move rewrites inactive rows too.
	ListDescendants(ctx context.Context, tenantID uuid.UUID, path string) ([]model.Organization, error)
	CountActiveChildren(ctx context.Context, parentID uuid.UUID) (int64, error)
}

type organizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) Create(ctx context.Context, org *model.Organization) error {
	return GetDB(ctx, r.db).Create(org).Error
}

func (r *organizationRepository) Save(ctx context.Context, org *model.Organization) error {
	return GetDB(ctx, r.db).Save(org).Error
}

func (r *organizationRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	var org model.Organization
	err := GetDB(ctx, r.db).First(&org, "id = ? AND is_active = true", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) FindActiveRoot(ctx context.Context, tenantID uuid.UUID) (*model.Organization, error) {
	var org model.Organization
	err := GetDB(ctx, r.db).
		First(&org, "tenant_id = ? AND type = ? AND is_active = true", tenantID, model.OrgTypeRoot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) ListActiveByTenant(ctx context.Context, tenantID uuid.UUID, allowedIDs []uuid.UUID) ([]model.Organization, error) {
	query := GetDB(ctx, r.db).
		Where("tenant_id = ? AND is_active = true", tenantID).
		Order("level ASC, created_at ASC")
	if allowedIDs != nil {
		query = query.Where("id IN ?", allowedIDs)
	}

	var orgs []model.Organization
	if err := query.Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

func (r *organizationRepository) ListDescendants(ctx context.Context, tenantID uuid.UUID, path string) ([]model.Organization, error) {
	var orgs []model.Organization
	err := GetDB(ctx, r.db).
		Where("tenant_id = ? AND path LIKE ?", tenantID, path+treepath.Separator+"%").
		Order("level ASC").
		Find(&orgs).Error
	if err != nil {
		return nil, err
	}
	return orgs, nil
}

func (r *organizationRepository) CountActiveChildren(ctx context.Context, parentID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).
		Model(&model.Organization{}).
		Where("parent_id = ? AND is_active = true", parentID).
		Count(&count).Error
	return count, err
}
