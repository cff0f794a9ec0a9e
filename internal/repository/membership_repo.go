package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MembershipRepository interface {
	Create(ctx context.Context, m *model.Membership) error
	Save(ctx context.Context, m *model.Membership) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Membership, error)
	// FindActive returns the active membership of a user in an organization, or nil.
	FindActive(ctx context.Context, organizationID, userID uuid.UUID) (*model.Membership, error)
	ListByOrganization(ctx context.Context, organizationID uuid.UUID, page, limit int) ([]model.Membership, int64, error)
}

type membershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Create(ctx context.Context, m *model.Membership) error {
	return GetDB(ctx, r.db).Create(m).Error
}

func (r *membershipRepository) Save(ctx context.Context, m *model.Membership) error {
	return GetDB(ctx, r.db).Save(m).Error
}

func (r *membershipRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Membership, error) {
	var m model.Membership
	err := GetDB(ctx, r.db).Preload("User").First(&m, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *membershipRepository) FindActive(ctx context.Context, organizationID, userID uuid.UUID) (*model.Membership, error) {
	var m model.Membership
	err := GetDB(ctx, r.db).
		First(&m, "organization_id = ? AND user_id = ? AND is_active = true", organizationID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *membershipRepository) ListByOrganization(ctx context.Context, organizationID uuid.UUID, page, limit int) ([]model.Membership, int64, error) {
	var memberships []model.Membership
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Membership{}).Where("organization_id = ? AND is_active = true", organizationID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := db.Preload("User").
		Where("organization_id = ? AND is_active = true", organizationID).
		Order("created_at ASC").
		Offset(offset).Limit(limit).
		Find(&memberships).Error
	if err != nil {
		return nil, 0, err
	}

	return memberships, total, nil
}
