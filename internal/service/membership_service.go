package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/google/uuid"
)

// --- DTOs ---

type AssignMemberRequest struct {
	OrganizationID string `json:"organization_id" binding:"required"`
	UserID         string `json:"user_id" binding:"required"`
	Role           string `json:"role" binding:"required"`
}

type MembershipResponse struct {
	ID             uuid.UUID `json:"id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	UserID         uuid.UUID `json:"user_id"`
	UserEmail      string    `json:"user_email,omitempty"`
	Role           string    `json:"role"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// --- Interface ---

type MembershipService interface {
	// AssignMember creates a membership after verifying the organization
	// node exists, is active, and belongs to the caller's tenant.
	AssignMember(ctx context.Context, tenantID uuid.UUID, req AssignMemberRequest, actorID uuid.UUID) (MembershipResponse, error)
	RemoveMember(ctx context.Context, tenantID, membershipID uuid.UUID, actorID uuid.UUID) error
	ListMembers(ctx context.Context, organizationID uuid.UUID, page, limit int) ([]MembershipResponse, int64, error)
}

type membershipService struct {
	membershipRepo repository.MembershipRepository
	userRepo       repository.UserRepository
	orgService     OrganizationService
	auditRepo      repository.AuditRepository
	txManager      repository.TransactionManager
}

func NewMembershipService(
	membershipRepo repository.MembershipRepository,
	userRepo repository.UserRepository,
	orgService OrganizationService,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) MembershipService {
	return &membershipService{
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		orgService:     orgService,
		auditRepo:      auditRepo,
		txManager:      txManager,
	}
}

var validMemberRoles = map[string]bool{
	model.MemberRoleManager: true,
	model.MemberRoleMember:  true,
}

// --- Implementation ---

func (s *membershipService) AssignMember(ctx context.Context, tenantID uuid.UUID, req AssignMemberRequest, actorID uuid.UUID) (MembershipResponse, error) {
	orgID, err := uuid.Parse(req.OrganizationID)
	if err != nil {
		return MembershipResponse{}, apperr.Validation("invalid organization_id")
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return MembershipResponse{}, apperr.Validation("invalid user_id")
	}
	if !validMemberRoles[req.Role] {
		return MembershipResponse{}, apperr.Validation("role must be one of: MANAGER, MEMBER")
	}

	exists, err := s.orgService.ActiveNodeExists(ctx, tenantID, orgID)
	if err != nil {
		return MembershipResponse{}, err
	}
	if !exists {
		return MembershipResponse{}, apperr.NotFound("organization %s not found", orgID)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return MembershipResponse{}, apperr.NotFound("user %s not found", userID)
	}
	if user.TenantID != tenantID {
		return MembershipResponse{}, apperr.NotFound("user %s not found", userID)
	}

	existing, err := s.membershipRepo.FindActive(ctx, orgID, userID)
	if err != nil {
		return MembershipResponse{}, fmt.Errorf("failed to look up membership: %w", err)
	}
	if existing != nil {
		return MembershipResponse{}, apperr.Conflict("user is already a member of this organization")
	}

	membership := &model.Membership{
		TenantID:       tenantID,
		OrganizationID: orgID,
		UserID:         userID,
		Role:           req.Role,
		IsActive:       true,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.membershipRepo.Create(txCtx, membership); err != nil {
			return fmt.Errorf("failed to create membership: %w", err)
		}
		entry := &model.AuditLog{
			TenantID:   &tenantID,
			UserID:     &actorID,
			Action:     model.ActionAssignMember,
			EntityID:   membership.ID.String(),
			EntityName: user.Email,
		}
		if err := s.auditRepo.Log(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return MembershipResponse{}, err
	}

	resp := toMembershipResponse(*membership)
	resp.UserEmail = user.Email
	return resp, nil
}

func (s *membershipService) RemoveMember(ctx context.Context, tenantID, membershipID uuid.UUID, actorID uuid.UUID) error {
	membership, err := s.membershipRepo.FindByID(ctx, membershipID)
	if err != nil {
		return fmt.Errorf("failed to look up membership: %w", err)
	}
	if membership == nil || membership.TenantID != tenantID || !membership.IsActive {
		return apperr.NotFound("membership %s not found", membershipID)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		membership.IsActive = false
		if err := s.membershipRepo.Save(txCtx, membership); err != nil {
			return fmt.Errorf("failed to remove membership: %w", err)
		}
		entry := &model.AuditLog{
			TenantID: &tenantID,
			UserID:   &actorID,
			Action:   model.ActionRemoveMember,
			EntityID: membership.ID.String(),
		}
		if err := s.auditRepo.Log(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
}

func (s *membershipService) ListMembers(ctx context.Context, organizationID uuid.UUID, page, limit int) ([]MembershipResponse, int64, error) {
	memberships, total, err := s.membershipRepo.ListByOrganization(ctx, organizationID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list members: %w", err)
	}

	res := make([]MembershipResponse, 0, len(memberships))
	for _, m := range memberships {
		resp := toMembershipResponse(m)
		if m.User != nil {
			resp.UserEmail = m.User.Email
		}
		res = append(res, resp)
	}
	return res, total, nil
}

func toMembershipResponse(m model.Membership) MembershipResponse {
	return MembershipResponse{
		ID:             m.ID,
		TenantID:       m.TenantID,
		OrganizationID: m.OrganizationID,
		UserID:         m.UserID,
		Role:           m.Role,
		IsActive:       m.IsActive,
		CreatedAt:      m.CreatedAt,
	}
}
