package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"
	"backend/pkg/treepath"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateOrganizationRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	TaxCode     string  `json:"tax_code"`
	ParentID    *string `json:"parent_id"` // nil creates a root node
}

type UpdateOrganizationRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	TaxCode     *string `json:"tax_code"`
}

type MoveOrganizationRequest struct {
	NewParentID *string `json:"new_parent_id"` // nil promotes to root
}

type OrganizationResponse struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	ParentID    *uuid.UUID `json:"parent_id"`
	Type        string     `json:"type"`
	Path        string     `json:"path"`
	Level       int        `json:"level"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	TaxCode     string     `json:"tax_code"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TreeNode is an organization with its children attached, as returned by
// BuildTree.
type TreeNode struct {
	OrganizationResponse
	Children []*TreeNode `json:"children"`
}

// --- Interface ---

type OrganizationService interface {
	CreateRoot(ctx context.Context, tenantID uuid.UUID, req CreateOrganizationRequest, actorID uuid.UUID) (OrganizationResponse, error)
	CreateChild(ctx context.Context, parentID uuid.UUID, req CreateOrganizationRequest, actorID uuid.UUID) (OrganizationResponse, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateOrganizationRequest, actorID uuid.UUID) (OrganizationResponse, error)
	Move(ctx context.Context, nodeID uuid.UUID, newParentID *uuid.UUID, actorID uuid.UUID) (OrganizationResponse, error)
	Delete(ctx context.Context, nodeID uuid.UUID, actorID uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (OrganizationResponse, error)
	// BuildTree assembles the tenant's active nodes into a forest. The
	// optional allow-list restricts the result to accessible nodes; a
	// filtered view may exclude the actual root, in which case orphaned
	// subtrees become forest roots.
	BuildTree(ctx context.Context, tenantID uuid.UUID, accessibleIDs []uuid.UUID) ([]*TreeNode, error)
	// ActiveNodeExists is the read-only check membership assignment relies on.
	ActiveNodeExists(ctx context.Context, tenantID, nodeID uuid.UUID) (bool, error)

	BulkCreate(ctx context.Context, tenantID uuid.UUID, items []CreateOrganizationRequest, actorID uuid.UUID) BulkResult[OrganizationResponse]
	BulkUpdate(ctx context.Context, items []BulkUpdateItem, actorID uuid.UUID) BulkResult[OrganizationResponse]
	BulkDelete(ctx context.Context, ids []uuid.UUID, actorID uuid.UUID) BulkResult[uuid.UUID]
}

// Broadcaster pushes change events to connected clients (the websocket hub).
type Broadcaster interface {
	GetBroadcast() chan []byte
}

type organizationService struct {
	orgRepo   repository.OrganizationRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	hub       Broadcaster // optional
}

func NewOrganizationService(
	orgRepo repository.OrganizationRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub Broadcaster,
) OrganizationService {
	return &organizationService{orgRepo: orgRepo, auditRepo: auditRepo, txManager: txManager, hub: hub}
}

// --- Single-node operations ---

func (s *organizationService) CreateRoot(ctx context.Context, tenantID uuid.UUID, req CreateOrganizationRequest, actorID uuid.UUID) (OrganizationResponse, error) {
	if err := validateOrgName(req.Name); err != nil {
		return OrganizationResponse{}, err
	}
	if err := validateTaxCode(req.TaxCode); err != nil {
		return OrganizationResponse{}, err
	}

	existing, err := s.orgRepo.FindActiveRoot(ctx, tenantID)
	if err != nil {
		return OrganizationResponse{}, fmt.Errorf("failed to look up root organization: %w", err)
	}
	if existing != nil {
		return OrganizationResponse{}, apperr.Conflict("tenant already has an active root organization")
	}

	// The id is allocated up front so the path can include it.
	id := uuid.New()
	org := &model.Organization{
		ID:          id,
		TenantID:    tenantID,
		ParentID:    nil,
		Type:        model.OrgTypeRoot,
		Path:        id.String(),
		Level:       1,
		Name:        req.Name,
		Description: req.Description,
		TaxCode:     req.TaxCode,
		IsActive:    true,
		CreatedBy:   &actorID,
		UpdatedBy:   &actorID,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orgRepo.Create(txCtx, org); err != nil {
			return fmt.Errorf("failed to create root organization: %w", err)
		}
		return s.writeAudit(txCtx, org.TenantID, actorID, model.ActionCreateOrganization, org.ID.String(), org.Name, map[string]interface{}{
			"type": org.Type,
			"path": org.Path,
		})
	})
	if err != nil {
		return OrganizationResponse{}, err
	}

	s.broadcast("organization.created", org)
	return toOrganizationResponse(*org), nil
}

func (s *organizationService) CreateChild(ctx context.Context, parentID uuid.UUID, req CreateOrganizationRequest, actorID uuid.UUID) (OrganizationResponse, error) {
	if err := validateOrgName(req.Name); err != nil {
		return OrganizationResponse{}, err
	}
	if err := validateTaxCode(req.TaxCode); err != nil {
		return OrganizationResponse{}, err
	}

	parent, err := s.orgRepo.FindActiveByID(ctx, parentID)
	if err != nil {
		return OrganizationResponse{}, fmt.Errorf("failed to look up parent organization: %w", err)
	}
	if parent == nil {
		return OrganizationResponse{}, apperr.NotFound("parent organization %s not found", parentID)
	}

	id := uuid.New()
	org := &model.Organization{
		ID:          id,
		TenantID:    parent.TenantID,
		ParentID:    &parent.ID,
		Type:        model.OrgTypeSub,
		Path:        treepath.Join(parent.Path, id.String()),
		Level:       parent.Level + 1,
		Name:        req.Name,
		Description: req.Description,
		TaxCode:     req.TaxCode,
		IsActive:    true,
		CreatedBy:   &actorID,
		UpdatedBy:   &actorID,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orgRepo.Create(txCtx, org); err != nil {
			return fmt.Errorf("failed to create organization: %w", err)
		}
		return s.writeAudit(txCtx, org.TenantID, actorID, model.ActionCreateOrganization, org.ID.String(), org.Name, map[string]interface{}{
			"type":      org.Type,
			"path":      org.Path,
			"parent_id": parent.ID.String(),
		})
	})
	if err != nil {
		return OrganizationResponse{}, err
	}

	s.broadcast("organization.created", org)
	return toOrganizationResponse(*org), nil
}

func (s *organizationService) Update(ctx context.Context, id uuid.UUID, req UpdateOrganizationRequest, actorID uuid.UUID) (OrganizationResponse, error) {
	org, err := s.orgRepo.FindActiveByID(ctx, id)
	if err != nil {
		return OrganizationResponse{}, fmt.Errorf("failed to look up organization: %w", err)
	}
	if org == nil {
		return OrganizationResponse{}, apperr.NotFound("organization %s not found", id)
	}

	if req.Name != nil {
		if err := validateOrgName(*req.Name); err != nil {
			return OrganizationResponse{}, err
		}
		org.Name = *req.Name
	}
	if req.Description != nil {
		org.Description = *req.Description
	}
	if req.TaxCode != nil {
		if err := validateTaxCode(*req.TaxCode); err != nil {
			return OrganizationResponse{}, err
		}
		org.TaxCode = *req.TaxCode
	}
	org.UpdatedBy = &actorID

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orgRepo.Save(txCtx, org); err != nil {
			return fmt.Errorf("failed to update organization: %w", err)
		}
		return s.writeAudit(txCtx, org.TenantID, actorID, model.ActionUpdateOrganization, org.ID.String(), org.Name, nil)
	})
	if err != nil {
		return OrganizationResponse{}, err
	}

	return toOrganizationResponse(*org), nil
}

// Move relocates a node (and implicitly its whole subtree) under a new
// parent, or to root when newParentID is nil. The node update and every
// descendant path/level rewrite commit as one transaction.
func (s *organizationService) Move(ctx context.Context, nodeID uuid.UUID, newParentID *uuid.UUID, actorID uuid.UUID) (OrganizationResponse, error) {
	node, err := s.orgRepo.FindActiveByID(ctx, nodeID)
	if err != nil {
		return OrganizationResponse{}, fmt.Errorf("failed to look up organization: %w", err)
	}
	if node == nil {
		return OrganizationResponse{}, apperr.NotFound("organization %s not found", nodeID)
	}

	var newPath string
	var newLevel int
	var newType string

	if newParentID != nil {
		parent, err := s.orgRepo.FindActiveByID(ctx, *newParentID)
		if err != nil {
			return OrganizationResponse{}, fmt.Errorf("failed to look up new parent: %w", err)
		}
		if parent == nil || parent.TenantID != node.TenantID {
			return OrganizationResponse{}, apperr.NotFound("parent organization %s not found", *newParentID)
		}
		// The destination may not sit inside the moved subtree. The parent's
		// path containing the node's id covers parent == node as well.
		if treepath.ContainsSegment(parent.Path, node.ID.String()) {
			return OrganizationResponse{}, apperr.Cycle("cannot move organization under its own descendant")
		}
		newPath = treepath.Join(parent.Path, node.ID.String())
		newLevel = parent.Level + 1
		newType = model.OrgTypeSub
	} else {
		// Promoting to root never displaces the tenant's existing root.
		root, err := s.orgRepo.FindActiveRoot(ctx, node.TenantID)
		if err != nil {
			return OrganizationResponse{}, fmt.Errorf("failed to look up root organization: %w", err)
		}
		if root != nil && root.ID != node.ID {
			return OrganizationResponse{}, apperr.Conflict("tenant already has an active root organization")
		}
		newPath = node.ID.String()
		newLevel = 1
		newType = model.OrgTypeRoot
	}

	oldPath := node.Path
	if newPath == oldPath {
		// Same parent as before; nothing to rewrite.
		return toOrganizationResponse(*node), nil
	}
	levelDelta := newLevel - node.Level

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		node.ParentID = newParentID
		node.Path = newPath
		node.Level = newLevel
		node.Type = newType
		node.UpdatedBy = &actorID
		if err := s.orgRepo.Save(txCtx, node); err != nil {
			return fmt.Errorf("failed to move organization: %w", err)
		}

		// Every strict descendant keeps its relative position: substitute
		// the old prefix and shift the level by the same delta.
		descendants, err := s.orgRepo.ListDescendants(txCtx, node.TenantID, oldPath)
		if err != nil {
			return fmt.Errorf("failed to list descendants: %w", err)
		}
		for i := range descendants {
			d := &descendants[i]
			rewritten, ok := treepath.ReplacePrefix(d.Path, oldPath, newPath)
			if !ok {
				return fmt.Errorf("descendant %s has inconsistent path %q", d.ID, d.Path)
			}
			d.Path = rewritten
			d.Level += levelDelta
			if err := s.orgRepo.Save(txCtx, d); err != nil {
				return fmt.Errorf("failed to rewrite descendant %s: %w", d.ID, err)
			}
		}

		return s.writeAudit(txCtx, node.TenantID, actorID, model.ActionMoveOrganization, node.ID.String(), node.Name, map[string]interface{}{
			"old_path":    oldPath,
			"new_path":    newPath,
			"descendants": len(descendants),
		})
	})
	if err != nil {
		return OrganizationResponse{}, err
	}

	s.broadcast("organization.moved", node)
	return toOrganizationResponse(*node), nil
}

// Delete soft-deletes a leaf node. Nodes with active children are
// rejected, so no cascade or path rewrite is ever needed.
func (s *organizationService) Delete(ctx context.Context, nodeID uuid.UUID, actorID uuid.UUID) error {
	node, err := s.orgRepo.FindActiveByID(ctx, nodeID)
	if err != nil {
		return fmt.Errorf("failed to look up organization: %w", err)
	}
	if node == nil {
		return apperr.NotFound("organization %s not found", nodeID)
	}

	children, err := s.orgRepo.CountActiveChildren(ctx, nodeID)
	if err != nil {
		return fmt.Errorf("failed to count children: %w", err)
	}
	if children > 0 {
		return apperr.Conflict("organization has %d active child organizations", children)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		node.IsActive = false
		node.UpdatedBy = &actorID
		if err := s.orgRepo.Save(txCtx, node); err != nil {
			return fmt.Errorf("failed to delete organization: %w", err)
		}
		return s.writeAudit(txCtx, node.TenantID, actorID, model.ActionDeleteOrganization, node.ID.String(), node.Name, nil)
	})
	if err != nil {
		return err
	}

	s.broadcast("organization.deleted", node)
	return nil
}

func (s *organizationService) Get(ctx context.Context, id uuid.UUID) (OrganizationResponse, error) {
	org, err := s.orgRepo.FindActiveByID(ctx, id)
	if err != nil {
		return OrganizationResponse{}, fmt.Errorf("failed to look up organization: %w", err)
	}
	if org == nil {
		return OrganizationResponse{}, apperr.NotFound("organization %s not found", id)
	}
	return toOrganizationResponse(*org), nil
}

func (s *organizationService) BuildTree(ctx context.Context, tenantID uuid.UUID, accessibleIDs []uuid.UUID) ([]*TreeNode, error) {
	orgs, err := s.orgRepo.ListActiveByTenant(ctx, tenantID, accessibleIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organizations: %w", err)
	}

	// Two passes: index every node by id, then attach each to its parent.
	// A node whose parent is not part of the result set becomes a forest
	// root, which keeps filtered views safe.
	byID := make(map[uuid.UUID]*TreeNode, len(orgs))
	for _, org := range orgs {
		byID[org.ID] = &TreeNode{
			OrganizationResponse: toOrganizationResponse(org),
			Children:             []*TreeNode{},
		}
	}

	roots := make([]*TreeNode, 0, 1)
	for _, org := range orgs {
		node := byID[org.ID]
		if org.ParentID != nil {
			if parent, ok := byID[*org.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	return roots, nil
}

func (s *organizationService) ActiveNodeExists(ctx context.Context, tenantID, nodeID uuid.UUID) (bool, error) {
	org, err := s.orgRepo.FindActiveByID(ctx, nodeID)
	if err != nil {
		return false, fmt.Errorf("failed to look up organization: %w", err)
	}
	return org != nil && org.TenantID == tenantID, nil
}

// --- Helpers ---

func (s *organizationService) writeAudit(ctx context.Context, tenantID, actorID uuid.UUID, action, entityID, entityName string, details map[string]interface{}) error {
	payload := ""
	if details != nil {
		b, _ := json.Marshal(details)
		payload = string(b)
	}
	entry := &model.AuditLog{
		TenantID:   &tenantID,
		UserID:     &actorID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    payload,
	}
	if err := s.auditRepo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (s *organizationService) broadcast(event string, org *model.Organization) {
	if s.hub == nil {
		return
	}
	msg, _ := json.Marshal(map[string]interface{}{
		"event": event,
		"data":  toOrganizationResponse(*org),
	})
	select {
	case s.hub.GetBroadcast() <- msg:
	default:
	}
}

func toOrganizationResponse(o model.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:          o.ID,
		TenantID:    o.TenantID,
		ParentID:    o.ParentID,
		Type:        o.Type,
		Path:        o.Path,
		Level:       o.Level,
		Name:        o.Name,
		Description: o.Description,
		TaxCode:     o.TaxCode,
		IsActive:    o.IsActive,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}
