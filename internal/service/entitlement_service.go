package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/plan"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// reconcileSkipWindow bounds how recently a grant must have been touched
// for a reconciliation call to short-circuit. Upstream triggers (webhook
// retries racing scheduled jobs) routinely issue the same call twice
// within seconds.
const reconcileSkipWindow = 5 * time.Minute

// --- DTOs ---

type ReconcileOptions struct {
	SkipIfRecentlyUpdated bool `json:"skip_if_recently_updated"`
	ForceUpdate           bool `json:"force_update"`
}

// DefaultReconcileOptions matches the common caller: skip duplicate calls,
// never force.
func DefaultReconcileOptions() ReconcileOptions {
	return ReconcileOptions{SkipIfRecentlyUpdated: true}
}

const (
	ReconcileStatusUpdated = "updated"
	ReconcileStatusSkipped = "skipped"
)

type ReconcileResult struct {
	Status            string `json:"status"` // updated, skipped
	Plan              string `json:"plan"`
	Created           int    `json:"created"`
	Updated           int    `json:"updated"`
	Disabled          int    `json:"disabled"`
	DuplicatesRemoved int    `json:"duplicates_removed"`
}

type EntitlementResponse struct {
	ID               uuid.UUID `json:"id"`
	TenantID         uuid.UUID `json:"tenant_id"`
	ApplicationID    string    `json:"application_id"`
	IsEnabled        bool      `json:"is_enabled"`
	EnabledModules   []string  `json:"enabled_modules"`
	SubscriptionTier string    `json:"subscription_tier"`
	MaxUsers         *int      `json:"max_users"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// --- Interface ---

type EntitlementService interface {
	// Reconcile diffs the tenant's grant rows against the plan's
	// application/module matrix and applies inserts, updates, and disables
	// idempotently inside one transaction.
	Reconcile(ctx context.Context, tenantID uuid.UUID, planName string, opts ReconcileOptions, actorID *uuid.UUID) (ReconcileResult, error)
	ListGrants(ctx context.Context, tenantID uuid.UUID) ([]EntitlementResponse, error)
}

type entitlementService struct {
	grantRepo repository.EntitlementRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	now       func() time.Time
}

func NewEntitlementService(
	grantRepo repository.EntitlementRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) EntitlementService {
	return &entitlementService{grantRepo: grantRepo, auditRepo: auditRepo, txManager: txManager, now: time.Now}
}

// --- Implementation ---

func (s *entitlementService) Reconcile(ctx context.Context, tenantID uuid.UUID, planName string, opts ReconcileOptions, actorID *uuid.UUID) (ReconcileResult, error) {
	p, ok := plan.Lookup(planName)
	if !ok {
		return ReconcileResult{}, apperr.NotFound("unknown plan %q", planName)
	}
	desired := p.Grants()

	result := ReconcileResult{Plan: p.Name}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rows, err := s.grantRepo.ListByTenant(txCtx, tenantID)
		if err != nil {
			return fmt.Errorf("failed to list entitlement grants: %w", err)
		}

		// Collapse duplicate (tenant, application) rows to the earliest
		// one. Two concurrent provisioning calls can both insert before
		// either commits when the unique index is missing or deferred.
		rows, removed, err := s.dedupe(txCtx, rows)
		if err != nil {
			return err
		}
		result.DuplicatesRemoved = removed

		if removed == 0 && opts.SkipIfRecentlyUpdated && !opts.ForceUpdate && s.matchesPlan(rows, p, desired) {
			result.Status = ReconcileStatusSkipped
			return nil
		}

		existing := make(map[string]*model.EntitlementGrant, len(rows))
		for i := range rows {
			existing[rows[i].ApplicationID] = &rows[i]
		}

		for _, appGrant := range p.Applications {
			row := existing[appGrant.ApplicationID]
			if row == nil {
				created, err := s.insertGrant(txCtx, tenantID, p.Name, appGrant)
				if err != nil {
					return err
				}
				if created {
					result.Created++
					continue
				}
				// A concurrent writer won the insert race; fall through to
				// an in-place update of the now-existing row.
				row, err = s.grantRepo.FindByKey(txCtx, tenantID, appGrant.ApplicationID)
				if err != nil {
					return fmt.Errorf("failed to reload entitlement grant: %w", err)
				}
				if row == nil {
					return apperr.Conflict("entitlement grant for %s vanished during reconcile", appGrant.ApplicationID)
				}
			}
			if grantDiffers(row, p.Name, appGrant) {
				applyGrant(row, p.Name, appGrant)
				if err := s.grantRepo.Save(txCtx, row); err != nil {
					return fmt.Errorf("failed to update entitlement grant: %w", err)
				}
				result.Updated++
			}
		}

		// Applications the plan no longer includes are disabled, never
		// deleted: history stays for audit and re-enable on upgrade.
		for i := range rows {
			row := &rows[i]
			if _, granted := desired[row.ApplicationID]; !granted && row.IsEnabled {
				row.IsEnabled = false
				if err := s.grantRepo.Save(txCtx, row); err != nil {
					return fmt.Errorf("failed to disable entitlement grant: %w", err)
				}
				result.Disabled++
			}
		}

		result.Status = ReconcileStatusUpdated
		details, _ := json.Marshal(result)
		entry := &model.AuditLog{
			TenantID: &tenantID,
			UserID:   actorID,
			Action:   model.ActionReconcileEntitlements,
			EntityID: tenantID.String(),
			Details:  string(details),
		}
		if err := s.auditRepo.Log(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return ReconcileResult{}, err
	}

	return result, nil
}

func (s *entitlementService) ListGrants(ctx context.Context, tenantID uuid.UUID) ([]EntitlementResponse, error) {
	rows, err := s.grantRepo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entitlement grants: %w", err)
	}

	res := make([]EntitlementResponse, 0, len(rows))
	for _, g := range rows {
		res = append(res, toEntitlementResponse(g))
	}
	return res, nil
}

// dedupe keeps the earliest-created row per application and deletes the
// rest. Rows arrive ordered by created_at, so the first seen row wins.
func (s *entitlementService) dedupe(ctx context.Context, rows []model.EntitlementGrant) ([]model.EntitlementGrant, int, error) {
	seen := make(map[string]bool, len(rows))
	kept := rows[:0]
	removed := 0
	for _, row := range rows {
		if seen[row.ApplicationID] {
			if err := s.grantRepo.DeleteByID(ctx, row.ID); err != nil {
				return nil, 0, fmt.Errorf("failed to remove duplicate grant: %w", err)
			}
			removed++
			continue
		}
		seen[row.ApplicationID] = true
		kept = append(kept, row)
	}
	return kept, removed, nil
}

// matchesPlan reports whether the stored grants already reflect the plan
// and were all touched within the skip window.
func (s *entitlementService) matchesPlan(rows []model.EntitlementGrant, p plan.Plan, desired map[string]plan.ApplicationGrant) bool {
	cutoff := s.now().Add(-reconcileSkipWindow)

	enabled := make(map[string]*model.EntitlementGrant, len(rows))
	for i := range rows {
		row := &rows[i]
		if row.IsEnabled {
			if _, granted := desired[row.ApplicationID]; !granted {
				return false // stale grant still enabled
			}
			enabled[row.ApplicationID] = row
		}
		if row.UpdatedAt.Before(cutoff) {
			return false
		}
	}

	for appID, appGrant := range desired {
		row := enabled[appID]
		if row == nil || grantDiffers(row, p.Name, appGrant) {
			return false
		}
	}
	return true
}

// insertGrant attempts the insert and reports false when a concurrent
// writer already created the row (uniqueness violation).
func (s *entitlementService) insertGrant(ctx context.Context, tenantID uuid.UUID, tier string, appGrant plan.ApplicationGrant) (bool, error) {
	grant := &model.EntitlementGrant{
		TenantID:      tenantID,
		ApplicationID: appGrant.ApplicationID,
	}
	applyGrant(grant, tier, appGrant)

	err := s.grantRepo.Create(ctx, grant)
	if err == nil {
		return true, nil
	}
	if isUniqueViolation(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to create entitlement grant: %w", err)
}

func applyGrant(row *model.EntitlementGrant, tier string, appGrant plan.ApplicationGrant) {
	row.IsEnabled = true
	row.SubscriptionTier = tier
	row.EnabledModules = append([]string(nil), appGrant.Modules...)
	row.MaxUsers = appGrant.MaxUsers
}

func grantDiffers(row *model.EntitlementGrant, tier string, appGrant plan.ApplicationGrant) bool {
	if !row.IsEnabled || row.SubscriptionTier != tier {
		return true
	}
	if (row.MaxUsers == nil) != (appGrant.MaxUsers == nil) {
		return true
	}
	if row.MaxUsers != nil && appGrant.MaxUsers != nil && *row.MaxUsers != *appGrant.MaxUsers {
		return true
	}
	if len(row.EnabledModules) != len(appGrant.Modules) {
		return true
	}
	have := make(map[string]bool, len(row.EnabledModules))
	for _, m := range row.EnabledModules {
		have[m] = true
	}
	for _, m := range appGrant.Modules {
		if !have[m] {
			return true
		}
	}
	return false
}

// isUniqueViolation detects the insert race on (tenant_id, application_id)
// through GORM's translated error or the raw Postgres error code.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func toEntitlementResponse(g model.EntitlementGrant) EntitlementResponse {
	return EntitlementResponse{
		ID:               g.ID,
		TenantID:         g.TenantID,
		ApplicationID:    g.ApplicationID,
		IsEnabled:        g.IsEnabled,
		EnabledModules:   append([]string(nil), g.EnabledModules...),
		SubscriptionTier: g.SubscriptionTier,
		MaxUsers:         g.MaxUsers,
		UpdatedAt:        g.UpdatedAt,
	}
}
