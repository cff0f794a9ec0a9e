package service

import (
	"context"
	"sort"
	"time"

	"backend/internal/model"
	"backend/pkg/treepath"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// The services depend on repository interfaces only, so the tests run
// against in-memory stores instead of a database.

type passthroughTxManager struct{}

func (passthroughTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (f *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) ListByTenant(_ context.Context, tenantID uuid.UUID, page, limit int) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog
	for _, e := range f.entries {
		if e.TenantID != nil && *e.TenantID == tenantID {
			logs = append(logs, e)
		}
	}
	return logs, int64(len(logs)), nil
}

// fakeOrgRepo stores organizations keyed by id and mimics the ordering
// guarantees of the real queries.
type fakeOrgRepo struct {
	orgs map[uuid.UUID]*model.Organization
	seq  int
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{orgs: make(map[uuid.UUID]*model.Organization)}
}

func (f *fakeOrgRepo) Create(_ context.Context, org *model.Organization) error {
	cp := *org
	f.seq++
	cp.CreatedAt = time.Unix(int64(f.seq), 0)
	cp.UpdatedAt = cp.CreatedAt
	f.orgs[cp.ID] = &cp
	org.CreatedAt = cp.CreatedAt
	org.UpdatedAt = cp.UpdatedAt
	return nil
}

func (f *fakeOrgRepo) Save(_ context.Context, org *model.Organization) error {
	cp := *org
	cp.UpdatedAt = time.Now()
	f.orgs[cp.ID] = &cp
	return nil
}

func (f *fakeOrgRepo) FindActiveByID(_ context.Context, id uuid.UUID) (*model.Organization, error) {
	org, ok := f.orgs[id]
	if !ok || !org.IsActive {
		return nil, nil
	}
	cp := *org
	return &cp, nil
}

func (f *fakeOrgRepo) FindActiveRoot(_ context.Context, tenantID uuid.UUID) (*model.Organization, error) {
	for _, org := range f.orgs {
		if org.TenantID == tenantID && org.Type == model.OrgTypeRoot && org.IsActive {
			cp := *org
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeOrgRepo) ListActiveByTenant(_ context.Context, tenantID uuid.UUID, allowedIDs []uuid.UUID) ([]model.Organization, error) {
	allowed := map[uuid.UUID]bool{}
	for _, id := range allowedIDs {
		allowed[id] = true
	}

	var out []model.Organization
	for _, org := range f.orgs {
		if org.TenantID != tenantID || !org.IsActive {
			continue
		}
		if allowedIDs != nil && !allowed[org.ID] {
			continue
		}
		out = append(out, *org)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeOrgRepo) ListDescendants(_ context.Context, tenantID uuid.UUID, path string) ([]model.Organization, error) {
	var out []model.Organization
	for _, org := range f.orgs {
		if org.TenantID == tenantID && treepath.IsStrictDescendant(org.Path, path) {
			out = append(out, *org)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

func (f *fakeOrgRepo) CountActiveChildren(_ context.Context, parentID uuid.UUID) (int64, error) {
	var count int64
	for _, org := range f.orgs {
		if org.ParentID != nil && *org.ParentID == parentID && org.IsActive {
			count++
		}
	}
	return count, nil
}

func (f *fakeOrgRepo) get(id uuid.UUID) *model.Organization {
	return f.orgs[id]
}

// fakeGrantRepo stores entitlement grants in insertion order and can be
// told to fail the next Create with a given error.
type fakeGrantRepo struct {
	grants        []*model.EntitlementGrant
	seq           int
	nextCreateErr error
	// raceWinner, when set, lands in the store the moment a Create fails,
	// imitating a concurrent writer that committed first.
	raceWinner *model.EntitlementGrant
}

func (f *fakeGrantRepo) Create(_ context.Context, grant *model.EntitlementGrant) error {
	if f.nextCreateErr != nil {
		err := f.nextCreateErr
		f.nextCreateErr = nil
		if f.raceWinner != nil {
			f.grants = append(f.grants, f.raceWinner)
			f.raceWinner = nil
		}
		return err
	}
	cp := *grant
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	f.seq++
	cp.CreatedAt = time.Unix(int64(f.seq), 0)
	cp.UpdatedAt = cp.CreatedAt
	f.grants = append(f.grants, &cp)
	grant.ID = cp.ID
	return nil
}

func (f *fakeGrantRepo) Save(_ context.Context, grant *model.EntitlementGrant) error {
	for i, g := range f.grants {
		if g.ID == grant.ID {
			cp := *grant
			cp.UpdatedAt = time.Now()
			f.grants[i] = &cp
			return nil
		}
	}
	cp := *grant
	f.grants = append(f.grants, &cp)
	return nil
}

func (f *fakeGrantRepo) FindByKey(_ context.Context, tenantID uuid.UUID, applicationID string) (*model.EntitlementGrant, error) {
	for _, g := range f.grants {
		if g.TenantID == tenantID && g.ApplicationID == applicationID {
			cp := *g
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeGrantRepo) ListByTenant(_ context.Context, tenantID uuid.UUID) ([]model.EntitlementGrant, error) {
	var out []model.EntitlementGrant
	for _, g := range f.grants {
		if g.TenantID == tenantID {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeGrantRepo) DeleteByID(_ context.Context, id uuid.UUID) error {
	for i, g := range f.grants {
		if g.ID == id {
			f.grants = append(f.grants[:i], f.grants[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeGrantRepo) byApp(tenantID uuid.UUID, applicationID string) *model.EntitlementGrant {
	for _, g := range f.grants {
		if g.TenantID == tenantID && g.ApplicationID == applicationID {
			return g
		}
	}
	return nil
}

type fakeMembershipRepo struct {
	memberships map[uuid.UUID]*model.Membership
}

func newFakeMembershipRepo() *fakeMembershipRepo {
	return &fakeMembershipRepo{memberships: make(map[uuid.UUID]*model.Membership)}
}

func (f *fakeMembershipRepo) Create(_ context.Context, m *model.Membership) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	cp := *m
	f.memberships[cp.ID] = &cp
	return nil
}

func (f *fakeMembershipRepo) Save(_ context.Context, m *model.Membership) error {
	cp := *m
	f.memberships[cp.ID] = &cp
	return nil
}

func (f *fakeMembershipRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Membership, error) {
	m, ok := f.memberships[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMembershipRepo) FindActive(_ context.Context, organizationID, userID uuid.UUID) (*model.Membership, error) {
	for _, m := range f.memberships {
		if m.OrganizationID == organizationID && m.UserID == userID && m.IsActive {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeMembershipRepo) ListByOrganization(_ context.Context, organizationID uuid.UUID, page, limit int) ([]model.Membership, int64, error) {
	var out []model.Membership
	for _, m := range f.memberships {
		if m.OrganizationID == organizationID && m.IsActive {
			out = append(out, *m)
		}
	}
	return out, int64(len(out)), nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	f.users[cp.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *user
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) ListByTenant(_ context.Context, tenantID uuid.UUID, page, limit int) ([]model.User, int64, error) {
	var out []model.User
	for _, u := range f.users {
		if u.TenantID == tenantID {
			out = append(out, *u)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	cp := *user
	f.users[cp.ID] = &cp
	return nil
}

type fakeTenantRepo struct {
	tenants map[uuid.UUID]*model.Tenant
}

func newFakeTenantRepo() *fakeTenantRepo {
	return &fakeTenantRepo{tenants: make(map[uuid.UUID]*model.Tenant)}
}

func (f *fakeTenantRepo) Create(_ context.Context, tenant *model.Tenant) error {
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}
	cp := *tenant
	f.tenants[cp.ID] = &cp
	return nil
}

func (f *fakeTenantRepo) Save(_ context.Context, tenant *model.Tenant) error {
	cp := *tenant
	f.tenants[cp.ID] = &cp
	return nil
}

func (f *fakeTenantRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Tenant, error) {
	tenant, ok := f.tenants[id]
	if !ok {
		return nil, nil
	}
	cp := *tenant
	return &cp, nil
}
