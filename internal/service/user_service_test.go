package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/plan"
	"backend/pkg/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService() (UserService, *fakeGrantRepo) {
	orgSvc, _, auditRepo := newOrgService()
	grantRepo := &fakeGrantRepo{}
	entitlementSvc := NewEntitlementService(grantRepo, auditRepo, passthroughTxManager{})
	svc := NewUserService(newFakeUserRepo(), newFakeTenantRepo(), orgSvc, entitlementSvc, auditRepo, passthroughTxManager{})
	return svc, grantRepo
}

func TestRegisterTenantOnboarding(t *testing.T) {
	svc, grantRepo := newUserService()

	resp, err := svc.RegisterTenant(context.Background(), RegisterTenantRequest{
		TenantName: "Acme Corp",
		Plan:       plan.TierProfessional,
		Email:      "admin@acme.com",
		FullName:   "Acme Admin",
		Password:   "secret123",
	})
	require.NoError(t, err)

	assert.Equal(t, model.RoleAdmin, resp.User.Role)
	assert.Equal(t, resp.TenantID, resp.User.TenantID)

	// Root organization materialized for the new tenant.
	assert.Equal(t, model.OrgTypeRoot, resp.RootOrg.Type)
	assert.Equal(t, resp.TenantID, resp.RootOrg.TenantID)
	assert.Equal(t, "Acme Corp", resp.RootOrg.Name)

	// Entitlements reconciled against the chosen plan.
	assert.Equal(t, ReconcileStatusUpdated, resp.Entitlements.Status)
	assert.Equal(t, 3, resp.Entitlements.Created)
	assert.NotNil(t, grantRepo.byApp(resp.TenantID, plan.AppOrganizations))

	// The token carries the tenant and user claims the middleware reads.
	token, err := jwt.Parse(resp.Token, func(*jwt.Token) (interface{}, error) {
		return []byte("default_super_secret_key"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, resp.User.ID.String(), claims["sub"])
	assert.Equal(t, resp.TenantID.String(), claims["tenant"])
	assert.Equal(t, model.RoleAdmin, claims["role"])
}

func TestRegisterTenantValidation(t *testing.T) {
	svc, _ := newUserService()

	_, err := svc.RegisterTenant(context.Background(), RegisterTenantRequest{
		TenantName: "Acme",
		Plan:       "platinum",
		Email:      "admin@acme.com",
		FullName:   "Admin",
		Password:   "secret123",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.RegisterTenant(context.Background(), RegisterTenantRequest{
		TenantName: "Acme",
		Plan:       plan.TierStarter,
		Email:      "not-an-email",
		FullName:   "Admin",
		Password:   "secret123",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestRegisterTenantDuplicateEmail(t *testing.T) {
	svc, _ := newUserService()
	req := RegisterTenantRequest{
		TenantName: "Acme",
		Plan:       plan.TierStarter,
		Email:      "admin@acme.com",
		FullName:   "Admin",
		Password:   "secret123",
	}

	_, err := svc.RegisterTenant(context.Background(), req)
	require.NoError(t, err)

	req.TenantName = "Other Corp"
	_, err = svc.RegisterTenant(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestLogin(t *testing.T) {
	svc, _ := newUserService()

	_, err := svc.RegisterTenant(context.Background(), RegisterTenantRequest{
		TenantName: "Acme",
		Plan:       plan.TierStarter,
		Email:      "admin@acme.com",
		FullName:   "Admin",
		Password:   "secret123",
	})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "admin@acme.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "admin@acme.com", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.Login(context.Background(), LoginRequest{Email: "nobody@acme.com", Password: "secret123"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestCreateUser(t *testing.T) {
	svc, _ := newUserService()

	onboarding, err := svc.RegisterTenant(context.Background(), RegisterTenantRequest{
		TenantName: "Acme",
		Plan:       plan.TierStarter,
		Email:      "admin@acme.com",
		FullName:   "Admin",
		Password:   "secret123",
	})
	require.NoError(t, err)

	user, err := svc.CreateUser(context.Background(), onboarding.TenantID, CreateUserRequest{
		Email:    "member@acme.com",
		FullName: "Member",
		Password: "secret123",
		Role:     model.RoleMember,
	})
	require.NoError(t, err)
	assert.Equal(t, onboarding.TenantID, user.TenantID)
	assert.Equal(t, model.RoleMember, user.Role)

	_, err = svc.CreateUser(context.Background(), onboarding.TenantID, CreateUserRequest{
		Email:    "member@acme.com",
		FullName: "Member",
		Password: "secret123",
		Role:     model.RoleMember,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	_, err = svc.CreateUser(context.Background(), onboarding.TenantID, CreateUserRequest{
		Email:    "other@acme.com",
		FullName: "Other",
		Password: "secret123",
		Role:     "superuser",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	users, total, err := svc.ListUsers(context.Background(), onboarding.TenantID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, users, 2)
}
