package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type membershipFixture struct {
	svc      MembershipService
	orgSvc   OrganizationService
	userRepo *fakeUserRepo
	tenantID uuid.UUID
	actorID  uuid.UUID
	orgID    uuid.UUID
	userID   uuid.UUID
}

func newMembershipFixture(t *testing.T) *membershipFixture {
	t.Helper()

	orgSvc, _, auditRepo := newOrgService()
	userRepo := newFakeUserRepo()
	membershipRepo := newFakeMembershipRepo()
	svc := NewMembershipService(membershipRepo, userRepo, orgSvc, auditRepo, passthroughTxManager{})

	tenantID := uuid.New()
	actorID := uuid.New()
	root := mustCreateRoot(t, orgSvc, tenantID, actorID, "Root")

	user := &model.User{TenantID: tenantID, Email: "member@example.com", FullName: "Member", Role: model.RoleMember, IsActive: true}
	require.NoError(t, userRepo.Create(context.Background(), user))

	return &membershipFixture{
		svc:      svc,
		orgSvc:   orgSvc,
		userRepo: userRepo,
		tenantID: tenantID,
		actorID:  actorID,
		orgID:    root.ID,
		userID:   user.ID,
	}
}

func TestAssignMember(t *testing.T) {
	f := newMembershipFixture(t)

	resp, err := f.svc.AssignMember(context.Background(), f.tenantID, AssignMemberRequest{
		OrganizationID: f.orgID.String(),
		UserID:         f.userID.String(),
		Role:           model.MemberRoleManager,
	}, f.actorID)
	require.NoError(t, err)

	assert.Equal(t, f.orgID, resp.OrganizationID)
	assert.Equal(t, f.userID, resp.UserID)
	assert.Equal(t, model.MemberRoleManager, resp.Role)
	assert.Equal(t, "member@example.com", resp.UserEmail)
	assert.True(t, resp.IsActive)
}

func TestAssignMemberTwiceConflicts(t *testing.T) {
	f := newMembershipFixture(t)
	req := AssignMemberRequest{
		OrganizationID: f.orgID.String(),
		UserID:         f.userID.String(),
		Role:           model.MemberRoleMember,
	}

	_, err := f.svc.AssignMember(context.Background(), f.tenantID, req, f.actorID)
	require.NoError(t, err)

	_, err = f.svc.AssignMember(context.Background(), f.tenantID, req, f.actorID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestAssignMemberValidation(t *testing.T) {
	f := newMembershipFixture(t)

	cases := []AssignMemberRequest{
		{OrganizationID: "nope", UserID: f.userID.String(), Role: model.MemberRoleMember},
		{OrganizationID: f.orgID.String(), UserID: "nope", Role: model.MemberRoleMember},
		{OrganizationID: f.orgID.String(), UserID: f.userID.String(), Role: "OWNER"},
	}
	for _, req := range cases {
		_, err := f.svc.AssignMember(context.Background(), f.tenantID, req, f.actorID)
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	}
}

func TestAssignMemberUnknownOrganization(t *testing.T) {
	f := newMembershipFixture(t)

	_, err := f.svc.AssignMember(context.Background(), f.tenantID, AssignMemberRequest{
		OrganizationID: uuid.New().String(),
		UserID:         f.userID.String(),
		Role:           model.MemberRoleMember,
	}, f.actorID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestAssignMemberDeletedOrganization(t *testing.T) {
	f := newMembershipFixture(t)

	child, err := f.orgSvc.CreateChild(context.Background(), f.orgID, CreateOrganizationRequest{Name: "Child"}, f.actorID)
	require.NoError(t, err)
	require.NoError(t, f.orgSvc.Delete(context.Background(), child.ID, f.actorID))

	_, err = f.svc.AssignMember(context.Background(), f.tenantID, AssignMemberRequest{
		OrganizationID: child.ID.String(),
		UserID:         f.userID.String(),
		Role:           model.MemberRoleMember,
	}, f.actorID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestAssignMemberCrossTenantUser(t *testing.T) {
	f := newMembershipFixture(t)

	stranger := &model.User{TenantID: uuid.New(), Email: "other@example.com", FullName: "Other", Role: model.RoleMember}
	require.NoError(t, f.userRepo.Create(context.Background(), stranger))

	_, err := f.svc.AssignMember(context.Background(), f.tenantID, AssignMemberRequest{
		OrganizationID: f.orgID.String(),
		UserID:         stranger.ID.String(),
		Role:           model.MemberRoleMember,
	}, f.actorID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestRemoveMemberAllowsReassignment(t *testing.T) {
	f := newMembershipFixture(t)
	req := AssignMemberRequest{
		OrganizationID: f.orgID.String(),
		UserID:         f.userID.String(),
		Role:           model.MemberRoleMember,
	}

	resp, err := f.svc.AssignMember(context.Background(), f.tenantID, req, f.actorID)
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveMember(context.Background(), f.tenantID, resp.ID, f.actorID))

	// Removed memberships no longer block a fresh assignment.
	_, err = f.svc.AssignMember(context.Background(), f.tenantID, req, f.actorID)
	require.NoError(t, err)
}

func TestRemoveMemberWrongTenant(t *testing.T) {
	f := newMembershipFixture(t)

	resp, err := f.svc.AssignMember(context.Background(), f.tenantID, AssignMemberRequest{
		OrganizationID: f.orgID.String(),
		UserID:         f.userID.String(),
		Role:           model.MemberRoleMember,
	}, f.actorID)
	require.NoError(t, err)

	err = f.svc.RemoveMember(context.Background(), uuid.New(), resp.ID, f.actorID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestListMembers(t *testing.T) {
	f := newMembershipFixture(t)

	_, err := f.svc.AssignMember(context.Background(), f.tenantID, AssignMemberRequest{
		OrganizationID: f.orgID.String(),
		UserID:         f.userID.String(),
		Role:           model.MemberRoleMember,
	}, f.actorID)
	require.NoError(t, err)

	members, total, err := f.svc.ListMembers(context.Background(), f.orgID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, members, 1)
	assert.Equal(t, f.userID, members[0].UserID)
}
