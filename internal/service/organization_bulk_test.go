package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkCreatePartialFailure(t *testing.T) {
	svc, orgRepo, _ := newOrgService()
	tenantID := uuid.New()
	actorID := uuid.New()

	root := mustCreateRoot(t, svc, tenantID, actorID, "Root")
	rootID := root.ID.String()

	items := []CreateOrganizationRequest{
		{Name: "Alpha", ParentID: &rootID},
		{Name: "X", ParentID: &rootID}, // name too short
		{Name: "Beta", ParentID: &rootID},
	}

	res := svc.BulkCreate(context.Background(), tenantID, items, actorID)

	assert.Equal(t, 2, res.Successful)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Results, 2)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 1, res.Failures[0].Index)

	// The failure did not block the later item.
	assert.Equal(t, "Beta", res.Results[1].Name)
	assert.NotNil(t, orgRepo.get(res.Results[1].ID))
}

func TestBulkCreateSecondRootFails(t *testing.T) {
	svc, _, _ := newOrgService()
	tenantID := uuid.New()
	actorID := uuid.New()

	// Two root attempts in one batch: the first wins, the second conflicts.
	res := svc.BulkCreate(context.Background(), tenantID, []CreateOrganizationRequest{
		{Name: "First Root"},
		{Name: "Second Root"},
	}, actorID)

	assert.Equal(t, 1, res.Successful)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 1, res.Failures[0].Index)
}

func TestBulkCreateBadParentID(t *testing.T) {
	svc, _, _ := newOrgService()
	bad := "not-a-uuid"

	res := svc.BulkCreate(context.Background(), uuid.New(), []CreateOrganizationRequest{
		{Name: "Child", ParentID: &bad},
	}, uuid.New())

	assert.Equal(t, 0, res.Successful)
	assert.Equal(t, 1, res.Failed)
}

func TestBulkUpdate(t *testing.T) {
	svc, _, _ := newOrgService()
	tenantID := uuid.New()
	actorID := uuid.New()

	root := mustCreateRoot(t, svc, tenantID, actorID, "Root")

	newName := "Renamed"
	res := svc.BulkUpdate(context.Background(), []BulkUpdateItem{
		{ID: root.ID, Request: UpdateOrganizationRequest{Name: &newName}},
		{ID: uuid.New(), Request: UpdateOrganizationRequest{Name: &newName}}, // unknown id
	}, actorID)

	assert.Equal(t, 1, res.Successful)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Results, 1)
	assert.Equal(t, newName, res.Results[0].Name)
	assert.Equal(t, 1, res.Failures[0].Index)
}

func TestBulkDelete(t *testing.T) {
	svc, _, _ := newOrgService()
	tenantID := uuid.New()
	actorID := uuid.New()

	root := mustCreateRoot(t, svc, tenantID, actorID, "Root")
	child := mustCreateChild(t, svc, root.ID, actorID, "Child")

	// Deleting the parent first fails, its child then succeeds.
	res := svc.BulkDelete(context.Background(), []uuid.UUID{root.ID, child.ID}, actorID)

	assert.Equal(t, 1, res.Successful)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, res.Failures[0].Index)
	require.Len(t, res.Results, 1)
	assert.Equal(t, child.ID, res.Results[0])
}
