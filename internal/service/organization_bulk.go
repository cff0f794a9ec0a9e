package service

import (
	"context"

	"github.com/google/uuid"
)

// --- Bulk DTOs ---

type BulkUpdateItem struct {
	ID      uuid.UUID                 `json:"id" binding:"required"`
	Request UpdateOrganizationRequest `json:"request"`
}

// BulkError records one failed item, keyed by its position in the input.
type BulkError struct {
	Index int         `json:"index"`
	Input interface{} `json:"input"`
	Error string      `json:"error"`
}

// BulkResult reports a best-effort batch: successes and failures in input
// order. Only each individual operation is atomic, never the batch.
type BulkResult[R any] struct {
	Successful int         `json:"successful"`
	Failed     int         `json:"failed"`
	Results    []R         `json:"results"`
	Failures   []BulkError `json:"failures"`
}

func appendFailure[R any](res *BulkResult[R], index int, input interface{}, err error) {
	res.Failed++
	res.Failures = append(res.Failures, BulkError{Index: index, Input: input, Error: err.Error()})
}

// BulkCreate creates many nodes; items with a parent_id become children,
// items without become a root attempt. A failing item never blocks the rest.
func (s *organizationService) BulkCreate(ctx context.Context, tenantID uuid.UUID, items []CreateOrganizationRequest, actorID uuid.UUID) BulkResult[OrganizationResponse] {
	res := BulkResult[OrganizationResponse]{
		Results:  make([]OrganizationResponse, 0, len(items)),
		Failures: []BulkError{},
	}

	for i, item := range items {
		var (
			created OrganizationResponse
			err     error
		)
		if item.ParentID == nil {
			created, err = s.CreateRoot(ctx, tenantID, item, actorID)
		} else {
			var parentID uuid.UUID
			parentID, err = uuid.Parse(*item.ParentID)
			if err == nil {
				created, err = s.CreateChild(ctx, parentID, item, actorID)
			}
		}
		if err != nil {
			appendFailure(&res, i, item, err)
			continue
		}
		res.Successful++
		res.Results = append(res.Results, created)
	}

	return res
}

func (s *organizationService) BulkUpdate(ctx context.Context, items []BulkUpdateItem, actorID uuid.UUID) BulkResult[OrganizationResponse] {
	res := BulkResult[OrganizationResponse]{
		Results:  make([]OrganizationResponse, 0, len(items)),
		Failures: []BulkError{},
	}

	for i, item := range items {
		updated, err := s.Update(ctx, item.ID, item.Request, actorID)
		if err != nil {
			appendFailure(&res, i, item, err)
			continue
		}
		res.Successful++
		res.Results = append(res.Results, updated)
	}

	return res
}

func (s *organizationService) BulkDelete(ctx context.Context, ids []uuid.UUID, actorID uuid.UUID) BulkResult[uuid.UUID] {
	res := BulkResult[uuid.UUID]{
		Results:  make([]uuid.UUID, 0, len(ids)),
		Failures: []BulkError{},
	}

	for i, id := range ids {
		if err := s.Delete(ctx, id, actorID); err != nil {
			appendFailure(&res, i, id, err)
			continue
		}
		res.Successful++
		res.Results = append(res.Results, id)
	}

	return res
}
