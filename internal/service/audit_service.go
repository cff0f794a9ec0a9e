package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/repository"

	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID         uuid.UUID `json:"id"`
	UserID     string    `json:"user_id"`
	UserEmail  string    `json:"user_email"`
	Action     string    `json:"action"`
	EntityID   string    `json:"entity_id"`
	EntityName string    `json:"entity_name"`
	Details    string    `json:"details"`
	CreatedAt  time.Time `json:"created_at"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) GetAuditLogs(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.auditRepo.ListByTenant(ctx, tenantID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		email := "System"
		userID := ""
		if l.User != nil {
			email = l.User.Email
		}
		if l.UserID != nil {
			userID = l.UserID.String()
		}
		res = append(res, AuditLogResponse{
			ID:         l.ID,
			UserID:     userID,
			UserEmail:  email,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt,
		})
	}
	return res, total, nil
}
