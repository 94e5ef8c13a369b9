package service

import (
	"context"
	"encoding/json"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// writeAudit records an audit entry inside the caller's transaction context.
// Audit failures never fail the business operation.
func writeAudit(ctx context.Context, repo repository.AuditRepository, actorID string, action, entityID, entityName string, details map[string]interface{}) {
	entry := &model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
	}
	if id, err := uuid.Parse(actorID); err == nil {
		entry.UserID = &id
	}
	if payload, err := json.Marshal(details); err == nil {
		entry.Details = string(payload)
	}
	_ = repo.Create(ctx, entry)
}
