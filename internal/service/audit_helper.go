package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/eduvita-api/internal/models"
)

// RequestMeta identifies the caller of a mutating request for auditing.
type RequestMeta struct {
	ActorID   string
	IP        string
	UserAgent string
}

// writeAudit records an audit entry; failures are logged and never surface.
func writeAudit(ctx context.Context, w auditWriter, logger *zap.Logger, meta RequestMeta, action, resource, resourceID string, before, after interface{}) {
	if w == nil {
		return
	}
	entry := &models.AuditLog{
		Action:    action,
		Resource:  resource,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}
	if meta.ActorID != "" {
		entry.UserID = &meta.ActorID
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if before != nil {
		entry.OldValues, _ = json.Marshal(before)
	}
	if after != nil {
		entry.NewValues, _ = json.Marshal(after)
	}
	if err := w.CreateAuditLog(ctx, entry); err != nil {
		logger.Warn("failed to record audit log", zap.String("action", action), zap.String("resource", resource), zap.Error(err))
	}
}

// validID reports whether id is a well-formed UUID. Stored rows are keyed by
// UUIDs, so any other id is treated as missing before it reaches Postgres.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
