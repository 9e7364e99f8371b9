package event

import (
	"context"
	"encoding/json"

	"github.com/poinmhs/backend/internal/domain/claim"
	"github.com/poinmhs/backend/internal/domain/shared"
	"github.com/poinmhs/backend/internal/domain/student"
	"go.uber.org/zap"
)

// AuditLogHandler writes one structured log line per domain event, giving
// admins a trail of submissions, reviews, imports and point credits
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a handler logging under the "audit" name
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// EventTypes subscribes to every event
func (h *AuditLogHandler) EventTypes() []string { return nil }

// Handle logs the event with its payload
func (h *AuditLogHandler) Handle(_ context.Context, e shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", e.EventType()),
		zap.String("event_id", e.EventID().String()),
		zap.String("aggregate_type", e.AggregateType()),
		zap.String("aggregate_id", e.AggregateID().String()),
		zap.Time("occurred_at", e.OccurredAt()),
	}

	switch ev := e.(type) {
	case *claim.ClaimReviewedEvent:
		fields = append(fields,
			zap.String("student_id", ev.StudentID.String()),
			zap.String("from_status", string(ev.FromStatus)),
			zap.String("to_status", string(ev.ToStatus)),
			zap.Int("points", ev.Points))
	case *student.PointsCreditedEvent:
		fields = append(fields,
			zap.String("student_id", ev.StudentID.String()),
			zap.Int("points", ev.Points),
			zap.Int("new_total", ev.NewTotal))
	default:
		payload, err := json.Marshal(e)
		if err != nil {
			return err
		}
		fields = append(fields, zap.ByteString("payload", payload))
	}

	h.logger.Info("Domain event", fields...)
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
