// Package ledger owns the only write path to a student's total_poin.
package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/domain/claim"
	"github.com/poinmhs/backend/internal/domain/shared"
	"github.com/poinmhs/backend/internal/domain/student"
	"go.uber.org/zap"
)

// PointLedger credits approved claim points. It must be called with
// repositories bound to the same transaction as the claim's status change.
type PointLedger struct {
	logger *zap.Logger
}

// NewPointLedger creates a new PointLedger
func NewPointLedger(logger *zap.Logger) *PointLedger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PointLedger{logger: logger}
}

// Credit is the outcome of one ApplyApproval call
type Credit struct {
	StudentID uuid.UUID
	Points    int
	Total     int
	events    []shared.DomainEvent
}

// Events returns the student's domain events raised by the credit. Publish
// them only after the surrounding transaction commits. Safe on a nil Credit.
func (c *Credit) Events() []shared.DomainEvent {
	if c == nil {
		return nil
	}
	return c.events
}

// ApplyApproval adds points to the student's total. A missing student fails
// the whole unit of work with NotFound. Zero points change nothing and raise
// no event.
func (l *PointLedger) ApplyApproval(ctx context.Context, students student.StudentRepository, studentID uuid.UUID, points int) (*Credit, error) {
	if points < 0 {
		return nil, shared.NewValidationError("points to credit cannot be negative")
	}
	s, err := students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError("student")
		}
		return nil, err
	}
	if points == 0 {
		return &Credit{StudentID: studentID, Total: s.TotalPoin}, nil
	}

	total, err := students.AddPoints(ctx, studentID, points)
	if err != nil {
		return nil, err
	}
	// Bring the loaded aggregate to the stored total so the event carries it
	s.TotalPoin = total - points
	if err := s.CreditPoints(points); err != nil {
		return nil, err
	}
	events := s.GetDomainEvents()
	s.ClearDomainEvents()

	l.logger.Info("Points credited",
		zap.String("student_id", studentID.String()),
		zap.Int("points", points),
		zap.Int("total_poin", total))
	return &Credit{StudentID: studentID, Points: points, Total: total, events: events}, nil
}

// Discrepancy describes a student whose stored total differs from the sum of
// their approved claims
type Discrepancy struct {
	StudentID uuid.UUID `json:"student_id"`
	NIM       string    `json:"nim"`
	Stored    int       `json:"stored"`
	Expected  int       `json:"expected"`
}

// Verify compares a student's stored total with the sum of approved claims.
// It returns nil when they agree.
func (l *PointLedger) Verify(ctx context.Context, students student.StudentRepository, claims claim.ClaimRepository, studentID uuid.UUID) (*Discrepancy, error) {
	s, err := students.FindByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	sum, err := claims.SumApprovedPoints(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if sum == s.TotalPoin {
		return nil, nil
	}

	l.logger.Warn("Ledger mismatch",
		zap.String("student_id", studentID.String()),
		zap.Int("stored", s.TotalPoin),
		zap.Int("expected", sum))
	return &Discrepancy{StudentID: s.ID, NIM: s.NIM, Stored: s.TotalPoin, Expected: sum}, nil
}
