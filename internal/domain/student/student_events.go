package student

import (
	"github.com/google/uuid"
	"github.com/poinmhs/backend/internal/domain/shared"
)

// AggregateTypeStudent is the aggregate type used on student events
const AggregateTypeStudent = "Student"

// Event type constants
const (
	EventTypeStudentCreated = "StudentCreated"
	EventTypePointsCredited = "StudentPointsCredited"
)

// StudentCreatedEvent is published when a student record is registered
type StudentCreatedEvent struct {
	shared.BaseDomainEvent
	StudentID uuid.UUID `json:"student_id"`
	NIM       string    `json:"nim"`
}

// NewStudentCreatedEvent creates a new StudentCreatedEvent
func NewStudentCreatedEvent(s *Student) *StudentCreatedEvent {
	return &StudentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStudentCreated, AggregateTypeStudent, s.ID),
		StudentID:       s.ID,
		NIM:             s.NIM,
	}
}

// PointsCreditedEvent is published when the ledger credits approved points
type PointsCreditedEvent struct {
	shared.BaseDomainEvent
	StudentID uuid.UUID `json:"student_id"`
	Points    int       `json:"points"`
	NewTotal  int       `json:"new_total"`
}

// NewPointsCreditedEvent creates a new PointsCreditedEvent
func NewPointsCreditedEvent(s *Student, points int) *PointsCreditedEvent {
	return &PointsCreditedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePointsCredited, AggregateTypeStudent, s.ID),
		StudentID:       s.ID,
		Points:          points,
		NewTotal:        s.TotalPoin,
	}
}
