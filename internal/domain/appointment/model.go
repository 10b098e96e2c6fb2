package appointment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. Cancellation is a status transition, never a
// row deletion, so a doctor's history stays intact.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

var validStatuses = map[Status]bool{
	StatusScheduled:  true,
	StatusConfirmed:  true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusCancelled:  true,
	StatusNoShow:     true,
}

// MinDurationMinutes is the shortest bookable visit.
const MinDurationMinutes = 15

var (
	ErrNotFound      = errors.New("appointment not found")
	ErrInvalidStatus = errors.New("invalid appointment status")
)

// ConflictError reports a double-booking attempt, naming the existing
// appointment so the caller can render an actionable message.
type ConflictError struct {
	ExistingID uuid.UUID
}

func (e *ConflictError) Error() string {
	if e.ExistingID == uuid.Nil {
		return "time window conflicts with an existing appointment"
	}
	return fmt.Sprintf("time window conflicts with appointment %s", e.ExistingID)
}

type Appointment struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientID       uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID        uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Date            time.Time `db:"appointment_date" json:"appointment_date"`
	StartTime       string    `db:"appointment_time" json:"appointment_time"` // HH:MM
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Reason          string    `db:"reason" json:"reason"`
	Status          Status    `db:"status" json:"status"`
	Notes           string    `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Active reports whether the appointment still occupies its time window.
func (a *Appointment) Active() bool {
	return a.Status != StatusCancelled
}

// Validate checks field-level invariants before persistence.
func (a *Appointment) Validate() error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if a.Date.IsZero() {
		return fmt.Errorf("appointment_date is required")
	}
	if _, err := minuteOfDay(a.StartTime); err != nil {
		return err
	}
	if a.DurationMinutes < MinDurationMinutes {
		return fmt.Errorf("duration must be at least %d minutes, got %d", MinDurationMinutes, a.DurationMinutes)
	}
	if a.Status != "" && !validStatuses[a.Status] {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, a.Status)
	}
	return nil
}

// ParseStatus validates a status value supplied by a caller.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !validStatuses[st] {
		return "", fmt.Errorf("%w: %s", ErrInvalidStatus, s)
	}
	return st, nil
}
