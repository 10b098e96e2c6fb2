package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/auth"
)

// ListQuery narrows a listing. Filter is the row-level policy predicate
// and is always applied; the remaining fields are caller-supplied
// refinements within that visibility.
type ListQuery struct {
	Filter    auth.Filter
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Date      *time.Time
	Status    Status
	FromDate  *time.Time
}

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	List(ctx context.Context, q ListQuery, limit, offset int) ([]*Appointment, int, error)

	// ListByDoctorDate returns every appointment of the doctor on the
	// given day, including cancelled ones, for conflict checks.
	ListByDoctorDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Appointment, error)

	// LockDoctorDay serializes concurrent bookings against the same
	// doctor and day for the duration of the surrounding transaction.
	LockDoctorDay(ctx context.Context, doctorID uuid.UUID, date time.Time) error

	// InTx runs fn inside a transaction; repository calls made with the
	// context fn receives join it.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	CountByStatus(ctx context.Context, from time.Time) (map[Status]int, error)
}
