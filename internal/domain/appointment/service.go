package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// terminalStatuses are end states; once reached the appointment can no
// longer change.
var terminalStatuses = map[Status]bool{
	StatusCompleted: true,
	StatusCancelled: true,
	StatusNoShow:    true,
}

var ErrTerminalStatus = fmt.Errorf("appointment is in a terminal status")

type Service struct {
	repo        Repository
	guard       Guard
	granularity int
	log         zerolog.Logger
}

func NewService(repo Repository, guard Guard, granularityMinutes int, log zerolog.Logger) *Service {
	return &Service{repo: repo, guard: guard, granularity: granularityMinutes, log: log}
}

// Book creates a new appointment after verifying the window is free.
// The check and the insert run in one transaction under a per-doctor,
// per-day advisory lock, so two concurrent requests for the same window
// cannot both succeed; the partial unique index backs this up at the
// schema level.
func (s *Service) Book(ctx context.Context, a *Appointment) (*Appointment, error) {
	a.Date = dateOnly(a.Date)
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.LockDoctorDay(ctx, a.DoctorID, a.Date); err != nil {
			return err
		}
		existing, err := s.repo.ListByDoctorDate(ctx, a.DoctorID, a.Date)
		if err != nil {
			return err
		}
		if err := s.guard.CheckBooking(existing, a.DoctorID, a.StartTime, a.DurationMinutes, uuid.Nil); err != nil {
			return err
		}
		return s.repo.Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("appointment_id", a.ID.String()).
		Str("doctor_id", a.DoctorID.String()).
		Str("date", a.Date.Format("2006-01-02")).
		Str("time", a.StartTime).
		Msg("appointment booked")
	return a, nil
}

// Reschedule moves an appointment to a new window, re-running the
// conflict check with the appointment itself excluded so it can keep
// any part of its old slot.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, date time.Time, startTime string, durationMinutes int) (*Appointment, error) {
	date = dateOnly(date)

	var out *Appointment
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if terminalStatuses[a.Status] {
			return fmt.Errorf("%w: %s", ErrTerminalStatus, a.Status)
		}

		a.Date = date
		a.StartTime = startTime
		if durationMinutes > 0 {
			a.DurationMinutes = durationMinutes
		}
		if err := a.Validate(); err != nil {
			return err
		}

		if err := s.repo.LockDoctorDay(ctx, a.DoctorID, a.Date); err != nil {
			return err
		}
		existing, err := s.repo.ListByDoctorDate(ctx, a.DoctorID, a.Date)
		if err != nil {
			return err
		}
		if err := s.guard.CheckBooking(existing, a.DoctorID, a.StartTime, a.DurationMinutes, a.ID); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus transitions the appointment. Terminal statuses are
// final; cancellation keeps the row so the slot frees up without losing
// history.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, notes string) (*Appointment, error) {
	if !validStatuses[status] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if terminalStatuses[a.Status] && status != a.Status {
		return nil, fmt.Errorf("%w: %s", ErrTerminalStatus, a.Status)
	}

	a.Status = status
	if notes != "" {
		a.Notes = notes
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Cancel is a convenience wrapper for the cancelled transition.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	return s.UpdateStatus(ctx, id, StatusCancelled, reason)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, q ListQuery, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, q, limit, offset)
}

// Upcoming lists non-terminal appointments from today onward, within
// the caller's row filter.
func (s *Service) Upcoming(ctx context.Context, q ListQuery, limit, offset int) ([]*Appointment, int, error) {
	today := dateOnly(time.Now().UTC())
	q.FromDate = &today
	if q.Status == "" {
		q.Status = StatusScheduled
	}
	return s.repo.List(ctx, q, limit, offset)
}

// FreeSlots returns the open start times for the doctor on the given
// day at the configured granularity.
func (s *Service) FreeSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	existing, err := s.repo.ListByDoctorDate(ctx, doctorID, dateOnly(date))
	if err != nil {
		return nil, err
	}
	slots := []string{}
	for slot := range s.guard.FreeSlots(existing, doctorID, s.granularity) {
		slots = append(slots, slot)
	}
	return slots, nil
}

func (s *Service) CountByStatus(ctx context.Context, from time.Time) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx, dateOnly(from))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
