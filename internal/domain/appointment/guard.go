package appointment

import (
	"fmt"
	"iter"

	"github.com/google/uuid"
)

// WorkingHours is the bookable window of a clinic day, in minutes since
// midnight.
type WorkingHours struct {
	Start int
	End   int
}

// Guard decides whether a proposed booking fits a doctor's calendar.
// It is a pure decision function: the caller loads the relevant slice
// of the schedule, and the surrounding transaction (advisory lock plus
// the unique index) makes the check-then-create pair atomic against
// concurrent writers.
type Guard struct {
	Hours WorkingHours
}

// minuteOfDay parses an HH:MM clock value.
func minuteOfDay(clock string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", clock)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", clock)
	}
	return h*60 + m, nil
}

func clockOf(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// CheckBooking scans the doctor's schedule for the day and returns a
// ConflictError when the proposed [start, start+duration) window
// intersects any active appointment. Two half-open intervals overlap
// when each starts before the other ends, so adjacent back-to-back
// visits do not collide. excludeID lets an update re-check a window
// without colliding with itself.
func (g Guard) CheckBooking(existing []Appointment, doctorID uuid.UUID, start string, durationMinutes int, excludeID uuid.UUID) error {
	if durationMinutes < MinDurationMinutes {
		return fmt.Errorf("duration must be at least %d minutes, got %d", MinDurationMinutes, durationMinutes)
	}
	proposedStart, err := minuteOfDay(start)
	if err != nil {
		return err
	}
	proposedEnd := proposedStart + durationMinutes

	for i := range existing {
		a := &existing[i]
		if a.ID == excludeID || a.DoctorID != doctorID || !a.Active() {
			continue
		}
		bookedStart, err := minuteOfDay(a.StartTime)
		if err != nil {
			// A stored appointment with an unparseable time cannot be
			// proven free; refuse the booking rather than overlap it.
			return fmt.Errorf("existing appointment %s: %w", a.ID, err)
		}
		bookedEnd := bookedStart + a.DurationMinutes
		if proposedStart < bookedEnd && bookedStart < proposedEnd {
			return &ConflictError{ExistingID: a.ID}
		}
	}
	return nil
}

// FreeSlots yields the HH:MM start times inside the working-hours
// window at the given granularity for which a booking of that length
// would not conflict. The sequence is finite and can be ranged over
// multiple times.
func (g Guard) FreeSlots(existing []Appointment, doctorID uuid.UUID, granularityMinutes int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if granularityMinutes <= 0 {
			return
		}
		for start := g.Hours.Start; start+granularityMinutes <= g.Hours.End; start += granularityMinutes {
			clock := clockOf(start)
			if err := g.CheckBooking(existing, doctorID, clock, granularityMinutes, uuid.Nil); err != nil {
				continue
			}
			if !yield(clock) {
				return
			}
		}
	}
}
