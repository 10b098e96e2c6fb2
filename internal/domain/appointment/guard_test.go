package appointment

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

var testHours = WorkingHours{Start: 9 * 60, End: 17 * 60}

func appt(doctorID uuid.UUID, start string, duration int, status Status) Appointment {
	return Appointment{
		ID:              uuid.New(),
		DoctorID:        doctorID,
		PatientID:       uuid.New(),
		StartTime:       start,
		DurationMinutes: duration,
		Status:          status,
	}
}

func TestCheckBooking_Conflicts(t *testing.T) {
	g := Guard{Hours: testHours}
	doc := uuid.New()
	other := uuid.New()

	existing := []Appointment{appt(doc, "10:00", 30, StatusScheduled)}

	tests := []struct {
		name     string
		doctor   uuid.UUID
		start    string
		duration int
		wantErr  bool
	}{
		{"identical window", doc, "10:00", 30, true},
		{"overlapping window", doc, "10:15", 30, true},
		{"proposed spans existing", doc, "09:45", 60, true},
		{"existing spans proposed", doc, "10:05", 15, true},
		{"back to back after", doc, "10:30", 30, false},
		{"back to back before", doc, "09:30", 30, false},
		{"same window, different doctor", other, "10:00", 30, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.CheckBooking(existing, tt.doctor, tt.start, tt.duration, uuid.Nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckBooking(%s %s+%dm) error = %v, wantErr %v", tt.doctor, tt.start, tt.duration, err, tt.wantErr)
			}
			if tt.wantErr {
				var conflict *ConflictError
				if !errors.As(err, &conflict) {
					t.Fatalf("error %v is not a ConflictError", err)
				}
				if conflict.ExistingID != existing[0].ID {
					t.Errorf("conflict names %s, want %s", conflict.ExistingID, existing[0].ID)
				}
			}
		})
	}
}

func TestCheckBooking_CancelledFreesTheSlot(t *testing.T) {
	g := Guard{Hours: testHours}
	doc := uuid.New()
	existing := []Appointment{appt(doc, "10:00", 30, StatusCancelled)}

	if err := g.CheckBooking(existing, doc, "10:00", 30, uuid.Nil); err != nil {
		t.Errorf("cancelled appointment should not block the window: %v", err)
	}
}

func TestCheckBooking_ExcludeSelf(t *testing.T) {
	g := Guard{Hours: testHours}
	doc := uuid.New()
	existing := []Appointment{appt(doc, "10:00", 30, StatusScheduled)}

	// Rescheduling within its own old window must not self-conflict.
	if err := g.CheckBooking(existing, doc, "10:15", 30, existing[0].ID); err != nil {
		t.Errorf("excluded appointment still conflicts: %v", err)
	}
}

func TestCheckBooking_RejectsBadInput(t *testing.T) {
	g := Guard{Hours: testHours}
	doc := uuid.New()

	if err := g.CheckBooking(nil, doc, "10:00", 5, uuid.Nil); err == nil {
		t.Error("duration below the minimum should be rejected")
	}
	if err := g.CheckBooking(nil, doc, "25:00", 30, uuid.Nil); err == nil {
		t.Error("invalid clock value should be rejected")
	}
}

func TestFreeSlots_SubtractsBookedWindows(t *testing.T) {
	g := Guard{Hours: WorkingHours{Start: 9 * 60, End: 11 * 60}}
	doc := uuid.New()
	existing := []Appointment{
		appt(doc, "09:30", 30, StatusScheduled),
		appt(doc, "10:00", 30, StatusCancelled), // freed
	}

	var got []string
	for slot := range g.FreeSlots(existing, doc, 30) {
		got = append(got, slot)
	}
	want := []string{"09:00", "10:00", "10:30"}
	if len(got) != len(want) {
		t.Fatalf("FreeSlots = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("FreeSlots = %v, want %v", got, want)
		}
	}
}

func TestFreeSlots_Restartable(t *testing.T) {
	g := Guard{Hours: WorkingHours{Start: 9 * 60, End: 10 * 60}}
	doc := uuid.New()

	seq := g.FreeSlots(nil, doc, 30)
	first, second := 0, 0
	for range seq {
		first++
	}
	for range seq {
		second++
	}
	if first != 2 || second != 2 {
		t.Errorf("ranging twice gave %d then %d slots, want 2 and 2", first, second)
	}
}

func TestFreeSlots_EarlyBreak(t *testing.T) {
	g := Guard{Hours: testHours}
	doc := uuid.New()

	var got []string
	for slot := range g.FreeSlots(nil, doc, 30) {
		got = append(got, slot)
		if len(got) == 1 {
			break
		}
	}
	if len(got) != 1 || got[0] != "09:00" {
		t.Errorf("early break collected %v", got)
	}
}

func TestMinuteOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:05", 545, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"09:60", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		got, err := minuteOfDay(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("minuteOfDay(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("minuteOfDay(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
