package appointment

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAppointmentValidate(t *testing.T) {
	valid := func() Appointment {
		return Appointment{
			PatientID:       uuid.New(),
			DoctorID:        uuid.New(),
			Date:            time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
			StartTime:       "10:00",
			DurationMinutes: 30,
			Status:          StatusScheduled,
		}
	}

	if a := valid(); a.Validate() != nil {
		t.Errorf("valid appointment rejected: %v", a.Validate())
	}

	tests := []struct {
		name   string
		mutate func(*Appointment)
	}{
		{"missing patient", func(a *Appointment) { a.PatientID = uuid.Nil }},
		{"missing doctor", func(a *Appointment) { a.DoctorID = uuid.Nil }},
		{"missing date", func(a *Appointment) { a.Date = time.Time{} }},
		{"bad time", func(a *Appointment) { a.StartTime = "ten" }},
		{"too short", func(a *Appointment) { a.DurationMinutes = 5 }},
		{"bad status", func(a *Appointment) { a.Status = "booked" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid()
			tt.mutate(&a)
			if a.Validate() == nil {
				t.Error("invalid appointment accepted")
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	if _, err := ParseStatus("no_show"); err != nil {
		t.Errorf("no_show rejected: %v", err)
	}
	if _, err := ParseStatus("pending"); err == nil {
		t.Error("unknown status accepted")
	}
}

func TestActive(t *testing.T) {
	a := Appointment{Status: StatusCancelled}
	if a.Active() {
		t.Error("cancelled appointment reported active")
	}
	a.Status = StatusCompleted
	if !a.Active() {
		t.Error("completed appointment occupied its window when it ran")
	}
}
