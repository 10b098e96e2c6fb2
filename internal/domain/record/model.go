package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound             = errors.New("medical record not found")
	ErrPrescriptionNotFound = errors.New("prescription not found")
)

// MedicalRecord is one clinical entry in a patient's chart. Records are
// deactivated, never deleted, so the chart is append-only.
type MedicalRecord struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	Diagnosis     string     `db:"diagnosis" json:"diagnosis"`
	Symptoms      string     `db:"symptoms" json:"symptoms,omitempty"`
	TreatmentPlan string     `db:"treatment_plan" json:"treatment_plan,omitempty"`
	Notes         string     `db:"notes" json:"notes,omitempty"`

	// VitalSigns is a free-form measurement document, e.g.
	// {"bp": "120/80", "pulse": 72}. The service does not interpret it.
	VitalSigns json.RawMessage `db:"vital_signs" json:"vital_signs,omitempty"`

	// Confidential marks entries that staff should handle with extra
	// discretion. Visibility is unchanged; it is display guidance.
	Confidential bool `db:"confidential" json:"confidential"`

	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (m *MedicalRecord) Validate() error {
	if m.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if m.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if m.Diagnosis == "" {
		return fmt.Errorf("diagnosis is required")
	}
	return nil
}

type Prescription struct {
	ID              uuid.UUID `db:"id" json:"id"`
	MedicalRecordID uuid.UUID `db:"medical_record_id" json:"medical_record_id"`
	DoctorID        uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Medication      string    `db:"medication" json:"medication"`
	Dosage          string    `db:"dosage" json:"dosage"`
	Frequency       string    `db:"frequency" json:"frequency,omitempty"`
	DurationDays    int       `db:"duration_days" json:"duration_days,omitempty"`
	Instructions    string    `db:"instructions" json:"instructions,omitempty"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

func (p *Prescription) Validate() error {
	if p.MedicalRecordID == uuid.Nil {
		return fmt.Errorf("medical_record_id is required")
	}
	if p.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if p.Medication == "" || p.Dosage == "" {
		return fmt.Errorf("medication and dosage are required")
	}
	if p.DurationDays < 0 {
		return fmt.Errorf("duration_days may not be negative")
	}
	return nil
}
