package record

import (
	"context"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/auth"
)

type ListQuery struct {
	Filter     auth.Filter
	PatientID  *uuid.UUID
	DoctorID   *uuid.UUID
	ActiveOnly bool
}

type Repository interface {
	Create(ctx context.Context, m *MedicalRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error)
	Update(ctx context.Context, m *MedicalRecord) error
	List(ctx context.Context, q ListQuery, limit, offset int) ([]*MedicalRecord, int, error)

	CreatePrescription(ctx context.Context, p *Prescription) error
	GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error)
	UpdatePrescription(ctx context.Context, p *Prescription) error
	ListPrescriptions(ctx context.Context, recordID uuid.UUID) ([]*Prescription, error)
}
