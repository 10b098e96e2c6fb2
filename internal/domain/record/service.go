package record

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/auth"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create adds a chart entry. A doctor actor is always recorded as the
// authoring doctor regardless of what the request claims; admins must
// name the doctor explicitly.
func (s *Service) Create(ctx context.Context, actor auth.Actor, m *MedicalRecord) (*MedicalRecord, error) {
	if actor.DoctorID != nil {
		m.DoctorID = *actor.DoctorID
	}
	m.Active = true
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, m *MedicalRecord) (*MedicalRecord, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Deactivate retires a record from the active chart without deleting
// it.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Active = false
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) List(ctx context.Context, q ListQuery, limit, offset int) ([]*MedicalRecord, int, error) {
	return s.repo.List(ctx, q, limit, offset)
}

// Prescribe attaches a prescription to an existing record. The
// authoring doctor follows the same rule as Create.
func (s *Service) Prescribe(ctx context.Context, actor auth.Actor, p *Prescription) (*Prescription, error) {
	if _, err := s.repo.GetByID(ctx, p.MedicalRecordID); err != nil {
		return nil, fmt.Errorf("prescribe: %w", err)
	}
	if actor.DoctorID != nil {
		p.DoctorID = *actor.DoctorID
	}
	p.Active = true
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.CreatePrescription(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetPrescription(ctx, id)
}

func (s *Service) DeactivatePrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := s.repo.GetPrescription(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Active = false
	if err := s.repo.UpdatePrescription(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Prescriptions(ctx context.Context, recordID uuid.UUID) ([]*Prescription, error) {
	return s.repo.ListPrescriptions(ctx, recordID)
}
