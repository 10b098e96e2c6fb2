package doctor

import (
	"context"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, d *Doctor) (*Doctor, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	d.Available = true
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, d *Doctor) (*Doctor, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, q ListQuery, limit, offset int) ([]*Doctor, int, error) {
	return s.repo.List(ctx, q, limit, offset)
}

// SetAvailability flips whether the doctor appears in the bookable
// directory. Existing appointments are untouched.
func (s *Service) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (*Doctor, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Available = available
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}
