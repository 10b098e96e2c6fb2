package patient

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

func (s *Service) Create(ctx context.Context, p *Patient) (*Patient, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Patient) (*Patient, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, q ListQuery, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, q, limit, offset)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// RegisterProfile creates the minimal profile backing a self-registered
// account and returns its id. Demographics are filled in later through
// the normal update path.
func (s *Service) RegisterProfile(ctx context.Context, firstName, lastName string) (uuid.UUID, error) {
	p := &Patient{FirstName: firstName, LastName: lastName}
	if _, err := s.Create(ctx, p); err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}
