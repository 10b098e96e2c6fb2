package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/auth"
)

type ListQuery struct {
	Filter auth.Filter
	Name   string
}

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q ListQuery, limit, offset int) ([]*Patient, int, error)
	Count(ctx context.Context) (int, error)
}
