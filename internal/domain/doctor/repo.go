package doctor

import (
	"context"

	"github.com/google/uuid"
)

type ListQuery struct {
	DepartmentID   *uuid.UUID
	Specialization string
	AvailableOnly  bool
}

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q ListQuery, limit, offset int) ([]*Doctor, int, error)
}
