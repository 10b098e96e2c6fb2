package department

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("department not found")
	ErrNameTaken = errors.New("department name already exists")
)

type Department struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Description  string     `db:"description" json:"description,omitempty"`
	HeadDoctorID *uuid.UUID `db:"head_doctor_id" json:"head_doctor_id,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

func (d *Department) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// Summary is the quick per-department listing used by booking screens:
// the name plus its current roster size, without the full record.
type Summary struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	DoctorCount int       `db:"doctor_count" json:"doctor_count"`
}
