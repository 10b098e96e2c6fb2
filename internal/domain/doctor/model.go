package doctor

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("doctor not found")
	ErrLicenseTaken = errors.New("license number already registered")
)

type Doctor struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	FirstName       string          `db:"first_name" json:"first_name"`
	LastName        string          `db:"last_name" json:"last_name"`
	Specialization  string          `db:"specialization" json:"specialization"`
	DepartmentID    *uuid.UUID      `db:"department_id" json:"department_id,omitempty"`
	LicenseNumber   string          `db:"license_number" json:"license_number"`
	ConsultationFee decimal.Decimal `db:"consultation_fee" json:"consultation_fee"`
	Available       bool            `db:"available" json:"available"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

func (d *Doctor) Validate() error {
	if d.FirstName == "" || d.LastName == "" {
		return fmt.Errorf("first_name and last_name are required")
	}
	if d.LicenseNumber == "" {
		return fmt.Errorf("license_number is required")
	}
	if d.ConsultationFee.IsNegative() {
		return fmt.Errorf("consultation_fee may not be negative")
	}
	return nil
}
