package dashboard

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/domain/appointment"
	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/department"
	"github.com/hms/hms/internal/domain/doctor"
	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/platform/auth"
)

// Stats is the operational summary shown on the staff dashboard.
type Stats struct {
	Patients          int                        `json:"patients"`
	Doctors           int                        `json:"doctors"`
	AvailableDoctors  int                        `json:"available_doctors"`
	Departments       int                        `json:"departments"`
	TodayAppointments int                        `json:"today_appointments"`
	Appointments      map[appointment.Status]int `json:"appointments"`
	PendingInvoices   int                        `json:"pending_invoices"`
	Revenue           decimal.Decimal            `json:"revenue"`
	Since             time.Time                  `json:"since"`

	// MyAppointments is the acting doctor's own upcoming count; nil for
	// other roles.
	MyAppointments *int `json:"my_appointments,omitempty"`
}

type Service struct {
	patients     *patient.Service
	doctors      *doctor.Service
	departments  *department.Service
	appointments *appointment.Service
	billing      *billing.Service
}

func NewService(patients *patient.Service, doctors *doctor.Service, departments *department.Service,
	appointments *appointment.Service, billing *billing.Service) *Service {
	return &Service{
		patients:     patients,
		doctors:      doctors,
		departments:  departments,
		appointments: appointments,
		billing:      billing,
	}
}

// Stats aggregates counts from the given date onward. Revenue covers
// paid amounts on non-cancelled invoices created since then. The counts
// use the listing paths with limit 1, so only totals are fetched.
func (s *Service) Stats(ctx context.Context, actor auth.Actor, since time.Time) (*Stats, error) {
	patients, err := s.patients.Count(ctx)
	if err != nil {
		return nil, err
	}
	_, doctors, err := s.doctors.List(ctx, doctor.ListQuery{}, 1, 0)
	if err != nil {
		return nil, err
	}
	_, available, err := s.doctors.List(ctx, doctor.ListQuery{AvailableOnly: true}, 1, 0)
	if err != nil {
		return nil, err
	}
	_, departments, err := s.departments.List(ctx, 1, 0)
	if err != nil {
		return nil, err
	}

	all := auth.Filter{Scope: auth.ScopeAll}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	_, todayAppts, err := s.appointments.List(ctx, appointment.ListQuery{Filter: all, Date: &today}, 1, 0)
	if err != nil {
		return nil, err
	}
	appts, err := s.appointments.CountByStatus(ctx, since)
	if err != nil {
		return nil, err
	}
	_, pending, err := s.billing.List(ctx, billing.ListQuery{Filter: all, Status: billing.StatusPending}, 1, 0)
	if err != nil {
		return nil, err
	}
	revenue, err := s.billing.RevenueSince(ctx, since)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Patients:          patients,
		Doctors:           doctors,
		AvailableDoctors:  available,
		Departments:       departments,
		TodayAppointments: todayAppts,
		Appointments:      appts,
		PendingInvoices:   pending,
		Revenue:           revenue,
		Since:             since,
	}

	if actor.Role == auth.RoleDoctor && actor.DoctorID != nil {
		_, mine, err := s.appointments.List(ctx, appointment.ListQuery{
			Filter:   all,
			DoctorID: actor.DoctorID,
			FromDate: &today,
		}, 1, 0)
		if err != nil {
			return nil, err
		}
		stats.MyAppointments = &mine
	}
	return stats, nil
}
