package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/hms/hms/internal/platform/auth"
)

const minPasswordLen = 8

// PatientProfiles creates the clinical profile backing a self-registered
// patient account.
type PatientProfiles interface {
	RegisterProfile(ctx context.Context, firstName, lastName string) (uuid.UUID, error)
}

type Service struct {
	repo     Repository
	tokens   *auth.TokenIssuer
	profiles PatientProfiles
	log      zerolog.Logger
}

func NewService(repo Repository, tokens *auth.TokenIssuer, profiles PatientProfiles, log zerolog.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, profiles: profiles, log: log}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      auth.Role
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
}

// Register creates an account. Role assignment is the caller's
// responsibility: the self-service path always passes the patient role,
// staff roles come only through admin provisioning.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if len(in.Password) < minPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Email:        in.Email,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         in.Role,
		DoctorID:     in.DoctorID,
		PatientID:    in.PatientID,
		Active:       true,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	// Self-registered patients get their clinical profile created and
	// linked after the account row lands, so a lost duplicate-email race
	// never leaves an orphaned profile. Admin provisioning names an
	// existing profile instead.
	if u.Role == auth.RolePatient && u.PatientID == nil && s.profiles != nil {
		pid, err := s.profiles.RegisterProfile(ctx, u.FirstName, u.LastName)
		if err != nil {
			return nil, fmt.Errorf("create patient profile: %w", err)
		}
		u.PatientID = &pid
		if err := s.repo.Update(ctx, u); err != nil {
			return nil, fmt.Errorf("link patient profile: %w", err)
		}
	}

	s.log.Info().Str("user_id", u.ID.String()).Str("role", string(u.Role)).Msg("user registered")
	return u, nil
}

// Login verifies credentials and issues a token. The error for a
// missing account and a wrong password is identical so login attempts
// cannot probe which emails exist.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if !u.Active {
		return nil, "", ErrInactive
	}

	token, err := s.tokens.Issue(u.Actor())
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	if err := s.repo.RecordLogin(ctx, u.ID); err != nil {
		s.log.Warn().Err(err).Str("user_id", u.ID.String()).Msg("record login failed")
	}
	return u, token, nil
}

func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	if len(next) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	return s.repo.Update(ctx, u)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// SetActive toggles whether the account can log in. Existing tokens
// stay valid until expiry; deactivation blocks the next login.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Active = active
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
