package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the JWT payload issued at login. The optional profile links
// are resolved at issue time so a request never has to join back to the
// profile tables to build its Actor.
type Claims struct {
	jwt.RegisteredClaims
	Role      string `json:"role"`
	DoctorID  string `json:"doctor_id,omitempty"`
	PatientID string `json:"patient_id,omitempty"`
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewTokenIssuer(secret []byte, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, issuer: issuer, ttl: ttl}
}

// Issue creates a signed token for the actor.
func (ti *TokenIssuer) Issue(a Actor) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.ID.String(),
			Issuer:    ti.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
		Role: string(a.Role),
	}
	if a.DoctorID != nil {
		claims.DoctorID = a.DoctorID.String()
	}
	if a.PatientID != nil {
		claims.PatientID = a.PatientID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
}

// Verify parses a token string and reconstructs the Actor.
func (ti *TokenIssuer) Verify(tokenStr string) (Actor, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if ti.issuer != "" {
		opts = append(opts, jwt.WithIssuer(ti.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return Actor{}, fmt.Errorf("invalid token")
	}
	return actorFromClaims(claims)
}

func actorFromClaims(claims *Claims) (Actor, error) {
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Actor{}, fmt.Errorf("invalid subject: %w", err)
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return Actor{}, err
	}
	a := Actor{ID: id, Role: role}
	if claims.DoctorID != "" {
		did, err := uuid.Parse(claims.DoctorID)
		if err != nil {
			return Actor{}, fmt.Errorf("invalid doctor_id claim: %w", err)
		}
		a.DoctorID = &did
	}
	if claims.PatientID != "" {
		pid, err := uuid.Parse(claims.PatientID)
		if err != nil {
			return Actor{}, fmt.Errorf("invalid patient_id claim: %w", err)
		}
		a.PatientID = &pid
	}
	if err := a.Validate(); err != nil {
		return Actor{}, err
	}
	return a, nil
}
