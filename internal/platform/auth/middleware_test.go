package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func testIssuer() *TokenIssuer {
	return NewTokenIssuer([]byte("test-secret"), "hms-test", time.Hour)
}

func TestTokenRoundTrip(t *testing.T) {
	ti := testIssuer()
	pid := uuid.New()
	in := Actor{ID: uuid.New(), Role: RolePatient, PatientID: &pid}

	tok, err := ti.Issue(in)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	out, err := ti.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if out.ID != in.ID || out.Role != in.Role {
		t.Errorf("round trip mismatch: got %+v", out)
	}
	if out.PatientID == nil || *out.PatientID != pid {
		t.Error("patient link lost in round trip")
	}
	if out.DoctorID != nil {
		t.Error("doctor link fabricated in round trip")
	}
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	tok, err := testIssuer().Issue(Actor{ID: uuid.New(), Role: RoleAdmin})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	other := NewTokenIssuer([]byte("other-secret"), "hms-test", time.Hour)
	if _, err := other.Verify(tok); err == nil {
		t.Error("token signed with a different secret must be rejected")
	}
}

func TestMiddleware_SetsActor(t *testing.T) {
	ti := testIssuer()
	did := uuid.New()
	tok, err := ti.Issue(Actor{ID: uuid.New(), Role: RoleDoctor, DoctorID: &did})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := Middleware(ti)(func(c echo.Context) error {
		actor, ok := ActorFromContext(c.Request().Context())
		if !ok {
			t.Fatal("actor missing from context")
		}
		if actor.Role != RoleDoctor || actor.DoctorID == nil || *actor.DoctorID != did {
			t.Errorf("unexpected actor %+v", actor)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := h(c); err != nil {
		t.Fatalf("handler returned %v", err)
	}
}

func TestMiddleware_MissingToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	h := Middleware(testIssuer())(func(c echo.Context) error {
		t.Fatal("handler should not run")
		return nil
	})

	err := h(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	newCtx := func(a Actor) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithActor(req.Context(), a))
		return e.NewContext(req, httptest.NewRecorder())
	}

	if err := RequireRole(RoleAdmin, RoleReceptionist)(ok)(newCtx(Actor{ID: uuid.New(), Role: RoleReceptionist})); err != nil {
		t.Errorf("receptionist should pass: %v", err)
	}

	err := RequireRole(RoleAdmin)(ok)(newCtx(Actor{ID: uuid.New(), Role: RoleNurse}))
	httpErr, isHTTP := err.(*echo.HTTPError)
	if !isHTTP || httpErr.Code != http.StatusForbidden {
		t.Errorf("nurse should get 403, got %v", err)
	}
}
