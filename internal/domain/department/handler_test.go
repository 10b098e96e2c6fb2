package department

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
)

type fakeRepo struct {
	depts        map[uuid.UUID]*Department
	doctorCounts map[uuid.UUID]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		depts:        map[uuid.UUID]*Department{},
		doctorCounts: map[uuid.UUID]int{},
	}
}

func (f *fakeRepo) Create(_ context.Context, d *Department) error {
	for _, existing := range f.depts {
		if existing.Name == d.Name {
			return ErrNameTaken
		}
	}
	d.ID = uuid.New()
	cp := *d
	f.depts[d.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Department, error) {
	d, ok := f.depts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeRepo) Update(_ context.Context, d *Department) error {
	if _, ok := f.depts[d.ID]; !ok {
		return ErrNotFound
	}
	cp := *d
	f.depts[d.ID] = &cp
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.depts[id]; !ok {
		return ErrNotFound
	}
	delete(f.depts, id)
	return nil
}

func (f *fakeRepo) List(_ context.Context, limit, offset int) ([]*Department, int, error) {
	var out []*Department
	for _, d := range f.depts {
		cp := *d
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Summary(_ context.Context) ([]Summary, error) {
	var out []Summary
	for _, d := range f.depts {
		out = append(out, Summary{ID: d.ID, Name: d.Name, DoctorCount: f.doctorCounts[d.ID]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func doRequest(t *testing.T, h *Handler, actor auth.Actor, method, path, body string, fn echo.HandlerFunc, pathParam ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(auth.WithActor(req.Context(), actor))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(pathParam) == 2 {
		c.SetParamNames(pathParam[0])
		c.SetParamValues(pathParam[1])
	}
	if err := fn(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestCreate_AdminOnly(t *testing.T) {
	h := NewHandler(NewService(newFakeRepo()))
	admin := auth.Actor{ID: uuid.New(), Role: auth.RoleAdmin}
	nurse := auth.Actor{ID: uuid.New(), Role: auth.RoleNurse}

	rec := doRequest(t, h, admin, http.MethodPost, "/departments", `{"name":"Cardiology"}`, h.Create)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin create: status %d, body %s", rec.Code, rec.Body)
	}

	rec = doRequest(t, h, nurse, http.MethodPost, "/departments", `{"name":"Oncology"}`, h.Create)
	if rec.Code != http.StatusForbidden {
		t.Errorf("nurse create: status %d, want 403", rec.Code)
	}
}

func TestList_OpenToAllRoles(t *testing.T) {
	repo := newFakeRepo()
	h := NewHandler(NewService(repo))
	_ = repo.Create(context.Background(), &Department{Name: "Cardiology"})

	for _, role := range auth.Roles() {
		actor := auth.Actor{ID: uuid.New(), Role: role}
		rec := doRequest(t, h, actor, http.MethodGet, "/departments", "", h.List)
		if rec.Code != http.StatusOK {
			t.Errorf("%s list: status %d, want 200", role, rec.Code)
		}
	}
}

func TestGet_NotFoundAndDuplicateName(t *testing.T) {
	repo := newFakeRepo()
	h := NewHandler(NewService(repo))
	admin := auth.Actor{ID: uuid.New(), Role: auth.RoleAdmin}

	rec := doRequest(t, h, admin, http.MethodGet, "/departments/"+uuid.NewString(), "", h.Get, "id", uuid.NewString())
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing department: status %d, want 404", rec.Code)
	}

	rec = doRequest(t, h, admin, http.MethodPost, "/departments", `{"name":"ER"}`, h.Create)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d", rec.Code)
	}
	rec = doRequest(t, h, admin, http.MethodPost, "/departments", `{"name":"ER"}`, h.Create)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate name: status %d, want 409", rec.Code)
	}
}

func TestSummary_NamesAndDoctorCounts(t *testing.T) {
	repo := newFakeRepo()
	h := NewHandler(NewService(repo))

	cardio := &Department{Name: "Cardiology"}
	ortho := &Department{Name: "Orthopedics"}
	_ = repo.Create(context.Background(), cardio)
	_ = repo.Create(context.Background(), ortho)
	repo.doctorCounts[cardio.ID] = 3

	receptionist := auth.Actor{ID: uuid.New(), Role: auth.RoleReceptionist}
	rec := doRequest(t, h, receptionist, http.MethodGet, "/departments/summary", "", h.Summary)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: status %d, body %s", rec.Code, rec.Body)
	}

	var got []Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode summary response: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("summary rows = %d, want 2", len(got))
	}
	if got[0].Name != "Cardiology" || got[0].DoctorCount != 3 {
		t.Errorf("first row = %s/%d, want Cardiology/3", got[0].Name, got[0].DoctorCount)
	}
	if got[1].Name != "Orthopedics" || got[1].DoctorCount != 0 {
		t.Errorf("second row = %s/%d, want Orthopedics/0", got[1].Name, got[1].DoctorCount)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	repo := newFakeRepo()
	h := NewHandler(NewService(repo))
	admin := auth.Actor{ID: uuid.New(), Role: auth.RoleAdmin}

	rec := doRequest(t, h, admin, http.MethodPost, "/departments", `{"name":"Radiology"}`, h.Create)
	var created Department
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	rec = doRequest(t, h, admin, http.MethodPut, "/departments/"+created.ID.String(),
		`{"name":"Radiology","description":"imaging"}`, h.Update, "id", created.ID.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d, body %s", rec.Code, rec.Body)
	}

	got, err := repo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Description != "imaging" {
		t.Errorf("description = %q, want imaging", got.Description)
	}
}
