package record

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/auth"
)

type fakeRepo struct {
	records map[uuid.UUID]*MedicalRecord
	rxs     map[uuid.UUID]*Prescription
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		records: map[uuid.UUID]*MedicalRecord{},
		rxs:     map[uuid.UUID]*Prescription{},
	}
}

func (f *fakeRepo) Create(_ context.Context, m *MedicalRecord) error {
	m.ID = uuid.New()
	cp := *m
	f.records[m.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*MedicalRecord, error) {
	m, ok := f.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeRepo) Update(_ context.Context, m *MedicalRecord) error {
	if _, ok := f.records[m.ID]; !ok {
		return ErrNotFound
	}
	cp := *m
	f.records[m.ID] = &cp
	return nil
}

func (f *fakeRepo) List(_ context.Context, q ListQuery, limit, offset int) ([]*MedicalRecord, int, error) {
	if q.Filter.Empty() {
		return nil, 0, nil
	}
	var out []*MedicalRecord
	for _, m := range f.records {
		if !q.Filter.Matches(auth.Target{PatientID: &m.PatientID, DoctorID: &m.DoctorID}) {
			continue
		}
		if q.ActiveOnly && !m.Active {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (f *fakeRepo) CreatePrescription(_ context.Context, p *Prescription) error {
	p.ID = uuid.New()
	cp := *p
	f.rxs[p.ID] = &cp
	return nil
}

func (f *fakeRepo) GetPrescription(_ context.Context, id uuid.UUID) (*Prescription, error) {
	p, ok := f.rxs[id]
	if !ok {
		return nil, ErrPrescriptionNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepo) UpdatePrescription(_ context.Context, p *Prescription) error {
	if _, ok := f.rxs[p.ID]; !ok {
		return ErrPrescriptionNotFound
	}
	cp := *p
	f.rxs[p.ID] = &cp
	return nil
}

func (f *fakeRepo) ListPrescriptions(_ context.Context, recordID uuid.UUID) ([]*Prescription, error) {
	var out []*Prescription
	for _, p := range f.rxs {
		if p.MedicalRecordID == recordID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func doctorActor() (auth.Actor, uuid.UUID) {
	id := uuid.New()
	return auth.Actor{ID: uuid.New(), Role: auth.RoleDoctor, DoctorID: &id}, id
}

func TestCreate_DoctorIsAlwaysTheAuthor(t *testing.T) {
	svc := NewService(newFakeRepo())
	actor, docID := doctorActor()

	m, err := svc.Create(context.Background(), actor, &MedicalRecord{
		PatientID: uuid.New(),
		DoctorID:  uuid.New(), // claimed author, must be overridden
		Diagnosis: "hypertension",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if m.DoctorID != docID {
		t.Errorf("doctor_id = %s, want the actor's profile %s", m.DoctorID, docID)
	}
	if !m.Active {
		t.Error("new record should be active")
	}
}

func TestCreate_AdminNamesTheDoctor(t *testing.T) {
	svc := NewService(newFakeRepo())
	admin := auth.Actor{ID: uuid.New(), Role: auth.RoleAdmin}

	if _, err := svc.Create(context.Background(), admin, &MedicalRecord{
		PatientID: uuid.New(),
		Diagnosis: "fracture",
	}); err == nil {
		t.Error("admin-created record without doctor_id accepted")
	}

	named := uuid.New()
	m, err := svc.Create(context.Background(), admin, &MedicalRecord{
		PatientID: uuid.New(),
		DoctorID:  named,
		Diagnosis: "fracture",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if m.DoctorID != named {
		t.Errorf("doctor_id = %s, want %s", m.DoctorID, named)
	}
}

func TestDeactivate_KeepsTheRecord(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	actor, _ := doctorActor()
	ctx := context.Background()

	m, err := svc.Create(ctx, actor, &MedicalRecord{PatientID: uuid.New(), Diagnosis: "flu"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Deactivate(ctx, m.ID); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}

	got, err := svc.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("record gone after deactivation: %v", err)
	}
	if got.Active {
		t.Error("record still active")
	}

	active, _, err := svc.List(ctx, ListQuery{Filter: auth.Filter{Scope: auth.ScopeAll}, ActiveOnly: true}, 20, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("active chart has %d entries, want 0", len(active))
	}
}

func TestPrescribe(t *testing.T) {
	svc := NewService(newFakeRepo())
	actor, docID := doctorActor()
	ctx := context.Background()

	m, err := svc.Create(ctx, actor, &MedicalRecord{PatientID: uuid.New(), Diagnosis: "migraine"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	p, err := svc.Prescribe(ctx, actor, &Prescription{
		MedicalRecordID: m.ID,
		Medication:      "sumatriptan",
		Dosage:          "50mg",
	})
	if err != nil {
		t.Fatalf("Prescribe failed: %v", err)
	}
	if p.DoctorID != docID {
		t.Errorf("prescriber = %s, want %s", p.DoctorID, docID)
	}

	if _, err := svc.Prescribe(ctx, actor, &Prescription{
		MedicalRecordID: uuid.New(),
		Medication:      "sumatriptan",
		Dosage:          "50mg",
	}); !errors.Is(err, ErrNotFound) {
		t.Errorf("prescribing against a missing record: got %v, want ErrNotFound", err)
	}

	rxs, err := svc.Prescriptions(ctx, m.ID)
	if err != nil {
		t.Fatalf("Prescriptions failed: %v", err)
	}
	if len(rxs) != 1 {
		t.Errorf("record has %d prescriptions, want 1", len(rxs))
	}
}

func TestList_PatientReadsOwnChartOnly(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	actor, _ := doctorActor()
	ctx := context.Background()

	mine := uuid.New()
	if _, err := svc.Create(ctx, actor, &MedicalRecord{PatientID: mine, Diagnosis: "flu"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(ctx, actor, &MedicalRecord{PatientID: uuid.New(), Diagnosis: "flu"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	patActor := auth.Actor{ID: uuid.New(), Role: auth.RolePatient, PatientID: &mine}
	recs, _, err := svc.List(ctx, ListQuery{Filter: auth.RowFilter(patActor, auth.KindMedicalRecord)}, 20, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(recs) != 1 || recs[0].PatientID != mine {
		t.Errorf("patient chart listing = %d records", len(recs))
	}
}
