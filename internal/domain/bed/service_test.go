package bed

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/wardflow/wardflow/internal/platform/apperror"
)

// -- Mock Repository --
//
// The mock honors the same conditional state transitions as the Postgres
// repo, guarded by a mutex, so the state-machine and race tests exercise the
// real semantics.

type mockRepo struct {
	mu   sync.Mutex
	beds map[uuid.UUID]*Bed
}

func newMockRepo() *mockRepo {
	return &mockRepo{beds: make(map[uuid.UUID]*Bed)}
}

func (m *mockRepo) Create(_ context.Context, b *Bed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	copied := *b
	m.beds[b.ID] = &copied
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Bed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.beds[id]
	if !ok {
		return nil, apperror.NotFound("bed", id)
	}
	copied := *b
	return &copied, nil
}

func (m *mockRepo) List(_ context.Context, f Filter, limit, offset int) ([]*Bed, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*Bed
	for _, b := range m.beds {
		if f.Ward != "" && b.WardName != f.Ward {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		copied := *b
		result = append(result, &copied)
	}
	return result, len(result), nil
}

func (m *mockRepo) flip(id uuid.UUID, from, to, conflictCode string, mutate func(*Bed)) (*Bed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.beds[id]
	if !ok {
		return nil, apperror.NotFound("bed", id)
	}
	if b.Status != from {
		return nil, apperror.Conflict(conflictCode, "bed %s is %s", id, b.Status)
	}
	b.Status = to
	if mutate != nil {
		mutate(b)
	}
	copied := *b
	return &copied, nil
}

func (m *mockRepo) Reserve(_ context.Context, bedID, admissionID uuid.UUID) (*Bed, error) {
	return m.flip(bedID, StatusAvailable, StatusOccupied, apperror.CodeBedUnavailable, func(b *Bed) {
		aid := admissionID
		b.CurrentAdmissionID = &aid
	})
}

func (m *mockRepo) Release(_ context.Context, bedID uuid.UUID) (*Bed, error) {
	return m.flip(bedID, StatusOccupied, StatusCleaning, apperror.CodeInvalidState, func(b *Bed) {
		b.CurrentAdmissionID = nil
	})
}

func (m *mockRepo) CompleteTurnover(_ context.Context, bedID uuid.UUID) (*Bed, error) {
	return m.flip(bedID, StatusCleaning, StatusAvailable, apperror.CodeInvalidState, nil)
}

func (m *mockRepo) SetMaintenance(_ context.Context, bedID uuid.UUID, on bool) (*Bed, error) {
	if on {
		return m.flip(bedID, StatusAvailable, StatusMaintenance, apperror.CodeInvalidState, nil)
	}
	return m.flip(bedID, StatusMaintenance, StatusAvailable, apperror.CodeInvalidState, nil)
}

// -- Tests --

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo), repo
}

func provisionBed(t *testing.T, svc *Service) *Bed {
	t.Helper()
	b := &Bed{WardName: "West", RoomNumber: "101", BedNumber: "A", BedType: TypeGeneral}
	if err := svc.CreateBed(context.Background(), b); err != nil {
		t.Fatalf("create bed: %v", err)
	}
	return b
}

func TestCreateBed_Defaults(t *testing.T) {
	svc, _ := newTestService()

	b := &Bed{WardName: "West", RoomNumber: "101", BedNumber: "A"}
	if err := svc.CreateBed(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != StatusAvailable {
		t.Errorf("expected new bed AVAILABLE, got %s", b.Status)
	}
	if b.BedType != TypeGeneral {
		t.Errorf("expected default type GENERAL, got %s", b.BedType)
	}
	if b.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
}

func TestCreateBed_Validation(t *testing.T) {
	svc, _ := newTestService()

	cases := []*Bed{
		{RoomNumber: "101", BedNumber: "A"},
		{WardName: "West", BedNumber: "A"},
		{WardName: "West", RoomNumber: "101"},
		{WardName: "West", RoomNumber: "101", BedNumber: "A", BedType: "BUNK"},
	}
	for _, b := range cases {
		if err := svc.CreateBed(context.Background(), b); err == nil {
			t.Errorf("expected validation error for %+v", b)
		}
	}
}

func TestReserve_HappyPath(t *testing.T) {
	svc, _ := newTestService()
	b := provisionBed(t, svc)

	admID := uuid.New()
	reserved, err := svc.Reserve(context.Background(), b.ID, admID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reserved.Status != StatusOccupied {
		t.Errorf("expected OCCUPIED, got %s", reserved.Status)
	}
	if reserved.CurrentAdmissionID == nil || *reserved.CurrentAdmissionID != admID {
		t.Error("expected current_admission_id to reference the admission")
	}
}

func TestReserve_Occupied(t *testing.T) {
	svc, _ := newTestService()
	b := provisionBed(t, svc)

	if _, err := svc.Reserve(context.Background(), b.ID, uuid.New()); err != nil {
		t.Fatalf("first reserve failed: %v", err)
	}

	_, err := svc.Reserve(context.Background(), b.ID, uuid.New())
	if !apperror.IsCode(err, apperror.CodeBedUnavailable) {
		t.Errorf("expected BED_UNAVAILABLE, got %v", err)
	}
}

func TestReserve_NotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Reserve(context.Background(), uuid.New(), uuid.New())
	if !apperror.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestRelease_RequiresOccupied(t *testing.T) {
	svc, _ := newTestService()
	b := provisionBed(t, svc)

	_, err := svc.Release(context.Background(), b.ID)
	if !apperror.IsCode(err, apperror.CodeInvalidState) {
		t.Errorf("expected INVALID_STATE for AVAILABLE bed, got %v", err)
	}
}

func TestBedLifecycle(t *testing.T) {
	svc, _ := newTestService()
	b := provisionBed(t, svc)

	// AVAILABLE -> OCCUPIED
	if _, err := svc.Reserve(context.Background(), b.ID, uuid.New()); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	// OCCUPIED -> CLEANING, never straight to AVAILABLE
	released, err := svc.Release(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if released.Status != StatusCleaning {
		t.Errorf("expected CLEANING after release, got %s", released.Status)
	}
	if released.CurrentAdmissionID != nil {
		t.Error("expected current_admission_id cleared on release")
	}

	// CLEANING blocks reserve
	if _, err := svc.Reserve(context.Background(), b.ID, uuid.New()); !apperror.IsCode(err, apperror.CodeBedUnavailable) {
		t.Errorf("expected BED_UNAVAILABLE while cleaning, got %v", err)
	}

	// CLEANING -> AVAILABLE
	turned, err := svc.CompleteTurnover(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("turnover: %v", err)
	}
	if turned.Status != StatusAvailable {
		t.Errorf("expected AVAILABLE after turnover, got %s", turned.Status)
	}
}

func TestCompleteTurnover_RequiresCleaning(t *testing.T) {
	svc, _ := newTestService()
	b := provisionBed(t, svc)

	_, err := svc.CompleteTurnover(context.Background(), b.ID)
	if !apperror.IsCode(err, apperror.CodeInvalidState) {
		t.Errorf("expected INVALID_STATE, got %v", err)
	}
}

func TestSetMaintenance(t *testing.T) {
	svc, _ := newTestService()
	b := provisionBed(t, svc)

	mb, err := svc.SetMaintenance(context.Background(), b.ID, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mb.Status != StatusMaintenance {
		t.Errorf("expected MAINTENANCE, got %s", mb.Status)
	}

	// Maintenance beds cannot be reserved
	if _, err := svc.Reserve(context.Background(), b.ID, uuid.New()); !apperror.IsCode(err, apperror.CodeBedUnavailable) {
		t.Errorf("expected BED_UNAVAILABLE, got %v", err)
	}

	mb, err = svc.SetMaintenance(context.Background(), b.ID, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mb.Status != StatusAvailable {
		t.Errorf("expected AVAILABLE, got %s", mb.Status)
	}
}

func TestSetMaintenance_OccupiedRejected(t *testing.T) {
	svc, _ := newTestService()
	b := provisionBed(t, svc)

	if _, err := svc.Reserve(context.Background(), b.ID, uuid.New()); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if _, err := svc.SetMaintenance(context.Background(), b.ID, true); !apperror.IsCode(err, apperror.CodeInvalidState) {
		t.Errorf("expected INVALID_STATE for occupied bed, got %v", err)
	}
}

func TestReserve_ExactlyOneWinner(t *testing.T) {
	svc, _ := newTestService()
	b := provisionBed(t, svc)

	const n = 32
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), b.ID, uuid.New())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			wins++
		case apperror.IsCode(err, apperror.CodeBedUnavailable):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("expected exactly one winner, got %d", wins)
	}
	if conflicts != n-1 {
		t.Errorf("expected %d conflicts, got %d", n-1, conflicts)
	}
}

func TestListBeds_Filter(t *testing.T) {
	svc, _ := newTestService()

	svc.CreateBed(context.Background(), &Bed{WardName: "West", RoomNumber: "101", BedNumber: "A"})
	svc.CreateBed(context.Background(), &Bed{WardName: "West", RoomNumber: "101", BedNumber: "B"})
	svc.CreateBed(context.Background(), &Bed{WardName: "East", RoomNumber: "201", BedNumber: "A"})

	_, total, err := svc.ListBeds(context.Background(), Filter{Ward: "West"}, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 west beds, got %d", total)
	}

	_, total, err = svc.ListBeds(context.Background(), Filter{Status: StatusAvailable}, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 {
		t.Errorf("expected 3 available beds, got %d", total)
	}
}
