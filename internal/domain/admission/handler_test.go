package admission

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/wardflow/wardflow/internal/domain/bed"
	"github.com/wardflow/wardflow/internal/platform/apperror"
	"github.com/wardflow/wardflow/internal/platform/auth"
)

func newTestServer(roles ...string) (*echo.Echo, *fixture) {
	f := newFixture()
	e := echo.New()
	e.HTTPErrorHandler = apperror.HTTPErrorHandler(zerolog.Nop())
	api := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := context.WithValue(c.Request().Context(), auth.UserRolesKey, roles)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})
	NewHandler(f.svc).RegisterRoutes(api)
	return e, f
}

func admitJSON(patientID, bedID uuid.UUID) string {
	return fmt.Sprintf(`{"patient_id":%q,"bed_id":%q,"reason":"observation"}`, patientID, bedID)
}

func TestHandlerAdmit(t *testing.T) {
	e, f := newTestServer("registrar")
	patientID := f.newPatient()
	bedID := f.beds.add(bed.StatusAvailable)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admissions",
		strings.NewReader(admitJSON(patientID, bedID)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var got Admission
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != StatusAdmitted {
		t.Errorf("expected ADMITTED, got %s", got.Status)
	}
}

func TestHandlerAdmit_IdempotencyHeader(t *testing.T) {
	e, f := newTestServer("registrar")
	patientID := f.newPatient()
	bedID := f.beds.add(bed.StatusAvailable)

	send := func() *Admission {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admissions",
			strings.NewReader(admitJSON(patientID, bedID)))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set("Idempotency-Key", "client-key-1")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var a Admission
		if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return &a
	}

	first := send()
	second := send()
	if first.ID != second.ID {
		t.Errorf("expected replayed admission, got %s vs %s", first.ID, second.ID)
	}
}

func TestHandlerAdmit_BedConflictWireFormat(t *testing.T) {
	e, f := newTestServer("registrar")
	bedID := f.beds.add(bed.StatusOccupied)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admissions",
		strings.NewReader(admitJSON(f.newPatient(), bedID)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != apperror.CodeBedUnavailable {
		t.Errorf("expected BED_UNAVAILABLE, got %s", body.Code)
	}
	if body.Message == "" {
		t.Error("expected a message")
	}
}

func TestHandlerDischarge(t *testing.T) {
	e, f := newTestServer("physician")
	bedID := f.beds.add(bed.StatusAvailable)
	a, err := f.svc.Admit(context.Background(), AdmitRequest{
		PatientID: f.newPatient(), BedID: bedID,
	})
	if err != nil {
		t.Fatalf("admit: %v", err)
	}

	discharge := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admissions/"+a.ID.String()+"/discharge", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	rec := discharge()
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = discharge()
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on repeat discharge, got %d", rec.Code)
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != apperror.CodeAlreadyDischarged {
		t.Errorf("expected ALREADY_DISCHARGED, got %s", body.Code)
	}
}

func TestHandlerActiveForBed(t *testing.T) {
	e, f := newTestServer("nurse")
	bedID := f.beds.add(bed.StatusAvailable)
	a, err := f.svc.Admit(context.Background(), AdmitRequest{
		PatientID: f.newPatient(), BedID: bedID,
	})
	if err != nil {
		t.Fatalf("admit: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/beds/"+bedID.String()+"/admission", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got Admission
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != a.ID {
		t.Errorf("expected admission %s, got %s", a.ID, got.ID)
	}

	// Idle bed has no active admission.
	otherBed := f.beds.add(bed.StatusAvailable)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/beds/"+otherBed.String()+"/admission", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandlerListAdmissions(t *testing.T) {
	e, f := newTestServer("admin")
	patientID := f.newPatient()
	bedID := f.beds.add(bed.StatusAvailable)
	if _, err := f.svc.Admit(context.Background(), AdmitRequest{
		PatientID: patientID, BedID: bedID,
	}); err != nil {
		t.Fatalf("admit: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admissions?patient_id="+patientID.String(), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 1 {
		t.Errorf("expected 1 admission, got %d", body.Total)
	}

	// Unroled caller is forbidden.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/admissions", nil)
	rec = httptest.NewRecorder()
	e2, _ := newTestServer()
	e2.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
