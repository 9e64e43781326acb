package visit

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/wardflow/wardflow/internal/platform/apperror"
	"github.com/wardflow/wardflow/internal/platform/auth"
	"github.com/wardflow/wardflow/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "physician", "nurse", "registrar"))
	g.GET("/visits", h.ListVisits)
	g.GET("/visits/:id", h.GetVisit)
	g.POST("/visits", h.Register)
	g.PATCH("/visits/:id/status", h.Transition)
}

type registerBody struct {
	PatientID      uuid.UUID  `json:"patient_id"`
	DoctorID       *uuid.UUID `json:"doctor_id"`
	VisitType      string     `json:"visit_type"`
	ChiefComplaint string     `json:"chief_complaint"`
}

func (h *Handler) Register(c echo.Context) error {
	var body registerBody
	if err := c.Bind(&body); err != nil {
		return apperror.Validation("invalid request body")
	}
	v, err := h.svc.Register(c.Request().Context(), RegisterRequest{
		PatientID:      body.PatientID,
		DoctorID:       body.DoctorID,
		VisitType:      body.VisitType,
		ChiefComplaint: body.ChiefComplaint,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) GetVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	v, err := h.svc.GetVisit(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) ListVisits(c echo.Context) error {
	pg := pagination.FromContext(c)
	var f Filter
	f.Status = c.QueryParam("status")
	if raw := c.QueryParam("patient_id"); raw != "" {
		pid, err := uuid.Parse(raw)
		if err != nil {
			return apperror.Validation("invalid patient_id")
		}
		f.PatientID = &pid
	}
	if raw := c.QueryParam("doctor_id"); raw != "" {
		did, err := uuid.Parse(raw)
		if err != nil {
			return apperror.Validation("invalid doctor_id")
		}
		f.DoctorID = &did
	}
	visits, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(visits, total, pg.Limit, pg.Offset))
}

type transitionBody struct {
	Status    string `json:"status"`
	Diagnosis string `json:"diagnosis"`
	Notes     string `json:"notes"`
}

func (h *Handler) Transition(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	var body transitionBody
	if err := c.Bind(&body); err != nil {
		return apperror.Validation("invalid request body")
	}
	if body.Status == "" {
		return apperror.Validation("status is required")
	}
	v, err := h.svc.Transition(c.Request().Context(), id, TransitionRequest{
		Status:    body.Status,
		Diagnosis: body.Diagnosis,
		Notes:     body.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}
