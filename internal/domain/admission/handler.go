package admission

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
	readGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse", "registrar"))
	readGroup.GET("/admissions", h.ListAdmissions)
	readGroup.GET("/admissions/:id", h.GetAdmission)
	readGroup.GET("/beds/:id/admission", h.GetActiveForBed)

	writeGroup := api.Group("", auth.RequireRole("admin", "physician", "registrar"))
	writeGroup.POST("/admissions", h.Admit)
	writeGroup.POST("/admissions/:id/discharge", h.Discharge)
}

type admitBody struct {
	PatientID uuid.UUID `json:"patient_id"`
	BedID     uuid.UUID `json:"bed_id"`
	Reason    string    `json:"reason"`
}

func (h *Handler) Admit(c echo.Context) error {
	var body admitBody
	if err := c.Bind(&body); err != nil {
		return apperror.Validation("invalid request body")
	}
	a, err := h.svc.Admit(c.Request().Context(), AdmitRequest{
		PatientID:      body.PatientID,
		BedID:          body.BedID,
		Reason:         body.Reason,
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Discharge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	a, err := h.svc.Discharge(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) GetAdmission(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	a, err := h.svc.GetAdmission(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) GetActiveForBed(c echo.Context) error {
	bedID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	a, err := h.svc.GetActiveForBed(c.Request().Context(), bedID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAdmissions(c echo.Context) error {
	pg := pagination.FromContext(c)
	var f Filter
	if raw := c.QueryParam("patient_id"); raw != "" {
		pid, err := uuid.Parse(raw)
		if err != nil {
			return apperror.Validation("invalid patient_id")
		}
		f.PatientID = &pid
	}
	f.Status = c.QueryParam("status")
	admissions, total, err := h.svc.ListAdmissions(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(admissions, total, pg.Limit, pg.Offset))
}
