package directory

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wardflow/wardflow/internal/platform/apperror"
	"github.com/wardflow/wardflow/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Registrars enroll patients at the front desk; staffing is admin only.
	registrarGroup := api.Group("", auth.RequireRole("admin", "registrar"))
	registrarGroup.POST("/patients", h.RegisterPatient)

	adminGroup := api.Group("", auth.RequireRole("admin"))
	adminGroup.POST("/practitioners", h.RegisterPractitioner)
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return apperror.Validation("invalid request body")
	}
	if err := h.svc.RegisterPatient(c.Request().Context(), &p); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) RegisterPractitioner(c echo.Context) error {
	var p Practitioner
	if err := c.Bind(&p); err != nil {
		return apperror.Validation("invalid request body")
	}
	if err := h.svc.RegisterPractitioner(c.Request().Context(), &p); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}
