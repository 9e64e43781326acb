package bed

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
	readGroup.GET("/beds", h.ListBeds)
	readGroup.GET("/beds/:id", h.GetBed)

	// Turnover completion is ward staff work; provisioning is admin only.
	staffGroup := api.Group("", auth.RequireRole("admin", "nurse"))
	staffGroup.POST("/beds/:id/turnover", h.CompleteTurnover)

	adminGroup := api.Group("", auth.RequireRole("admin"))
	adminGroup.POST("/beds", h.CreateBed)
	adminGroup.POST("/beds/:id/maintenance", h.SetMaintenance)
}

func (h *Handler) CreateBed(c echo.Context) error {
	var b Bed
	if err := c.Bind(&b); err != nil {
		return apperror.Validation("invalid request body")
	}
	if err := h.svc.CreateBed(c.Request().Context(), &b); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) GetBed(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	b, err := h.svc.GetBed(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ListBeds(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{
		Ward:   c.QueryParam("ward"),
		Status: c.QueryParam("status"),
	}
	beds, total, err := h.svc.ListBeds(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(beds, total, pg.Limit, pg.Offset))
}

func (h *Handler) CompleteTurnover(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	b, err := h.svc.CompleteTurnover(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) SetMaintenance(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperror.Validation("invalid id")
	}
	var body struct {
		On bool `json:"on"`
	}
	if err := c.Bind(&body); err != nil {
		return apperror.Validation("invalid request body")
	}
	b, err := h.svc.SetMaintenance(c.Request().Context(), id, body.On)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}
