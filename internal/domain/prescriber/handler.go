package prescriber

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/softlink/pharmacy-pos/internal/platform/apperr"
	"github.com/softlink/pharmacy-pos/internal/platform/auth"
	"github.com/softlink/pharmacy-pos/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RolePharmacist, auth.RoleCashier))
	readGroup.GET("/prescribers", h.ListPrescribers)
	readGroup.GET("/prescribers/:id", h.GetPrescriber)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RolePharmacist))
	writeGroup.POST("/prescribers", h.CreatePrescriber)
	writeGroup.PUT("/prescribers/:id", h.UpdatePrescriber)
	writeGroup.DELETE("/prescribers/:id", h.DeactivatePrescriber)
	writeGroup.POST("/prescribers/:id/verify", h.VerifyPrescriber)
}

func (h *Handler) CreatePrescriber(c echo.Context) error {
	var p Prescriber
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreatePrescriber(c.Request().Context(), &p); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPrescriber(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPrescriber(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "prescriber not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePrescriber(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p Prescriber
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	if err := h.svc.UpdatePrescriber(c.Request().Context(), &p); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) VerifyPrescriber(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Verify(c.Request().Context(), id); err != nil {
		return apperr.HTTPError(err)
	}
	p, err := h.svc.GetPrescriber(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "prescriber not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeactivatePrescriber(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeactivatePrescriber(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "prescriber not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListPrescribers(c echo.Context) error {
	pg := pagination.FromContext(c)
	prescribers, total, err := h.svc.ListPrescribers(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(prescribers, total, pg.Limit, pg.Offset))
}
