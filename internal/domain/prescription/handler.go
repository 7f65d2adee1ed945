package prescription

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
	readGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RolePharmacist, auth.RoleCashier, auth.RolePhysician))
	readGroup.GET("/prescriptions", h.ListPrescriptions)
	readGroup.GET("/prescriptions/:id", h.GetPrescription)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RolePharmacist, auth.RolePhysician))
	writeGroup.POST("/prescriptions", h.CreatePrescription)
	writeGroup.POST("/prescriptions/:id/confirm", h.Confirm)
	writeGroup.POST("/prescriptions/:id/cancel", h.Cancel)
	writeGroup.POST("/prescriptions/:id/draft", h.SetToDraft)

	// Verification is pharmacist-only; the service enforces it again from
	// the actor.
	verifyGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RolePharmacist))
	verifyGroup.POST("/prescriptions/:id/verify", h.Verify)
}

func (h *Handler) CreatePrescription(c echo.Context) error {
	var p Prescription
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreatePrescription(c.Request().Context(), &p); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPrescription(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPrescription(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPrescriptions(c echo.Context) error {
	pg := pagination.FromContext(c)

	patientID := uuid.Nil
	if v := c.QueryParam("patient_id"); v != "" {
		pid, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		patientID = pid
	}

	items, total, err := h.svc.ListPrescriptions(c.Request().Context(), patientID, c.QueryParam("state"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) transition(c echo.Context, fn func(c echo.Context, id uuid.UUID) error) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := fn(c, id); err != nil {
		return apperr.HTTPError(err)
	}
	p, err := h.svc.GetPrescription(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Confirm(c echo.Context) error {
	return h.transition(c, func(c echo.Context, id uuid.UUID) error {
		return h.svc.Confirm(c.Request().Context(), id)
	})
}

func (h *Handler) Cancel(c echo.Context) error {
	return h.transition(c, func(c echo.Context, id uuid.UUID) error {
		return h.svc.Cancel(c.Request().Context(), id)
	})
}

func (h *Handler) SetToDraft(c echo.Context) error {
	return h.transition(c, func(c echo.Context, id uuid.UUID) error {
		return h.svc.SetToDraft(c.Request().Context(), id)
	})
}

func (h *Handler) Verify(c echo.Context) error {
	var body struct {
		Notes string `json:"notes"`
	}
	// Body is optional.
	_ = c.Bind(&body)
	return h.transition(c, func(c echo.Context, id uuid.UUID) error {
		return h.svc.Verify(c.Request().Context(), id, body.Notes)
	})
}
