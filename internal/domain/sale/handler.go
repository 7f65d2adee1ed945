package sale

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
	readGroup.GET("/sales", h.ListSales)
	readGroup.GET("/sales/:id", h.GetSale)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RolePharmacist, auth.RoleCashier))
	writeGroup.POST("/sales", h.CreateSale)
	writeGroup.POST("/sales/:id/finalize", h.FinalizeSale)

	approveGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RolePharmacist))
	approveGroup.POST("/sales/:id/approve", h.ApproveSale)
}

func (h *Handler) CreateSale(c echo.Context) error {
	var s Sale
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateSale(c.Request().Context(), &s); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *Handler) GetSale(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	s, err := h.svc.GetSale(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "sale not found")
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) ListSales(c echo.Context) error {
	pg := pagination.FromContext(c)
	sales, total, err := h.svc.ListSales(c.Request().Context(), c.QueryParam("state"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(sales, total, pg.Limit, pg.Offset))
}

func (h *Handler) ApproveSale(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Approve(c.Request().Context(), id); err != nil {
		return apperr.HTTPError(err)
	}
	s, err := h.svc.GetSale(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "sale not found")
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) FinalizeSale(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	warnings, err := h.svc.FinalizeSale(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	s, err := h.svc.GetSale(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "sale not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"sale":     s,
		"warnings": warnings,
	})
}
