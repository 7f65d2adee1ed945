package stocklot

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/softlink/pharmacy-pos/internal/platform/apperr"
	"github.com/softlink/pharmacy-pos/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RolePharmacist, auth.RoleCashier))
	readGroup.GET("/lots/:id", h.GetLot)
	readGroup.GET("/products/:product_id/lots", h.ListByProduct)
	readGroup.GET("/reports/expiry", h.ExpiryReport)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RolePharmacist))
	writeGroup.POST("/lots", h.CreateLot)
	writeGroup.PUT("/lots/:id", h.UpdateLot)
}

func (h *Handler) CreateLot(c echo.Context) error {
	var l Lot
	if err := c.Bind(&l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateLot(c.Request().Context(), &l); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *Handler) GetLot(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	l, err := h.svc.GetLot(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "lot not found")
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) UpdateLot(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var l Lot
	if err := c.Bind(&l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	l.ID = id
	if err := h.svc.UpdateLot(c.Request().Context(), &l); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) ListByProduct(c echo.Context) error {
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	lots, err := h.svc.ListByProduct(c.Request().Context(), productID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, lots)
}

func (h *Handler) ExpiryReport(c echo.Context) error {
	opts := ReportOptions{DaysThreshold: 90, ShowExpired: true, ShowNearExpiry: true}
	if v := c.QueryParam("days_threshold"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid days_threshold")
		}
		opts.DaysThreshold = n
	}
	if v := c.QueryParam("show_expired"); v != "" {
		opts.ShowExpired = v == "true" || v == "1"
	}
	if v := c.QueryParam("show_near_expiry"); v != "" {
		opts.ShowNearExpiry = v == "true" || v == "1"
	}
	rows, err := h.svc.ExpiryReport(c.Request().Context(), opts)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rows)
}
