package mpesa

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/softlink/pharmacy-pos/internal/domain/sale"
	"github.com/softlink/pharmacy-pos/internal/platform/apperr"
	"github.com/softlink/pharmacy-pos/internal/platform/auth"
)

type Handler struct {
	client *Client
	sales  *sale.Service
}

func NewHandler(client *Client, sales *sale.Service) *Handler {
	return &Handler{client: client, sales: sales}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RolePharmacist, auth.RoleCashier))
	g.POST("/sales/:id/mpesa-push", h.push)
}

type pushRequest struct {
	Phone string `json:"phone"`
}

// push sends an STK push for the sale total. The phone defaults to the
// patient snapshot on the sale.
func (h *Handler) push(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid sale id")
	}

	var req pushRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	s, err := h.sales.GetSale(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "sale not found")
	}

	phone := req.Phone
	if phone == "" && s.PatientPhone != nil {
		phone = *s.PatientPhone
	}

	result, err := h.client.STKPush(c.Request().Context(), phone, s.TotalCents(), s.Number, "Pharmacy purchase "+s.Number)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, result)
}
