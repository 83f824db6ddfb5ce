package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/amenity-reservation/internal/model"
	"github.com/iliyamo/amenity-reservation/internal/service"
)

// QuoteHandler previews prices and availability without booking anything.
type QuoteHandler struct {
	Pricing *service.Pricing
}

// NewQuoteHandler constructs a QuoteHandler and panics if pricing is nil.
func NewQuoteHandler(pricing *service.Pricing) *QuoteHandler {
	if pricing == nil {
		panic("nil pricing passed to NewQuoteHandler")
	}
	return &QuoteHandler{Pricing: pricing}
}

// Quote handles POST /v1/quotes.  The body has the shape of a new
// reservation; the answer holds the price, every rule the submission
// would break and whether it could be booked as is.
func (h *QuoteHandler) Quote(c echo.Context) error {
	var req reservationRequest
	if msg, ok := bindAndValidate(c, &req); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	q, err := h.Pricing.Quote(c.Request().Context(), req.toModel())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

// Price handles GET /v1/pricing?type=&start=&end=.  It only applies the
// rate table; availability is not consulted.
func (h *QuoteHandler) Price(c echo.Context) error {
	t, err := model.ParseResourceType(c.QueryParam("type"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid type"})
	}
	start, err := parseTimeParam(c, "start")
	if err != nil || start.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start"})
	}
	end, err := parseTimeParam(c, "end")
	if err != nil || end.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end"})
	}
	if !start.Before(end) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start must be before end"})
	}
	return c.JSON(http.StatusOK, h.Pricing.ComputeCost(t, start, end))
}
