package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/amenity-reservation/internal/model"
	"github.com/iliyamo/amenity-reservation/internal/service"
)

// ReservationHandler serves the reservation lifecycle to staff.  All
// methods assume the JWT middleware has already placed the actor in the
// context; they answer 401 when it is missing.
type ReservationHandler struct {
	Life    *service.Lifecycle
	Catalog *service.Catalog
}

// NewReservationHandler constructs a ReservationHandler.  All dependencies
// must be non-nil.
func NewReservationHandler(life *service.Lifecycle, catalog *service.Catalog) *ReservationHandler {
	if life == nil || catalog == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Life: life, Catalog: catalog}
}

// reservationRequest is the body of POST /v1/reservations and
// POST /v1/quotes.  Rule checks (required fields, hours, overlaps) are
// left to the engine so that every violation is reported together.
type reservationRequest struct {
	RentedTo     string     `json:"rented_to" validate:"max=100"`
	ResourceType string     `json:"resource_type" validate:"max=32"`
	Item         string     `json:"item" validate:"max=100"`
	Items        []string   `json:"items" validate:"max=50,dive,max=100"`
	StartTime    *time.Time `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	RentalNotes  string     `json:"rental_notes" validate:"max=2000"`
	OverrideLock bool       `json:"override_lock"`
}

func (req reservationRequest) toModel() model.Reservation {
	r := model.Reservation{
		RentedTo:     req.RentedTo,
		ResourceType: resourceType(req.ResourceType),
		Item:         req.Item,
		Items:        req.Items,
		RentalNotes:  req.RentalNotes,
		OverrideLock: req.OverrideLock,
	}
	if req.StartTime != nil {
		r.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		r.EndTime = *req.EndTime
	}
	return r
}

type updateReservationRequest struct {
	RentedTo     *string    `json:"rented_to" validate:"omitempty,max=100"`
	ResourceType *string    `json:"resource_type" validate:"omitempty,max=32"`
	Item         *string    `json:"item" validate:"omitempty,max=100"`
	Items        *[]string  `json:"items" validate:"omitempty,max=50"`
	StartTime    *time.Time `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	RentalNotes  *string    `json:"rental_notes" validate:"omitempty,max=2000"`
	ReturnNotes  *string    `json:"return_notes" validate:"omitempty,max=2000"`
	OverrideLock *bool      `json:"override_lock"`
}

type cancelRequest struct {
	Fee *decimal.Decimal `json:"fee"`
}

type completeRequest struct {
	ReturnNotes string `json:"return_notes" validate:"max=2000"`
}

// resourceType accepts the spellings ParseResourceType knows and passes
// anything else through so the engine reports it as unknown.
func resourceType(raw string) model.ResourceType {
	if t, err := model.ParseResourceType(raw); err == nil {
		return t
	}
	return model.ResourceType(strings.TrimSpace(raw))
}

// ListReservations handles GET /v1/reservations.  Optional filters: type,
// status, item, and an RFC 3339 window from/to selecting reservations that
// overlap it.
func (h *ReservationHandler) ListReservations(c echo.Context) error {
	var f model.ReservationFilter
	if raw := c.QueryParam("type"); raw != "" {
		t, err := model.ParseResourceType(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid type"})
		}
		f.ResourceType = t
	}
	if raw := c.QueryParam("status"); raw != "" {
		s := model.ReservationStatus(strings.ToUpper(strings.TrimSpace(raw)))
		if !s.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		f.Status = s
	}
	f.Item = strings.TrimSpace(c.QueryParam("item"))
	var err error
	if f.From, err = parseTimeParam(c, "from"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from"})
	}
	if f.To, err = parseTimeParam(c, "to"); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to"})
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from must be before to"})
	}
	list, err := h.Catalog.ListReservations(c.Request().Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": list})
}

// GetReservation handles GET /v1/reservations/:id.
func (h *ReservationHandler) GetReservation(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	r, err := h.Life.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// CreateReservation handles POST /v1/reservations.  The id, status, cost
// and audit fields are assigned by the engine.  Returns 201 on success and
// 422 with every rule violation otherwise.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reservationRequest
	if msg, ok := bindAndValidate(c, &req); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	r, err := h.Life.Create(c.Request().Context(), req.toModel(), actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// UpdateReservation handles PUT /v1/reservations/:id.  Absent fields are
// left unchanged.
func (h *ReservationHandler) UpdateReservation(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req updateReservationRequest
	if msg, ok := bindAndValidate(c, &req); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ch := model.ReservationChanges{
		RentedTo:     req.RentedTo,
		Item:         req.Item,
		Items:        req.Items,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		RentalNotes:  req.RentalNotes,
		ReturnNotes:  req.ReturnNotes,
		OverrideLock: req.OverrideLock,
	}
	if req.ResourceType != nil {
		t := resourceType(*req.ResourceType)
		ch.ResourceType = &t
	}
	r, err := h.Life.Update(c.Request().Context(), id, ch, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// DeleteReservation handles DELETE /v1/reservations/:id.  Deletion is
// allowed in any status and answers 204.
func (h *ReservationHandler) DeleteReservation(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Life.Delete(c.Request().Context(), id, actor); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CancellationFee handles GET /v1/reservations/:id/cancellation-fee and
// reports the fee a cancellation right now would record.
func (h *ReservationHandler) CancellationFee(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	fee, err := h.Life.CancellationQuote(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"fee": fee})
}

// CancelReservation handles POST /v1/reservations/:id/cancel.  The body may
// carry an explicit fee; when it is absent the policy fee is charged.
func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req cancelRequest
	if msg, ok := bindAndValidate(c, &req); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	r, err := h.Life.Cancel(c.Request().Context(), id, req.Fee, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// RestoreReservation handles POST /v1/reservations/:id/restore.  The
// booking is checked again; a conflict answers 422 and leaves it cancelled.
func (h *ReservationHandler) RestoreReservation(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	r, err := h.Life.Restore(c.Request().Context(), id, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// CompleteReservation handles POST /v1/reservations/:id/complete.
func (h *ReservationHandler) CompleteReservation(c echo.Context) error {
	actor, ok := getActor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req completeRequest
	if msg, ok := bindAndValidate(c, &req); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	r, err := h.Life.Complete(c.Request().Context(), id, req.ReturnNotes, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}
