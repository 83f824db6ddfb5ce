package handler

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/amenity-reservation/internal/model"
    "github.com/iliyamo/amenity-reservation/internal/service"
)

// ItemHandler exposes the resource catalog: the suites, the lounge and
// the pieces of gear that reservations name.
type ItemHandler struct {
    Catalog *service.Catalog
}

// NewItemHandler constructs an ItemHandler and panics if catalog is nil.
func NewItemHandler(catalog *service.Catalog) *ItemHandler {
    if catalog == nil {
        panic("nil catalog passed to NewItemHandler")
    }
    return &ItemHandler{Catalog: catalog}
}

type createItemRequest struct {
    Item          string  `json:"item" validate:"required,max=100"`
    ResourceType  string  `json:"resource_type" validate:"required"`
    Description   *string `json:"description" validate:"omitempty,max=500"`
    ServiceStatus string  `json:"service_status" validate:"omitempty,oneof=IN_SERVICE NOT_IN_SERVICE"`
    ServiceNotes  *string `json:"service_notes" validate:"omitempty,max=500"`
}

type updateItemRequest struct {
    Item          *string `json:"item" validate:"omitempty,max=100"`
    Description   *string `json:"description" validate:"omitempty,max=500"`
    ServiceStatus *string `json:"service_status" validate:"omitempty,oneof=IN_SERVICE NOT_IN_SERVICE"`
    ServiceNotes  *string `json:"service_notes" validate:"omitempty,max=500"`
}

// ListItems handles GET /v1/items.  Optional query parameters: type
// (guest_suite, sky-lounge, GEAR_SHED ...) and in_service=true to hide
// items that cannot be offered.
func (h *ItemHandler) ListItems(c echo.Context) error {
    var t model.ResourceType
    if raw := c.QueryParam("type"); raw != "" {
        parsed, err := model.ParseResourceType(raw)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid type"})
        }
        t = parsed
    }
    onlyInService := false
    if raw := strings.TrimSpace(c.QueryParam("in_service")); raw != "" {
        b, err := strconv.ParseBool(raw)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid in_service"})
        }
        onlyInService = b
    }
    items, err := h.Catalog.ListItems(c.Request().Context(), t, onlyInService)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetItem handles GET /v1/items/:id.
func (h *ItemHandler) GetItem(c echo.Context) error {
    id, ok := parseID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
    }
    it, err := h.Catalog.GetItem(c.Request().Context(), id)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, it)
}

// CreateItem handles POST /v1/items and returns 201 with the new item.
func (h *ItemHandler) CreateItem(c echo.Context) error {
    var req createItemRequest
    if msg, ok := bindAndValidate(c, &req); !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }
    t, err := model.ParseResourceType(req.ResourceType)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource_type"})
    }
    it, err := h.Catalog.CreateItem(c.Request().Context(), service.NewItem{
        Item:          req.Item,
        ResourceType:  t,
        Description:   req.Description,
        ServiceStatus: model.ServiceStatus(req.ServiceStatus),
        ServiceNotes:  req.ServiceNotes,
    })
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, it)
}

// UpdateItem handles PUT /v1/items/:id.  Absent fields are left unchanged.
func (h *ItemHandler) UpdateItem(c echo.Context) error {
    id, ok := parseID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
    }
    var req updateItemRequest
    if msg, ok := bindAndValidate(c, &req); !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }
    ch := model.ItemChanges{
        Item:         req.Item,
        Description:  req.Description,
        ServiceNotes: req.ServiceNotes,
    }
    if req.ServiceStatus != nil {
        s := model.ServiceStatus(*req.ServiceStatus)
        ch.ServiceStatus = &s
    }
    it, err := h.Catalog.UpdateItem(c.Request().Context(), id, ch)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, it)
}
