package handler // handler defines http handlers

import (
    "errors"   // errors classifies service failures
    "net/http" // status codes
    "strings"  // trimming query values
    "time"     // parsing time query parameters

    "github.com/go-playground/validator/v10" // struct tag validation for request bodies
    "github.com/google/uuid"                 // path ids
    "github.com/labstack/echo/v4"            // echo request context

    "github.com/iliyamo/amenity-reservation/internal/service"
)

// RequestValidator adapts validator/v10 to echo.Validator so handlers can
// call c.Validate on bound request bodies.
type RequestValidator struct {
    v *validator.Validate
}

// NewValidator returns a RequestValidator ready to install as e.Validator.
func NewValidator() *RequestValidator {
    return &RequestValidator{v: validator.New()}
}

// Validate runs the struct tags of i.
func (rv *RequestValidator) Validate(i interface{}) error {
    return rv.v.Struct(i)
}

// bindAndValidate binds the request body into dst and validates it.  The
// returned message is suitable for a 400 response.
func bindAndValidate(c echo.Context, dst interface{}) (string, bool) {
    if err := c.Bind(dst); err != nil {
        return "invalid request body", false
    }
    if err := c.Validate(dst); err != nil {
        var verrs validator.ValidationErrors
        if errors.As(err, &verrs) && len(verrs) > 0 {
            fe := verrs[0]
            return "invalid field " + strings.ToLower(fe.Field()) + ": " + fe.Tag(), false
        }
        return "invalid request body", false
    }
    return "", true
}

// getActor returns the staff member name placed in the context by the
// JWT middleware.
func getActor(c echo.Context) (string, bool) {
    s, ok := c.Get("actor").(string)
    if !ok || strings.TrimSpace(s) == "" {
        return "", false
    }
    return s, true
}

// parseID reads the :id path parameter as a uuid.
func parseID(c echo.Context) (uuid.UUID, bool) {
    id, err := uuid.Parse(c.Param("id"))
    if err != nil {
        return uuid.Nil, false
    }
    return id, true
}

// parseTimeParam parses an optional RFC 3339 query parameter.  An empty
// value yields the zero time.
func parseTimeParam(c echo.Context, name string) (time.Time, error) {
    s := strings.TrimSpace(c.QueryParam(name))
    if s == "" {
        return time.Time{}, nil
    }
    return time.Parse(time.RFC3339, s)
}

// respondError maps service errors onto HTTP responses.  Validation
// failures carry every message; store failures are logged and hidden.
func respondError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, service.ErrValidationFailed):
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{
            "error":    "validation failed",
            "messages": service.ValidationMessages(err),
        })
    case errors.Is(err, service.ErrInvalidStateTransition):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, service.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, service.ErrStoreUnavailable):
        c.Logger().Errorf("store unavailable: %v", err)
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
    }
    c.Logger().Errorf("unexpected error: %v", err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
