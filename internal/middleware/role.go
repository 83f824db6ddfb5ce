package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// Staff roles carried in the token's "role" claim.  Admins may do
// everything staff can, plus delete reservations outright.
const (
    RoleStaff = "staff"
    RoleAdmin = "admin"
)

// RequireRole returns a middleware function that enforces that the
// authenticated staff member has one of the specified roles.  It assumes
// JWTAuth has stored the lower-cased role under "role".  Requests with a
// missing or unknown role are aborted with 403 Forbidden.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get("role").(string)
            if !ok || !allowed[role] {
                return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
