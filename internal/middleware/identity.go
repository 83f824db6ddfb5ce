package middleware

// identity.go holds helpers shared across middleware files.

import (
    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// actorID returns the acting staff member for keying rate-limit buckets.
// It prefers the actor set by JWTAuth, then the raw token claims, and
// returns "anonymous" when no one is authenticated.
func actorID(c echo.Context) string {
    if s, ok := c.Get("actor").(string); ok && s != "" {
        return s
    }
    if tok, ok := c.Get("user").(*jwt.Token); ok {
        if cl, ok := tok.Claims.(jwt.MapClaims); ok {
            if v, ok := cl["sub"].(string); ok && v != "" {
                return v
            }
        }
    }
    return "anonymous"
}
