package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/amenity-reservation/internal/handler"
)

// registerItems mounts the catalog.  Items are never deleted; taking one
// out of service is an update.
func registerItems(g *echo.Group, h *handler.ItemHandler) {
	g.GET("/items", h.ListItems)
	g.POST("/items", h.CreateItem)
	g.GET("/items/:id", h.GetItem)
	g.PUT("/items/:id", h.UpdateItem)
}

// registerQuotes mounts the previews.  Neither endpoint writes anything.
func registerQuotes(g *echo.Group, h *handler.QuoteHandler) {
	g.POST("/quotes", h.Quote)
	g.GET("/pricing", h.Price)
}
