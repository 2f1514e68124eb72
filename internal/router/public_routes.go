package router

import (
	"github.com/labstack/echo/v4"

	"github.com/venuedesk/seat-reservation/internal/handler"
)

// RegisterPublic registers the unauthenticated browse endpoints.
// All of them are read-only GETs served through the response cache
// middleware; pass a no-op middleware when caching is disabled.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", cache)
	g.GET("/venues", p.ListVenues)
	g.GET("/venues/:id", p.GetVenue)
	g.GET("/venues/:id/seats", p.ListVenueSeats)
	g.GET("/venues/:id/seats/layout", p.GetVenueSeatLayout)
	g.GET("/venues/:id/showings", p.ListVenueShowings)
	g.GET("/contents", p.ListContents)
	g.GET("/contents/:id", p.GetContent)
	g.GET("/showings/:id", p.GetShowing)
	g.GET("/showings/:id/seats", p.GetShowingSeats)
	g.GET("/search/showings", p.SearchShowings)
}
