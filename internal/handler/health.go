package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the load balancer probe.  It returns plain "ok" with a
// 200 status and touches no dependencies.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
