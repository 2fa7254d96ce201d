package handler

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// adminIDFrom reads the admin identity stored by the JWT middleware.
func adminIDFrom(c echo.Context) int64 {
	if id, ok := c.Get("admin_id").(int64); ok {
		return id
	}
	return 0
}

// pathID parses the :id path parameter; zero means missing or invalid.
func pathID(c echo.Context) int64 {
	n, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || n < 1 {
		return 0
	}
	return n
}

func queryInt64(c echo.Context, name string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(c.QueryParam(name)), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func queryInt(c echo.Context, name string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.QueryParam(name)))
	if err != nil {
		return def
	}
	return n
}
