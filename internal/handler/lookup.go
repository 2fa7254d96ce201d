package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/navpurush/hostelms/internal/repository"
)

// LookupHandler serves the course and state reference lists used by
// registration forms.
type LookupHandler struct {
	Courses *repository.CourseRepo
	States  *repository.StateRepo
}

func NewLookupHandler(co *repository.CourseRepo, st *repository.StateRepo) *LookupHandler {
	return &LookupHandler{Courses: co, States: st}
}

func (h *LookupHandler) ListCourses(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Courses.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list courses failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"courses": rows})
}

func (h *LookupHandler) ListStates(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.States.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list states failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"states": rows})
}
