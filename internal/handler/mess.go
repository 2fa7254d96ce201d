package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/navpurush/hostelms/internal/repository"
)

// MessHandler covers mess menus, special events and the food reports.
type MessHandler struct {
	Mess *repository.MessRepo
}

func NewMessHandler(m *repository.MessRepo) *MessHandler {
	return &MessHandler{Mess: m}
}

type recordActivityReq struct {
	ActivityType  string  `json:"activity_type"`
	ActivityDate  string  `json:"activity_date"`
	MealType      string  `json:"meal_type"`
	MenuItems     string  `json:"menu_items"`
	Remarks       string  `json:"remarks"`
	CostPerMeal   float64 `json:"cost_per_meal"`
	TotalStudents int64   `json:"total_students"`
	TotalCost     float64 `json:"total_cost"`
}

// Record inserts a mess activity, stamping the creator and defaulting the
// date to today.
func (h *MessHandler) Record(c echo.Context) error {
	var req recordActivityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.ActivityType = strings.TrimSpace(req.ActivityType)
	if req.ActivityType == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "activity_type required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	fields := map[string]any{
		"activity_type": req.ActivityType,
		"created_by":    adminIDFrom(c),
	}
	if req.ActivityDate != "" {
		fields["activity_date"] = req.ActivityDate
	}
	if req.MealType != "" {
		fields["meal_type"] = req.MealType
	}
	if req.MenuItems != "" {
		fields["menu_items"] = req.MenuItems
	}
	if req.Remarks != "" {
		fields["remarks"] = req.Remarks
	}
	if req.CostPerMeal != 0 {
		fields["cost_per_meal"] = req.CostPerMeal
	}
	if req.TotalStudents != 0 {
		fields["total_students"] = req.TotalStudents
	}
	if req.TotalCost != 0 {
		fields["total_cost"] = req.TotalCost
	}

	id, err := h.Mess.RecordActivity(ctx, fields)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record activity failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// List returns activities filtered by type, date range and creator.
func (h *MessHandler) List(c echo.Context) error {
	f := repository.MessFilter{
		ActivityType: strings.TrimSpace(c.QueryParam("activity_type")),
		DateFrom:     strings.TrimSpace(c.QueryParam("from")),
		DateTo:       strings.TrimSpace(c.QueryParam("to")),
		CreatedBy:    queryInt64(c, "created_by"),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Mess.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list activities failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"activities": rows})
}

// Get returns one activity with the creator's name.
func (h *MessHandler) Get(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	row, err := h.Mess.WithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "activity not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch activity failed"})
	}
	return c.JSON(http.StatusOK, row)
}

// Update applies a partial update to an activity. The same fields accepted
// by Record can change; the creator stamp cannot.
func (h *MessHandler) Update(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req recordActivityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	fields := map[string]any{}
	if v := strings.TrimSpace(req.ActivityType); v != "" {
		fields["activity_type"] = v
	}
	if req.ActivityDate != "" {
		fields["activity_date"] = req.ActivityDate
	}
	if req.MealType != "" {
		fields["meal_type"] = req.MealType
	}
	if req.MenuItems != "" {
		fields["menu_items"] = req.MenuItems
	}
	if req.Remarks != "" {
		fields["remarks"] = req.Remarks
	}
	if req.CostPerMeal != 0 {
		fields["cost_per_meal"] = req.CostPerMeal
	}
	if req.TotalStudents != 0 {
		fields["total_students"] = req.TotalStudents
	}
	if req.TotalCost != 0 {
		fields["total_cost"] = req.TotalCost
	}
	if len(fields) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	updated, err := h.Mess.Update(ctx, id, fields)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update activity failed"})
	}
	if !updated {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "activity not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "updated"})
}

// Delete removes an activity.
func (h *MessHandler) Delete(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	deleted, err := h.Mess.Delete(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete activity failed"})
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "activity not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

// ByDate returns all activities on one day, optionally restricted to one
// activity type via ?type=.
func (h *MessHandler) ByDate(c echo.Context) error {
	date := strings.TrimSpace(c.QueryParam("date"))
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var rows []repository.Row
	var err error
	if activityType := strings.TrimSpace(c.QueryParam("type")); activityType != "" {
		rows, err = h.Mess.ByTypeAndDate(ctx, activityType, date)
	} else {
		rows, err = h.Mess.ByDate(ctx, date)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch activities failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"activities": rows})
}

// WeeklyMenu returns the seven-day menu starting at the given date.
func (h *MessHandler) WeeklyMenu(c echo.Context) error {
	start := strings.TrimSpace(c.QueryParam("start"))
	if start == "" {
		start = time.Now().UTC().Format("2006-01-02")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Mess.WeeklyMenu(ctx, start)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch menu failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"menu": rows})
}

// Monthly returns all activities of one calendar month.
func (h *MessHandler) Monthly(c echo.Context) error {
	now := time.Now().UTC()
	year := queryInt(c, "year", now.Year())
	month := queryInt(c, "month", int(now.Month()))
	if month < 1 || month > 12 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid month"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Mess.Monthly(ctx, year, month)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch activities failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"activities": rows})
}

// MenuItems returns the menu columns recorded for one day.
func (h *MessHandler) MenuItems(c echo.Context) error {
	date := strings.TrimSpace(c.QueryParam("date"))
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Mess.MenuItemsByDate(ctx, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch menu failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rows})
}

// Search matches the term against type, menu items, remarks and creator.
func (h *MessHandler) Search(c echo.Context) error {
	term := strings.TrimSpace(c.QueryParam("q"))
	if term == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "query term required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Mess.Search(ctx, term)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"activities": rows})
}

// Maintenance lists maintenance activities in a date range.
func (h *MessHandler) Maintenance(c echo.Context) error {
	from := strings.TrimSpace(c.QueryParam("from"))
	to := strings.TrimSpace(c.QueryParam("to"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Mess.MaintenanceActivities(ctx, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch activities failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"activities": rows})
}

// SpecialEvents lists special-event activities in a date range.
func (h *MessHandler) SpecialEvents(c echo.Context) error {
	from := strings.TrimSpace(c.QueryParam("from"))
	to := strings.TrimSpace(c.QueryParam("to"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Mess.SpecialEvents(ctx, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch events failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": rows})
}

// FoodStatus lists students with their mess subscription status.
func (h *MessHandler) FoodStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Mess.StudentsWithFoodStatus(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch students failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"students": rows})
}

// FoodPreferences returns the veg/non-veg/subscriber counts.
func (h *MessHandler) FoodPreferences(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	row, err := h.Mess.FoodPreferenceStats(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch stats failed"})
	}
	return c.JSON(http.StatusOK, row)
}

// CostPerStudent divides mess spend across subscribed students for a range.
func (h *MessHandler) CostPerStudent(c echo.Context) error {
	from := strings.TrimSpace(c.QueryParam("from"))
	to := strings.TrimSpace(c.QueryParam("to"))
	if from == "" || to == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from and to required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	row, err := h.Mess.CostPerStudent(ctx, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch cost failed"})
	}
	return c.JSON(http.StatusOK, row)
}

// MonthlySummary aggregates activity counts and cost per type for a month.
func (h *MessHandler) MonthlySummary(c echo.Context) error {
	now := time.Now().UTC()
	year := queryInt(c, "year", now.Year())
	month := queryInt(c, "month", int(now.Month()))
	if month < 1 || month > 12 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid month"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Mess.MonthlySummary(ctx, year, month)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch summary failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"summary": rows})
}

// Statistics returns mess totals for the optional date range.
func (h *MessHandler) Statistics(c echo.Context) error {
	from := strings.TrimSpace(c.QueryParam("from"))
	to := strings.TrimSpace(c.QueryParam("to"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Mess.Statistics(ctx, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch statistics failed"})
	}
	return c.JSON(http.StatusOK, stats)
}
