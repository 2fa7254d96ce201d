package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/navpurush/hostelms/internal/repository"
	"github.com/navpurush/hostelms/internal/utils"
)

// StudentHandler covers student registration, room allocation and lookups.
type StudentHandler struct {
	Students *repository.StudentRepo
	Rooms    *repository.RoomRepo
}

func NewStudentHandler(s *repository.StudentRepo, r *repository.RoomRepo) *StudentHandler {
	return &StudentHandler{Students: s, Rooms: r}
}

type createStudentReq struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	ContactNo     string `json:"contact_no"`
	Gender        string `json:"gender"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	StateID       int64  `json:"state_id"`
	CourseID      int64  `json:"course_id"`
	RoomID        int64  `json:"room_id"`
	FoodStatus    int64  `json:"food_status"`
	StayFrom      string `json:"stay_from"`
	Duration      int64  `json:"duration_months"`
}

// studentSortColumns maps the order_by query values onto fixed sort
// expressions. Sort expressions are SQL identifiers and must never come
// from the request itself.
var studentSortColumns = map[string]string{
	"name":     "s.first_name, s.last_name",
	"reg_date": "s.reg_date DESC",
	"room":     "r.room_no",
	"course":   "c.course_short_name",
}

// List returns students with course, room and state names joined in,
// sorted by one of the order_by keys in studentSortColumns.
func (h *StudentHandler) List(c echo.Context) error {
	var orderBy string
	if key := strings.TrimSpace(c.QueryParam("order_by")); key != "" {
		col, ok := studentSortColumns[key]
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown order_by value"})
		}
		orderBy = col
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Students.ListWithDetails(ctx, orderBy)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list students failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"students": rows})
}

// Get returns a single student with joined detail columns.
func (h *StudentHandler) Get(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	row, err := h.Students.WithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch student failed"})
	}
	return c.JSON(http.StatusOK, row)
}

// Create registers a new student. When a room is given its occupancy is
// checked first so a full room is never over-allocated.
func (h *StudentHandler) Create(c echo.Context) error {
	var req createStudentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.FirstName == "" || req.Email == "" || req.ContactNo == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "first_name/email/contact_no required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if exists, err := h.Students.EmailExists(ctx, req.Email, 0); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create student failed"})
	} else if exists {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	if req.RoomID != 0 {
		if err := h.ensureVacancy(ctx, req.RoomID); err != nil {
			return respondVacancy(c, err)
		}
	}

	fields := map[string]any{
		"first_name":      req.FirstName,
		"last_name":       strings.TrimSpace(req.LastName),
		"email":           req.Email,
		"contact_no":      strings.TrimSpace(req.ContactNo),
		"gender":          req.Gender,
		"guardian_name":   req.GuardianName,
		"guardian_phone":  req.GuardianPhone,
		"address":         req.Address,
		"city":            req.City,
		"status":          "Active",
		"reg_date":        time.Now().UTC().Format("2006-01-02"),
		"duration_months": req.Duration,
		"food_status":     req.FoodStatus,
	}
	if req.StateID != 0 {
		fields["state_id"] = req.StateID
	}
	if req.CourseID != 0 {
		fields["course_id"] = req.CourseID
	}
	if req.RoomID != 0 {
		fields["room_id"] = req.RoomID
	}
	if req.StayFrom != "" {
		fields["stay_from"] = req.StayFrom
	}

	id, err := h.Students.Insert(ctx, fields)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "student already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create student failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

type updateStudentReq struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	ContactNo     string `json:"contact_no"`
	Gender        string `json:"gender"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	StateID       int64  `json:"state_id"`
	CourseID      int64  `json:"course_id"`
	FoodStatus    *int64 `json:"food_status"`
	StayFrom      string `json:"stay_from"`
	Duration      int64  `json:"duration_months"`
}

// Update applies a partial update from the request body. Only the columns
// named in updateStudentReq can change; room moves go through AssignRoom so
// occupancy is always checked.
func (h *StudentHandler) Update(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateStudentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	fields := map[string]any{}
	if v := strings.TrimSpace(req.FirstName); v != "" {
		fields["first_name"] = v
	}
	if v := strings.TrimSpace(req.LastName); v != "" {
		fields["last_name"] = v
	}
	if v := strings.ToLower(strings.TrimSpace(req.Email)); v != "" {
		fields["email"] = v
	}
	if v := strings.TrimSpace(req.ContactNo); v != "" {
		fields["contact_no"] = v
	}
	if req.Gender != "" {
		fields["gender"] = req.Gender
	}
	if req.GuardianName != "" {
		fields["guardian_name"] = req.GuardianName
	}
	if req.GuardianPhone != "" {
		fields["guardian_phone"] = req.GuardianPhone
	}
	if req.Address != "" {
		fields["address"] = req.Address
	}
	if req.City != "" {
		fields["city"] = req.City
	}
	if req.StateID != 0 {
		fields["state_id"] = req.StateID
	}
	if req.CourseID != 0 {
		fields["course_id"] = req.CourseID
	}
	if req.FoodStatus != nil {
		fields["food_status"] = *req.FoodStatus
	}
	if req.StayFrom != "" {
		fields["stay_from"] = req.StayFrom
	}
	if req.Duration != 0 {
		fields["duration_months"] = req.Duration
	}
	if len(fields) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if e, ok := fields["email"].(string); ok {
		if exists, err := h.Students.EmailExists(ctx, e, id); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update student failed"})
		} else if exists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
	}

	updated, err := h.Students.Update(ctx, id, fields)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update student failed"})
	}
	if !updated {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "updated"})
}

// AssignRoom moves a student into a room after verifying a free seat.
func (h *StudentHandler) AssignRoom(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req struct {
		RoomID int64 `json:"room_id"`
	}
	if err := c.Bind(&req); err != nil || req.RoomID < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.ensureVacancy(ctx, req.RoomID); err != nil {
		return respondVacancy(c, err)
	}

	updated, err := h.Students.Update(ctx, id, map[string]any{"room_id": req.RoomID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign room failed"})
	}
	if !updated {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "room assigned"})
}

// VacateRoom clears the student's room allocation.
func (h *StudentHandler) VacateRoom(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	updated, err := h.Students.Update(ctx, id, map[string]any{"room_id": nil})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "vacate room failed"})
	}
	if !updated {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "room vacated"})
}

// Delete removes a student record.
func (h *StudentHandler) Delete(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	deleted, err := h.Students.Delete(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete student failed"})
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

// Search matches a term against names, email and contact number, narrowed by
// optional course/room/status filters.
func (h *StudentHandler) Search(c echo.Context) error {
	term := strings.TrimSpace(c.QueryParam("q"))
	if term == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "query term required"})
	}
	f := repository.StudentFilter{
		CourseID: queryInt64(c, "course_id"),
		RoomID:   queryInt64(c, "room_id"),
		Status:   strings.TrimSpace(c.QueryParam("status")),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Students.Search(ctx, term, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"students": rows})
}

// ByRoom lists the active occupants of a room.
func (h *StudentHandler) ByRoom(c echo.Context) error {
	roomID := queryInt64(c, "room_id")
	if roomID == 0 {
		roomID = pathID(c)
	}
	if roomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Students.ByRoom(ctx, roomID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list occupants failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"students": rows})
}

// ByCourse lists students enrolled in a course.
func (h *StudentHandler) ByCourse(c echo.Context) error {
	courseID := pathID(c)
	if courseID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Students.ByCourse(ctx, courseID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list students failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"students": rows})
}

// UpdateStatus flips a student between Active/Inactive/Left.
func (h *StudentHandler) UpdateStatus(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Status) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	updated, err := h.Students.UpdateStatus(ctx, id, strings.TrimSpace(req.Status))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
	}
	if !updated {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "status updated"})
}

// AvailableRooms lists rooms of a given seater class that still have a free
// seat.
func (h *StudentHandler) AvailableRooms(c echo.Context) error {
	seater := queryInt64(c, "seater")
	if seater == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seater required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Students.AvailableRooms(ctx, seater)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list rooms failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": rows})
}

// PendingFees lists active students carrying an outstanding balance.
func (h *StudentHandler) PendingFees(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Students.WithPendingFees(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch pending fees failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"students": rows})
}

// Statistics returns the student headline numbers.
func (h *StudentHandler) Statistics(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Students.Statistics(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch statistics failed"})
	}
	return c.JSON(http.StatusOK, stats)
}

var errRoomFull = errors.New("room full")

// ensureVacancy loads room occupancy and fails when no seat is free.
func (h *StudentHandler) ensureVacancy(ctx context.Context, roomID int64) error {
	room, err := h.Rooms.WithOccupancy(ctx, roomID)
	if err != nil {
		return err
	}
	if utils.AvailableSeats(room.Int64("seater"), room.Int64("current_occupants")) < 1 {
		return errRoomFull
	}
	return nil
}

func respondVacancy(c echo.Context, err error) error {
	switch {
	case errors.Is(err, errRoomFull):
		return c.JSON(http.StatusConflict, echo.Map{"error": "room is full"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check room failed"})
	}
}
