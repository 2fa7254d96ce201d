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

// RoomHandler covers room inventory and the occupancy reports derived from
// it.
type RoomHandler struct {
	Rooms *repository.RoomRepo
}

func NewRoomHandler(r *repository.RoomRepo) *RoomHandler {
	return &RoomHandler{Rooms: r}
}

type createRoomReq struct {
	RoomNo       string  `json:"room_no"`
	Block        string  `json:"block"`
	Floor        int64   `json:"floor"`
	Seater       int64   `json:"seater"`
	RoomType     string  `json:"room_type"`
	FeesPerMonth float64 `json:"fees_per_month"`
	Status       string  `json:"status"`
}

// List returns rooms with their derived occupancy, honoring the optional
// block/type/floor/status filters and the available=true shortcut.
func (h *RoomHandler) List(c echo.Context) error {
	f := repository.RoomFilter{
		Block:         strings.TrimSpace(c.QueryParam("block")),
		RoomType:      strings.TrimSpace(c.QueryParam("room_type")),
		Floor:         queryInt64(c, "floor"),
		Status:        strings.TrimSpace(c.QueryParam("status")),
		AvailableOnly: c.QueryParam("available") == "true",
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Rooms.ListWithOccupancy(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list rooms failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": rows})
}

// Get returns one room with occupancy.
func (h *RoomHandler) Get(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	row, err := h.Rooms.WithOccupancy(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch room failed"})
	}
	return c.JSON(http.StatusOK, row)
}

// Create adds a room to the inventory.
func (h *RoomHandler) Create(c echo.Context) error {
	var req createRoomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.RoomNo = strings.TrimSpace(req.RoomNo)
	if req.RoomNo == "" || req.Seater < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_no and seater required"})
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = "Available"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Rooms.Insert(ctx, map[string]any{
		"room_no":        req.RoomNo,
		"block_name":     strings.TrimSpace(req.Block),
		"floor_number":   req.Floor,
		"seater":         req.Seater,
		"room_type":      strings.TrimSpace(req.RoomType),
		"fees_per_month": req.FeesPerMonth,
		"status":         status,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "room already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create room failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

type updateRoomReq struct {
	RoomNo       string   `json:"room_no"`
	Block        string   `json:"block"`
	Floor        *int64   `json:"floor"`
	Seater       int64    `json:"seater"`
	RoomType     string   `json:"room_type"`
	FeesPerMonth *float64 `json:"fees_per_month"`
	Status       string   `json:"status"`
}

// Update applies a partial update to a room row. Only the columns named in
// updateRoomReq can change. Floor and fees are pointers: zero is a valid
// value for both.
func (h *RoomHandler) Update(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateRoomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	fields := map[string]any{}
	if v := strings.TrimSpace(req.RoomNo); v != "" {
		fields["room_no"] = v
	}
	if v := strings.TrimSpace(req.Block); v != "" {
		fields["block_name"] = v
	}
	if req.Floor != nil {
		fields["floor_number"] = *req.Floor
	}
	if req.Seater != 0 {
		fields["seater"] = req.Seater
	}
	if v := strings.TrimSpace(req.RoomType); v != "" {
		fields["room_type"] = v
	}
	if req.FeesPerMonth != nil {
		fields["fees_per_month"] = *req.FeesPerMonth
	}
	if v := strings.TrimSpace(req.Status); v != "" {
		fields["status"] = v
	}
	if len(fields) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	updated, err := h.Rooms.Update(ctx, id, fields)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "room number taken"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update room failed"})
	}
	if !updated {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "updated"})
}

// Delete removes a room. Rooms with occupants are protected.
func (h *RoomHandler) Delete(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	room, err := h.Rooms.WithOccupancy(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete room failed"})
	}
	if room.Int64("current_occupants") > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "room has occupants"})
	}

	deleted, err := h.Rooms.Delete(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete room failed"})
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

// Available lists rooms with at least one free seat, optionally narrowed by
// seater class and room type.
func (h *RoomHandler) Available(c echo.Context) error {
	seater := queryInt64(c, "seater")
	roomType := strings.TrimSpace(c.QueryParam("room_type"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Rooms.Available(ctx, seater, roomType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list rooms failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": rows})
}

// FloorPlan returns the occupancy picture of one floor.
func (h *RoomHandler) FloorPlan(c echo.Context) error {
	floor := queryInt64(c, "floor")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Rooms.FloorPlan(ctx, floor)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch floor plan failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": rows})
}

// ByBlock lists rooms of one block with occupancy.
func (h *RoomHandler) ByBlock(c echo.Context) error {
	block := strings.TrimSpace(c.Param("block"))
	if block == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "block required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Rooms.ByBlock(ctx, block)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list rooms failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": rows})
}

// AllocationHistory returns who has lived in a room.
func (h *RoomHandler) AllocationHistory(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Rooms.AllocationHistory(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch history failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"allocations": rows})
}

// Maintenance returns the Vacant/Partially Occupied/Fully Occupied view of a
// room, or of all rooms needing attention when no id is given.
func (h *RoomHandler) Maintenance(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if id := queryInt64(c, "room_id"); id != 0 {
		row, err := h.Rooms.MaintenanceStatus(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch status failed"})
		}
		return c.JSON(http.StatusOK, row)
	}

	rows, err := h.Rooms.RequiringMaintenance(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch rooms failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": rows})
}

// Search matches the term against room number and block.
func (h *RoomHandler) Search(c echo.Context) error {
	term := strings.TrimSpace(c.QueryParam("q"))
	if term == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "query term required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Rooms.Search(ctx, term)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": rows})
}

// UpdateStatus sets a room Active/Inactive/Maintenance.
func (h *RoomHandler) UpdateStatus(c echo.Context) error {
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

	updated, err := h.Rooms.UpdateStatus(ctx, id, strings.TrimSpace(req.Status))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
	}
	if !updated {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "status updated"})
}

// Statistics returns occupancy totals and rate across the hostel.
func (h *RoomHandler) Statistics(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Rooms.Statistics(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch statistics failed"})
	}
	return c.JSON(http.StatusOK, stats)
}
