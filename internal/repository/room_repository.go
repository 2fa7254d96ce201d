package repository

import (
	"context"
	"database/sql"
)

// roomOccupancySelect derives current_occupants and available_seats per
// room by counting active students allocated to it. Occupancy is never
// materialized; every read recomputes it.
const roomOccupancySelect = `SELECT r.*, COUNT(s.id) AS current_occupants,
		(r.seater - COUNT(s.id)) AS available_seats
	FROM rooms r
	LEFT JOIN student_registration s ON r.id = s.room_id AND s.status = 'Active'`

// RoomRepo manages rooms and the occupancy views derived from student
// allocations.
type RoomRepo struct {
	*Base
}

// NewRoomRepo binds a RoomRepo to the pool.
func NewRoomRepo(db *sql.DB) *RoomRepo {
	return &RoomRepo{NewBase(db, Table{Name: "rooms"})}
}

// WithOccupancy returns one room with derived occupant and free-seat
// counts.
func (r *RoomRepo) WithOccupancy(ctx context.Context, id int64) (Row, error) {
	return r.QueryOne(ctx, roomOccupancySelect+" WHERE r.id = ? GROUP BY r.id", id)
}

// RoomFilter narrows ListWithOccupancy. Zero values mean "no filter";
// AvailableOnly keeps rooms with at least one free seat.
type RoomFilter struct {
	Block         string
	RoomType      string
	Floor         int64
	Status        string
	AvailableOnly bool
}

// ListWithOccupancy returns rooms with derived occupancy, filtered and
// ordered by block then room number.
func (r *RoomRepo) ListWithOccupancy(ctx context.Context, f RoomFilter) ([]Row, error) {
	var w Clauses
	w.AndIf(f.Block != "", "r.block_name = ?", f.Block)
	w.AndIf(f.RoomType != "", "r.room_type = ?", f.RoomType)
	w.AndIf(f.Floor != 0, "r.floor_number = ?", f.Floor)
	w.AndIf(f.Status != "", "r.status = ?", f.Status)
	q := roomOccupancySelect + " WHERE 1=1" + w.SQL() + " GROUP BY r.id"
	if f.AvailableOnly {
		q += " HAVING available_seats > 0"
	}
	q += " ORDER BY r.block_name, r.room_no"
	return r.Query(ctx, q, w.Args()...)
}

// Available lists rooms marked Available that still have free seats,
// optionally restricted by capacity and type.
func (r *RoomRepo) Available(ctx context.Context, seater int64, roomType string) ([]Row, error) {
	var w Clauses
	w.AndIf(seater != 0, "r.seater = ?", seater)
	w.AndIf(roomType != "", "r.room_type = ?", roomType)
	q := roomOccupancySelect + " WHERE r.status = 'Available'" + w.SQL() + `
		GROUP BY r.id
		HAVING available_seats > 0
		ORDER BY r.room_no`
	return r.Query(ctx, q, w.Args()...)
}

// FloorPlan returns occupancy rows for every room, optionally for one
// floor, ordered for rendering block by block.
func (r *RoomRepo) FloorPlan(ctx context.Context, floor int64) ([]Row, error) {
	var w Clauses
	w.AndIf(floor != 0, "r.floor_number = ?", floor)
	q := roomOccupancySelect + " WHERE 1=1" + w.SQL() +
		" GROUP BY r.id ORDER BY r.block_name, r.room_no"
	return r.Query(ctx, q, w.Args()...)
}

// ByBlock returns occupancy rows for one block.
func (r *RoomRepo) ByBlock(ctx context.Context, block string) ([]Row, error) {
	return r.Query(ctx, roomOccupancySelect+
		" WHERE r.block_name = ? GROUP BY r.id ORDER BY r.room_no", block)
}

// AllocationHistory lists every registration that referenced the room,
// joined with course and payment rows, newest first.
func (r *RoomRepo) AllocationHistory(ctx context.Context, roomID int64) ([]Row, error) {
	return r.Query(ctx, `SELECT s.*, c.course_short_name,
			f.payment_date, f.amount, f.status AS payment_status
		FROM student_registration s
		LEFT JOIN courses c ON s.course_id = c.id
		LEFT JOIN fee_payments f ON s.id = f.student_id
		WHERE s.room_id = ?
		ORDER BY s.reg_date DESC`, roomID)
}

// MaintenanceStatus classifies one room as Vacant, Partially Occupied or
// Fully Occupied from its derived occupancy.
func (r *RoomRepo) MaintenanceStatus(ctx context.Context, roomID int64) (Row, error) {
	return r.QueryOne(ctx, `SELECT r.*,
			CASE
				WHEN COUNT(s.id) = 0 THEN 'Vacant'
				WHEN COUNT(s.id) < r.seater THEN 'Partially Occupied'
				ELSE 'Fully Occupied'
			END AS occupancy_status
		FROM rooms r
		LEFT JOIN student_registration s ON r.id = s.room_id AND s.status = 'Active'
		WHERE r.id = ?
		GROUP BY r.id`, roomID)
}

// RequiringMaintenance lists rooms flagged for maintenance with their
// current occupant counts.
func (r *RoomRepo) RequiringMaintenance(ctx context.Context) ([]Row, error) {
	return r.Query(ctx, `SELECT r.*, COUNT(s.id) AS current_occupants
		FROM rooms r
		LEFT JOIN student_registration s ON r.id = s.room_id AND s.status = 'Active'
		WHERE r.status = 'Maintenance'
		GROUP BY r.id
		ORDER BY r.room_no`)
}

// Search matches the term against room number, block and type.
func (r *RoomRepo) Search(ctx context.Context, term string) ([]Row, error) {
	p := "%" + term + "%"
	return r.Query(ctx, roomOccupancySelect+`
		WHERE r.room_no LIKE ? OR r.block_name LIKE ? OR r.room_type LIKE ?
		GROUP BY r.id
		ORDER BY r.room_no`, p, p, p)
}

// UpdateStatus changes a room's status (Available, Maintenance, ...).
func (r *RoomRepo) UpdateStatus(ctx context.Context, id int64, status string) (bool, error) {
	return r.Update(ctx, id, map[string]any{"status": status})
}

// Statistics assembles the room dashboard: counts, distributions and the
// hostel-wide occupancy rate.
func (r *RoomRepo) Statistics(ctx context.Context) (map[string]any, error) {
	stats := map[string]any{}

	total, err := r.Count(ctx, nil)
	if err != nil {
		return nil, err
	}
	stats["total_rooms"] = total

	available, err := r.Query(ctx, roomOccupancySelect+`
		GROUP BY r.id
		HAVING available_seats > 0`)
	if err != nil {
		return nil, err
	}
	stats["available_rooms"] = len(available)

	byType, err := r.Query(ctx, `SELECT r.room_type, COUNT(*) AS count, AVG(r.fees_per_month) AS avg_fees
		FROM rooms r GROUP BY r.room_type ORDER BY count DESC`)
	if err != nil {
		return nil, err
	}
	stats["by_type"] = byType

	byBlock, err := r.Query(ctx, `SELECT r.block_name, COUNT(*) AS count
		FROM rooms r GROUP BY r.block_name ORDER BY r.block_name`)
	if err != nil {
		return nil, err
	}
	stats["by_block"] = byBlock

	occupancy, err := r.QueryOne(ctx, `SELECT SUM(r.seater) AS total_capacity,
			COUNT(s.id) AS total_occupied,
			ROUND((COUNT(s.id) * 100.0 / SUM(r.seater)), 2) AS occupancy_rate
		FROM rooms r
		LEFT JOIN student_registration s ON r.id = s.room_id AND s.status = 'Active'`)
	if err != nil {
		return nil, err
	}
	stats["occupancy"] = occupancy

	return stats, nil
}
