package repository

import (
	"context"
	"database/sql"
)

// studentDetailSelect is the denormalized student view: registration row
// plus course, room and home-state columns. Every join is a LEFT JOIN so a
// dangling reference yields NULLs rather than dropping the student.
const studentDetailSelect = `SELECT s.*, c.course_full_name, c.course_short_name,
		r.room_no, r.seater, r.fees_per_month, r.room_type,
		st.state_name
	FROM student_registration s
	LEFT JOIN courses c ON s.course_id = c.id
	LEFT JOIN rooms r ON s.room_id = r.id
	LEFT JOIN states st ON s.state_id = st.id`

// StudentRepo manages student registrations and the listings derived from
// them.
type StudentRepo struct {
	*Base
}

// NewStudentRepo binds a StudentRepo to the pool.
func NewStudentRepo(db *sql.DB) *StudentRepo {
	return &StudentRepo{NewBase(db, Table{Name: "student_registration"})}
}

// WithDetails returns one student with course, room and state columns.
func (r *StudentRepo) WithDetails(ctx context.Context, id int64) (Row, error) {
	return r.QueryOne(ctx, studentDetailSelect+" WHERE s.id = ?", id)
}

// ListWithDetails returns every student with joined display columns.
// orderBy is a trusted sort expression chosen by the caller, never request
// input; empty defaults to newest registration first.
func (r *StudentRepo) ListWithDetails(ctx context.Context, orderBy string) ([]Row, error) {
	if orderBy == "" {
		orderBy = "s.reg_date DESC"
	}
	return r.Query(ctx, studentDetailSelect+" ORDER BY "+orderBy)
}

// StudentFilter narrows Search. Zero values mean "no filter".
type StudentFilter struct {
	CourseID int64
	RoomID   int64
	Status   string
}

// Search matches the term against name, email and contact number, then
// applies the optional filters.
func (r *StudentRepo) Search(ctx context.Context, term string, f StudentFilter) ([]Row, error) {
	p := "%" + term + "%"
	var w Clauses
	w.AndIf(f.CourseID != 0, "s.course_id = ?", f.CourseID)
	w.AndIf(f.RoomID != 0, "s.room_id = ?", f.RoomID)
	w.AndIf(f.Status != "", "s.status = ?", f.Status)
	q := studentDetailSelect + ` WHERE (s.first_name LIKE ? OR s.last_name LIKE ?
		OR s.email LIKE ? OR s.contact_no LIKE ?)` + w.SQL() + " ORDER BY s.reg_date DESC"
	args := append([]any{p, p, p, p}, w.Args()...)
	return r.Query(ctx, q, args...)
}

// ByRoom lists the active students allocated to a room.
func (r *StudentRepo) ByRoom(ctx context.Context, roomID int64) ([]Row, error) {
	return r.Query(ctx, `SELECT s.*, c.course_full_name, c.course_short_name
		FROM student_registration s
		LEFT JOIN courses c ON s.course_id = c.id
		WHERE s.room_id = ? AND s.status = 'Active'
		ORDER BY s.reg_date`, roomID)
}

// ByCourse lists the active students enrolled in a course.
func (r *StudentRepo) ByCourse(ctx context.Context, courseID int64) ([]Row, error) {
	return r.Query(ctx, `SELECT s.*, r.room_no, st.state_name
		FROM student_registration s
		LEFT JOIN rooms r ON s.room_id = r.id
		LEFT JOIN states st ON s.state_id = st.id
		WHERE s.course_id = ? AND s.status = 'Active'
		ORDER BY s.reg_date`, courseID)
}

// EmailExists reports whether another registration already uses the email.
func (r *StudentRepo) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	q := "SELECT COUNT(*) FROM student_registration WHERE email = ?"
	args := []any{email}
	if excludeID != 0 {
		q += " AND id != ?"
		args = append(args, excludeID)
	}
	var n int64
	if err := r.DB().QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateStatus flips a student between Active and Inactive.
func (r *StudentRepo) UpdateStatus(ctx context.Context, id int64, status string) (bool, error) {
	return r.Update(ctx, id, map[string]any{"status": status})
}

// AvailableRooms lists rooms with at least one free seat, optionally
// restricted to a seating capacity. Seats are derived per read, never
// stored.
func (r *StudentRepo) AvailableRooms(ctx context.Context, seater int64) ([]Row, error) {
	var w Clauses
	w.AndIf(seater != 0, "r.seater = ?", seater)
	q := `SELECT r.*, (r.seater - COALESCE(COUNT(s.id), 0)) AS available_seats
		FROM rooms r
		LEFT JOIN student_registration s ON r.id = s.room_id AND s.status = 'Active'
		WHERE r.status = 'Available'` + w.SQL() + `
		GROUP BY r.id
		HAVING available_seats > 0
		ORDER BY r.room_no`
	return r.Query(ctx, q, w.Args()...)
}

// WithPendingFees lists active students whose room fee exceeds the sum of
// their Paid payments. The balance is derived in the query; the arithmetic
// does not clamp, the HAVING filter keeps only positive balances.
func (r *StudentRepo) WithPendingFees(ctx context.Context) ([]Row, error) {
	return r.Query(ctx, `SELECT s.*, c.course_short_name, r.room_no, r.fees_per_month,
			COALESCE(SUM(f.amount), 0) AS total_paid,
			(r.fees_per_month - COALESCE(SUM(f.amount), 0)) AS pending_amount
		FROM student_registration s
		LEFT JOIN courses c ON s.course_id = c.id
		LEFT JOIN rooms r ON s.room_id = r.id
		LEFT JOIN fee_payments f ON s.id = f.student_id AND f.status = 'Paid'
		WHERE s.status = 'Active'
		GROUP BY s.id, c.course_short_name, r.room_no, r.fees_per_month
		HAVING pending_amount > 0
		ORDER BY pending_amount DESC`)
}

// Statistics assembles the student dashboard: totals, per-course and
// per-room-type distributions and the latest registrations.
func (r *StudentRepo) Statistics(ctx context.Context) (map[string]any, error) {
	stats := map[string]any{}

	total, err := r.Count(ctx, map[string]any{"status": "Active"})
	if err != nil {
		return nil, err
	}
	stats["total_students"] = total

	byCourse, err := r.Query(ctx, `SELECT c.course_full_name, COUNT(s.id) AS count
		FROM student_registration s
		LEFT JOIN courses c ON s.course_id = c.id
		WHERE s.status = 'Active'
		GROUP BY c.id, c.course_full_name
		ORDER BY count DESC`)
	if err != nil {
		return nil, err
	}
	stats["by_course"] = byCourse

	byRoomType, err := r.Query(ctx, `SELECT r.room_type, COUNT(s.id) AS count
		FROM student_registration s
		LEFT JOIN rooms r ON s.room_id = r.id
		WHERE s.status = 'Active'
		GROUP BY r.room_type
		ORDER BY count DESC`)
	if err != nil {
		return nil, err
	}
	stats["by_room_type"] = byRoomType

	recent, err := r.Query(ctx, `SELECT s.*, c.course_short_name, r.room_no
		FROM student_registration s
		LEFT JOIN courses c ON s.course_id = c.id
		LEFT JOIN rooms r ON s.room_id = r.id
		WHERE s.status = 'Active'
		ORDER BY s.reg_date DESC LIMIT 10`)
	if err != nil {
		return nil, err
	}
	stats["recent_registrations"] = recent

	return stats, nil
}
