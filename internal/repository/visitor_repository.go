package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/navpurush/hostelms/internal/utils"
)

// visitorDetailSelect joins a visitor-log row with the visited student and
// their course and room.
const visitorDetailSelect = `SELECT v.*, s.first_name, s.last_name, s.email, s.contact_no,
		c.course_short_name, r.room_no
	FROM visitor_log v
	LEFT JOIN student_registration s ON v.student_id = s.id
	LEFT JOIN courses c ON s.course_id = c.id
	LEFT JOIN rooms r ON s.room_id = r.id`

// VisitorRepo manages the gate register: entries, exits and the reports
// built on them. A visit stays "Inside" until exactly one exit update
// stamps its exit time, duration and the Exited status.
type VisitorRepo struct {
	*Base
}

// NewVisitorRepo binds a VisitorRepo to the pool.
func NewVisitorRepo(db *sql.DB) *VisitorRepo {
	return &VisitorRepo{NewBase(db, Table{Name: "visitor_log"})}
}

// WithDetails returns one visit with student display columns.
func (r *VisitorRepo) WithDetails(ctx context.Context, id int64) (Row, error) {
	return r.QueryOne(ctx, visitorDetailSelect+" WHERE v.id = ?", id)
}

// VisitorFilter narrows List. Zero values mean "no filter"; dates compare
// against the entry day, Name matches with LIKE.
type VisitorFilter struct {
	StudentID int64
	Status    string
	DateFrom  string
	DateTo    string
	Name      string
}

// List returns visits with student details, newest entry first.
func (r *VisitorRepo) List(ctx context.Context, f VisitorFilter) ([]Row, error) {
	var w Clauses
	w.AndIf(f.StudentID != 0, "v.student_id = ?", f.StudentID)
	w.AndIf(f.Status != "", "v.status = ?", f.Status)
	w.AndIf(f.DateFrom != "", "DATE(v.entry_time) >= ?", f.DateFrom)
	w.AndIf(f.DateTo != "", "DATE(v.entry_time) <= ?", f.DateTo)
	w.AndIf(f.Name != "", "v.visitor_name LIKE ?", "%"+f.Name+"%")
	q := visitorDetailSelect + " WHERE 1=1" + w.SQL() + " ORDER BY v.entry_time DESC"
	return r.Query(ctx, q, w.Args()...)
}

// CurrentVisitors lists everyone still inside, newest entry first.
func (r *VisitorRepo) CurrentVisitors(ctx context.Context) ([]Row, error) {
	return r.Query(ctx, visitorDetailSelect+
		" WHERE v.status = 'Inside' ORDER BY v.entry_time DESC")
}

// RecordEntry inserts a visit, defaulting the entry time to now and the
// status to Inside when absent.
func (r *VisitorRepo) RecordEntry(ctx context.Context, fields map[string]any) (int64, error) {
	fields = cloneFields(fields)
	if v, ok := fields["entry_time"]; !ok || v == "" {
		fields["entry_time"] = time.Now().UTC().Format("2006-01-02 15:04:05")
	}
	if v, ok := fields["status"]; !ok || v == "" {
		fields["status"] = "Inside"
	}
	return r.Insert(ctx, fields)
}

// RecordExit closes a visit: it looks up the entry time, computes the
// duration in rounded minutes and flips the status to Exited in one update.
// A missing row returns ErrNotFound with no partial write. exitTime zero
// means now.
func (r *VisitorRepo) RecordExit(ctx context.Context, id int64, exitTime time.Time, remarks string) (bool, error) {
	if exitTime.IsZero() {
		exitTime = time.Now().UTC()
	}
	visit, err := r.QueryOne(ctx, "SELECT entry_time FROM visitor_log WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	fields := map[string]any{
		"exit_time":        exitTime.Format("2006-01-02 15:04:05"),
		"duration_minutes": utils.VisitDuration(visit.Time("entry_time"), exitTime),
		"status":           "Exited",
	}
	if remarks != "" {
		fields["security_remarks"] = remarks
	}
	return r.Update(ctx, id, fields)
}

// ByStudent lists every visit made to one student.
func (r *VisitorRepo) ByStudent(ctx context.Context, studentID int64) ([]Row, error) {
	return r.Query(ctx, `SELECT v.*, s.first_name, s.last_name, s.email
		FROM visitor_log v
		LEFT JOIN student_registration s ON v.student_id = s.id
		WHERE v.student_id = ?
		ORDER BY v.entry_time DESC`, studentID)
}

// Search matches the term against visitor identity fields and the visited
// student's name.
func (r *VisitorRepo) Search(ctx context.Context, term string) ([]Row, error) {
	p := "%" + term + "%"
	return r.Query(ctx, visitorDetailSelect+`
		WHERE v.visitor_name LIKE ? OR v.visitor_phone LIKE ? OR v.visitor_id_number LIKE ?
		   OR s.first_name LIKE ? OR s.last_name LIKE ?
		ORDER BY v.entry_time DESC`, p, p, p, p, p)
}

// ByIDProof lists prior visits registered under one ID document.
func (r *VisitorRepo) ByIDProof(ctx context.Context, idProof, idNumber string) ([]Row, error) {
	return r.Query(ctx, `SELECT v.*, s.first_name, s.last_name, s.email, s.contact_no
		FROM visitor_log v
		LEFT JOIN student_registration s ON v.student_id = s.id
		WHERE v.visitor_id_proof = ? AND v.visitor_id_number = ?
		ORDER BY v.entry_time DESC`, idProof, idNumber)
}

// SecurityAlerts lists visitors who have been inside longer than the given
// number of hours, longest first.
func (r *VisitorRepo) SecurityAlerts(ctx context.Context, maxDurationHours int) ([]Row, error) {
	if maxDurationHours <= 0 {
		maxDurationHours = 4
	}
	return r.Query(ctx, `SELECT v.*, s.first_name, s.last_name, s.email, s.contact_no,
			c.course_short_name, r.room_no,
			ROUND(TIMESTAMPDIFF(MINUTE, v.entry_time, UTC_TIMESTAMP()) / 60.0, 2) AS hours_inside
		FROM visitor_log v
		LEFT JOIN student_registration s ON v.student_id = s.id
		LEFT JOIN courses c ON s.course_id = c.id
		LEFT JOIN rooms r ON s.room_id = r.id
		WHERE v.status = 'Inside'
		  AND TIMESTAMPDIFF(MINUTE, v.entry_time, UTC_TIMESTAMP()) / 60.0 > ?
		ORDER BY hours_inside DESC`, maxDurationHours)
}

// ReportByDateRange lists visits whose entry day falls inside the range.
func (r *VisitorRepo) ReportByDateRange(ctx context.Context, dateFrom, dateTo string) ([]Row, error) {
	return r.Query(ctx, visitorDetailSelect+`
		WHERE DATE(v.entry_time) BETWEEN ? AND ?
		ORDER BY v.entry_time DESC`, dateFrom, dateTo)
}

// UpdateStatus changes a visit's status directly, without touching exit
// time or duration.
func (r *VisitorRepo) UpdateStatus(ctx context.Context, id int64, status string) (bool, error) {
	return r.Update(ctx, id, map[string]any{"status": status})
}

// CountByPeriod buckets visit counts hourly, daily or monthly.
func (r *VisitorRepo) CountByPeriod(ctx context.Context, period string) ([]Row, error) {
	format := "%Y-%m-%d"
	switch period {
	case "hourly":
		format = "%Y-%m-%d %H"
	case "monthly":
		format = "%Y-%m"
	}
	return r.Query(ctx, `SELECT DATE_FORMAT(entry_time, ?) AS time_period, COUNT(*) AS visitor_count
		FROM visitor_log
		GROUP BY DATE_FORMAT(entry_time, ?)
		ORDER BY time_period DESC`, format, format)
}

// FrequentVisitors lists the most frequent name/phone pairs.
func (r *VisitorRepo) FrequentVisitors(ctx context.Context, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 10
	}
	return r.Query(ctx, `SELECT visitor_name, visitor_phone, COUNT(*) AS visit_count
		FROM visitor_log
		GROUP BY visitor_name, visitor_phone
		ORDER BY visit_count DESC
		LIMIT ?`, limit)
}

// Statistics assembles the visitor dashboard: totals, who is inside now,
// purpose and daily distributions and the average visit length. Date
// bounds are optional YYYY-MM-DD strings compared against the entry day.
func (r *VisitorRepo) Statistics(ctx context.Context, dateFrom, dateTo string) (map[string]any, error) {
	var w Clauses
	w.AndIf(dateFrom != "", "DATE(entry_time) >= ?", dateFrom)
	w.AndIf(dateTo != "", "DATE(entry_time) <= ?", dateTo)

	stats := map[string]any{}

	var total int64
	if err := r.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM visitor_log WHERE 1=1"+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, err
	}
	stats["total_visitors"] = total

	inside, err := r.Count(ctx, map[string]any{"status": "Inside"})
	if err != nil {
		return nil, err
	}
	stats["current_visitors"] = inside

	byPurpose, err := r.Query(ctx, `SELECT purpose, COUNT(*) AS count
		FROM visitor_log
		WHERE 1=1`+w.SQL()+`
		GROUP BY purpose
		ORDER BY count DESC`, w.Args()...)
	if err != nil {
		return nil, err
	}
	stats["by_purpose"] = byPurpose

	daily, err := r.Query(ctx, `SELECT DATE(entry_time) AS visit_date, COUNT(*) AS visitor_count
		FROM visitor_log
		WHERE 1=1`+w.SQL()+`
		GROUP BY DATE(entry_time)
		ORDER BY visit_date DESC`, w.Args()...)
	if err != nil {
		return nil, err
	}
	stats["daily_trend"] = daily

	avg, err := r.QueryOne(ctx, `SELECT COALESCE(ROUND(AVG(duration_minutes), 2), 0) AS avg_duration
		FROM visitor_log
		WHERE duration_minutes IS NOT NULL`+w.SQL(), w.Args()...)
	if err != nil {
		return nil, err
	}
	stats["avg_duration"] = avg.Float64("avg_duration")

	return stats, nil
}
