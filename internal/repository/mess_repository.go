package repository

import (
	"context"
	"database/sql"
	"time"
)

// messDetailSelect joins an activity with the admin who recorded it.
const messDetailSelect = `SELECT m.*, a.username AS created_by_name
	FROM mess_activities m
	LEFT JOIN admin a ON m.created_by = a.id`

// MessRepo manages mess activities (menus, special events, maintenance)
// and the food-preference reads over student registrations.
type MessRepo struct {
	*Base
}

// NewMessRepo binds a MessRepo to the pool.
func NewMessRepo(db *sql.DB) *MessRepo {
	return &MessRepo{NewBase(db, Table{Name: "mess_activities"})}
}

// WithDetails returns one activity with its creator's username.
func (r *MessRepo) WithDetails(ctx context.Context, id int64) (Row, error) {
	return r.QueryOne(ctx, messDetailSelect+" WHERE m.id = ?", id)
}

// MessFilter narrows List. Zero values mean "no filter"; dates are
// YYYY-MM-DD strings.
type MessFilter struct {
	ActivityType string
	DateFrom     string
	DateTo       string
	CreatedBy    int64
}

// List returns activities with creator names, newest first.
func (r *MessRepo) List(ctx context.Context, f MessFilter) ([]Row, error) {
	var w Clauses
	w.AndIf(f.ActivityType != "", "m.activity_type = ?", f.ActivityType)
	w.AndIf(f.DateFrom != "", "m.activity_date >= ?", f.DateFrom)
	w.AndIf(f.DateTo != "", "m.activity_date <= ?", f.DateTo)
	w.AndIf(f.CreatedBy != 0, "m.created_by = ?", f.CreatedBy)
	q := messDetailSelect + " WHERE 1=1" + w.SQL() +
		" ORDER BY m.activity_date DESC, m.created_at DESC"
	return r.Query(ctx, q, w.Args()...)
}

// ByDate lists the activities of one day grouped by type.
func (r *MessRepo) ByDate(ctx context.Context, date string) ([]Row, error) {
	return r.Query(ctx, messDetailSelect+`
		WHERE m.activity_date = ?
		ORDER BY m.activity_type, m.created_at`, date)
}

// WeeklyMenu lists the Menu activities of the seven days starting at
// startDate.
func (r *MessRepo) WeeklyMenu(ctx context.Context, startDate string) ([]Row, error) {
	return r.Query(ctx, messDetailSelect+`
		WHERE m.activity_type = 'Menu'
		  AND m.activity_date BETWEEN ? AND DATE_ADD(?, INTERVAL 6 DAY)
		ORDER BY m.activity_date, m.created_at`, startDate, startDate)
}

// Monthly lists every activity of one calendar month.
func (r *MessRepo) Monthly(ctx context.Context, year, month int) ([]Row, error) {
	return r.Query(ctx, messDetailSelect+`
		WHERE YEAR(m.activity_date) = ? AND MONTH(m.activity_date) = ?
		ORDER BY m.activity_date, m.activity_type`, year, month)
}

// RecordActivity inserts an activity, defaulting the activity date and the
// created_at stamp to now when absent.
func (r *MessRepo) RecordActivity(ctx context.Context, fields map[string]any) (int64, error) {
	fields = cloneFields(fields)
	now := time.Now().UTC()
	if v, ok := fields["activity_date"]; !ok || v == "" {
		fields["activity_date"] = now.Format("2006-01-02")
	}
	if v, ok := fields["created_at"]; !ok || v == "" {
		fields["created_at"] = now.Format("2006-01-02 15:04:05")
	}
	return r.Insert(ctx, fields)
}

// MenuItemsByDate returns the menu columns recorded for one day.
func (r *MessRepo) MenuItemsByDate(ctx context.Context, date string) ([]Row, error) {
	return r.Query(ctx, `SELECT menu_items, cost_per_meal, total_students, total_cost
		FROM mess_activities
		WHERE activity_type = 'Menu' AND activity_date = ?
		ORDER BY created_at DESC`, date)
}

// SpecialEvents lists Special Event activities inside the optional date
// range.
func (r *MessRepo) SpecialEvents(ctx context.Context, dateFrom, dateTo string) ([]Row, error) {
	return r.byType(ctx, "Special Event", dateFrom, dateTo)
}

// MaintenanceActivities lists Maintenance activities inside the optional
// date range.
func (r *MessRepo) MaintenanceActivities(ctx context.Context, dateFrom, dateTo string) ([]Row, error) {
	return r.byType(ctx, "Maintenance", dateFrom, dateTo)
}

func (r *MessRepo) byType(ctx context.Context, activityType, dateFrom, dateTo string) ([]Row, error) {
	var w Clauses
	w.AndIf(dateFrom != "", "m.activity_date >= ?", dateFrom)
	w.AndIf(dateTo != "", "m.activity_date <= ?", dateTo)
	q := messDetailSelect + " WHERE m.activity_type = ?" + w.SQL() +
		" ORDER BY m.activity_date DESC"
	args := append([]any{activityType}, w.Args()...)
	return r.Query(ctx, q, args...)
}

// ByTypeAndDate lists activities of one type on one day.
func (r *MessRepo) ByTypeAndDate(ctx context.Context, activityType, date string) ([]Row, error) {
	return r.Query(ctx, messDetailSelect+`
		WHERE m.activity_type = ? AND m.activity_date = ?
		ORDER BY m.created_at DESC`, activityType, date)
}

// Search matches the term against type, menu items, remarks and creator.
func (r *MessRepo) Search(ctx context.Context, term string) ([]Row, error) {
	p := "%" + term + "%"
	return r.Query(ctx, messDetailSelect+`
		WHERE m.activity_type LIKE ? OR m.menu_items LIKE ? OR m.remarks LIKE ?
		   OR a.username LIKE ?
		ORDER BY m.activity_date DESC, m.created_at DESC`, p, p, p, p)
}

// StudentsWithFoodStatus lists active students with their mess opt-in
// rendered as Yes/No, opted-in first.
func (r *MessRepo) StudentsWithFoodStatus(ctx context.Context) ([]Row, error) {
	return r.Query(ctx, `SELECT s.*, c.course_short_name, r.room_no,
			CASE WHEN s.food_status = 1 THEN 'Yes' ELSE 'No' END AS food_opted
		FROM student_registration s
		LEFT JOIN courses c ON s.course_id = c.id
		LEFT JOIN rooms r ON s.room_id = r.id
		WHERE s.status = 'Active'
		ORDER BY s.food_status DESC, s.first_name`)
}

// FoodPreferenceStats returns the opt-in counters and percentage across
// active students.
func (r *MessRepo) FoodPreferenceStats(ctx context.Context) (Row, error) {
	return r.QueryOne(ctx, `SELECT COUNT(*) AS total_students,
			COALESCE(SUM(food_status), 0) AS food_opted_count,
			(COUNT(*) - COALESCE(SUM(food_status), 0)) AS food_not_opted_count,
			ROUND((COALESCE(SUM(food_status), 0) * 100.0 / COUNT(*)), 2) AS food_opted_percentage
		FROM student_registration
		WHERE status = 'Active'`)
}

// CostPerStudent aggregates the per-head meal cost across activities that
// carry both a total cost and a student count.
func (r *MessRepo) CostPerStudent(ctx context.Context, dateFrom, dateTo string) (Row, error) {
	var w Clauses
	w.AndIf(dateFrom != "", "activity_date >= ?", dateFrom)
	w.AndIf(dateTo != "", "activity_date <= ?", dateTo)
	return r.QueryOne(ctx, `SELECT AVG(total_cost / NULLIF(total_students, 0)) AS avg_cost_per_student,
			MIN(total_cost / NULLIF(total_students, 0)) AS min_cost_per_student,
			MAX(total_cost / NULLIF(total_students, 0)) AS max_cost_per_student
		FROM mess_activities
		WHERE total_cost IS NOT NULL AND total_students IS NOT NULL`+w.SQL(), w.Args()...)
}

// MonthlySummary aggregates one calendar month per activity type.
func (r *MessRepo) MonthlySummary(ctx context.Context, year, month int) ([]Row, error) {
	return r.Query(ctx, `SELECT activity_type,
			COUNT(*) AS activity_count,
			SUM(total_cost) AS total_cost,
			AVG(cost_per_meal) AS avg_cost_per_meal,
			SUM(total_students) AS total_students_served
		FROM mess_activities
		WHERE YEAR(activity_date) = ? AND MONTH(activity_date) = ?
		GROUP BY activity_type
		ORDER BY total_cost DESC`, year, month)
}

// Statistics assembles the mess dashboard: totals, per-type counts, cost
// analysis and the monthly trend. Date bounds are optional.
func (r *MessRepo) Statistics(ctx context.Context, dateFrom, dateTo string) (map[string]any, error) {
	var w Clauses
	w.AndIf(dateFrom != "", "activity_date >= ?", dateFrom)
	w.AndIf(dateTo != "", "activity_date <= ?", dateTo)

	stats := map[string]any{}

	var total int64
	if err := r.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM mess_activities WHERE 1=1"+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, err
	}
	stats["total_activities"] = total

	byType, err := r.Query(ctx, `SELECT activity_type, COUNT(*) AS count
		FROM mess_activities
		WHERE 1=1`+w.SQL()+`
		GROUP BY activity_type
		ORDER BY count DESC`, w.Args()...)
	if err != nil {
		return nil, err
	}
	stats["by_type"] = byType

	costs, err := r.Query(ctx, `SELECT activity_type,
			COUNT(*) AS activity_count,
			SUM(total_cost) AS total_cost,
			AVG(total_cost) AS avg_cost
		FROM mess_activities
		WHERE total_cost IS NOT NULL`+w.SQL()+`
		GROUP BY activity_type
		ORDER BY total_cost DESC`, w.Args()...)
	if err != nil {
		return nil, err
	}
	stats["cost_analysis"] = costs

	trend, err := r.Query(ctx, `SELECT DATE_FORMAT(activity_date, '%Y-%m') AS month,
			COUNT(*) AS activity_count,
			SUM(total_cost) AS total_cost
		FROM mess_activities
		WHERE 1=1`+w.SQL()+`
		GROUP BY DATE_FORMAT(activity_date, '%Y-%m')
		ORDER BY month DESC`, w.Args()...)
	if err != nil {
		return nil, err
	}
	stats["monthly_trend"] = trend

	return stats, nil
}
