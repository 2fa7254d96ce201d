package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/navpurush/hostelms/internal/utils"
)

// feeDetailSelect joins a payment with the paying student and their course
// and room for display.
const feeDetailSelect = `SELECT f.*, s.first_name, s.last_name, s.email, s.contact_no,
		c.course_short_name, r.room_no, r.fees_per_month
	FROM fee_payments f
	LEFT JOIN student_registration s ON f.student_id = s.id
	LEFT JOIN courses c ON s.course_id = c.id
	LEFT JOIN rooms r ON s.room_id = r.id`

// FeeRepo manages fee payments, receipts and the pending-balance reports
// derived from them. A student's balance is a single perpetual amount
// (room fee minus everything paid); there is no billing-period model.
type FeeRepo struct {
	*Base
}

// NewFeeRepo binds a FeeRepo to the pool.
func NewFeeRepo(db *sql.DB) *FeeRepo {
	return &FeeRepo{NewBase(db, Table{Name: "fee_payments"})}
}

// PaymentWithDetails returns one payment with student display columns.
func (r *FeeRepo) PaymentWithDetails(ctx context.Context, id int64) (Row, error) {
	return r.QueryOne(ctx, feeDetailSelect+" WHERE f.id = ?", id)
}

// FeeFilter narrows ListPayments. Zero values mean "no filter"; dates are
// YYYY-MM-DD strings.
type FeeFilter struct {
	StudentID   int64
	PaymentType string
	Status      string
	DateFrom    string
	DateTo      string
}

// ListPayments returns payments with student details, newest first.
func (r *FeeRepo) ListPayments(ctx context.Context, f FeeFilter) ([]Row, error) {
	var w Clauses
	w.AndIf(f.StudentID != 0, "f.student_id = ?", f.StudentID)
	w.AndIf(f.PaymentType != "", "f.payment_type = ?", f.PaymentType)
	w.AndIf(f.Status != "", "f.status = ?", f.Status)
	w.AndIf(f.DateFrom != "", "f.payment_date >= ?", f.DateFrom)
	w.AndIf(f.DateTo != "", "f.payment_date <= ?", f.DateTo)
	q := feeDetailSelect + " WHERE 1=1" + w.SQL() + " ORDER BY f.payment_date DESC"
	return r.Query(ctx, q, w.Args()...)
}

// StudentFeeSummary returns one student with their derived balance: total
// paid, pending amount and payment count.
func (r *FeeRepo) StudentFeeSummary(ctx context.Context, studentID int64) (Row, error) {
	return r.QueryOne(ctx, `SELECT s.*, c.course_short_name, r.room_no, r.fees_per_month,
			COALESCE(SUM(f.amount), 0) AS total_paid,
			(r.fees_per_month - COALESCE(SUM(f.amount), 0)) AS pending_amount,
			COUNT(f.id) AS payment_count
		FROM student_registration s
		LEFT JOIN courses c ON s.course_id = c.id
		LEFT JOIN rooms r ON s.room_id = r.id
		LEFT JOIN fee_payments f ON s.id = f.student_id AND f.status = 'Paid'
		WHERE s.id = ?
		GROUP BY s.id, c.course_short_name, r.room_no, r.fees_per_month`, studentID)
}

// PaymentHistory lists a student's payments, newest first.
func (r *FeeRepo) PaymentHistory(ctx context.Context, studentID int64) ([]Row, error) {
	return r.Query(ctx, `SELECT f.*, s.first_name, s.last_name, s.email
		FROM fee_payments f
		LEFT JOIN student_registration s ON f.student_id = s.id
		WHERE f.student_id = ?
		ORDER BY f.payment_date DESC`, studentID)
}

// PendingFilter narrows PendingFeesReport. PaymentStatus "Pending" keeps
// positive balances, any other non-empty value keeps settled ones.
type PendingFilter struct {
	CourseID      int64
	RoomID        int64
	PaymentStatus string
}

// PendingFeesReport lists active students with their derived balance and a
// Paid/Pending classification. The payment-status filter branches into a
// HAVING clause on the derived amount.
func (r *FeeRepo) PendingFeesReport(ctx context.Context, f PendingFilter) ([]Row, error) {
	var w Clauses
	w.AndIf(f.CourseID != 0, "s.course_id = ?", f.CourseID)
	w.AndIf(f.RoomID != 0, "s.room_id = ?", f.RoomID)
	q := `SELECT s.*, c.course_short_name, r.room_no, r.fees_per_month,
			COALESCE(SUM(f.amount), 0) AS total_paid,
			(r.fees_per_month - COALESCE(SUM(f.amount), 0)) AS pending_amount,
			CASE
				WHEN (r.fees_per_month - COALESCE(SUM(f.amount), 0)) > 0 THEN 'Pending'
				ELSE 'Paid'
			END AS payment_status
		FROM student_registration s
		LEFT JOIN courses c ON s.course_id = c.id
		LEFT JOIN rooms r ON s.room_id = r.id
		LEFT JOIN fee_payments f ON s.id = f.student_id AND f.status = 'Paid'
		WHERE s.status = 'Active'` + w.SQL() + `
		GROUP BY s.id, c.course_short_name, r.room_no, r.fees_per_month`
	switch f.PaymentStatus {
	case "":
	case "Pending":
		q += " HAVING pending_amount > 0"
	default:
		q += " HAVING pending_amount <= 0"
	}
	q += " ORDER BY pending_amount DESC"
	return r.Query(ctx, q, w.Args()...)
}

// GenerateReceiptNumber computes the next candidate receipt number for the
// given day by counting existing receipts with the day's prefix. The
// count-then-increment read is advisory only: two concurrent callers can
// compute the same candidate, and the unique index on receipt_no is the
// actual guarantee.
func (r *FeeRepo) GenerateReceiptNumber(ctx context.Context, day time.Time) (string, error) {
	pattern := utils.ReceiptPrefix(day) + "%"
	var n int64
	if err := r.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM fee_payments WHERE receipt_no LIKE ?", pattern).Scan(&n); err != nil {
		return "", err
	}
	return utils.ReceiptNumber(day, n+1), nil
}

// RecordPayment inserts a payment, synthesizing the receipt number and
// defaulting the payment date and status when absent. A colliding receipt
// number surfaces as ErrDuplicate from the insert.
func (r *FeeRepo) RecordPayment(ctx context.Context, fields map[string]any) (int64, error) {
	fields = cloneFields(fields)
	now := time.Now().UTC()
	if v, ok := fields["receipt_no"]; !ok || v == "" {
		receipt, err := r.GenerateReceiptNumber(ctx, now)
		if err != nil {
			return 0, err
		}
		fields["receipt_no"] = receipt
	}
	if v, ok := fields["payment_date"]; !ok || v == "" {
		fields["payment_date"] = now.Format("2006-01-02")
	}
	if v, ok := fields["status"]; !ok || v == "" {
		fields["status"] = "Paid"
	}
	return r.Insert(ctx, fields)
}

// PaymentByReceipt looks a payment up by its receipt number.
func (r *FeeRepo) PaymentByReceipt(ctx context.Context, receiptNo string) (Row, error) {
	return r.QueryOne(ctx, feeDetailSelect+" WHERE f.receipt_no = ?", receiptNo)
}

// UpdatePaymentStatus changes a payment's status.
func (r *FeeRepo) UpdatePaymentStatus(ctx context.Context, id int64, status string) (bool, error) {
	return r.Update(ctx, id, map[string]any{"status": status})
}

// OverduePayments lists students with a positive balance who have stayed
// longer than the given number of days.
func (r *FeeRepo) OverduePayments(ctx context.Context, daysOverdue int) ([]Row, error) {
	if daysOverdue <= 0 {
		daysOverdue = 30
	}
	return r.Query(ctx, `SELECT s.*, c.course_short_name, r.room_no, r.fees_per_month,
			COALESCE(SUM(f.amount), 0) AS total_paid,
			(r.fees_per_month - COALESCE(SUM(f.amount), 0)) AS pending_amount,
			DATEDIFF(UTC_DATE(), s.stay_from) AS days_staying
		FROM student_registration s
		LEFT JOIN courses c ON s.course_id = c.id
		LEFT JOIN rooms r ON s.room_id = r.id
		LEFT JOIN fee_payments f ON s.id = f.student_id AND f.status = 'Paid'
		WHERE s.status = 'Active'
		GROUP BY s.id, s.stay_from, c.course_short_name, r.room_no, r.fees_per_month
		HAVING pending_amount > 0 AND days_staying > ?
		ORDER BY pending_amount DESC`, daysOverdue)
}

// PaymentMethodStats aggregates settled payments per payment method.
func (r *FeeRepo) PaymentMethodStats(ctx context.Context) ([]Row, error) {
	return r.Query(ctx, `SELECT payment_method, COUNT(*) AS count,
			SUM(amount) AS total_amount, AVG(amount) AS avg_amount
		FROM fee_payments
		WHERE status = 'Paid'
		GROUP BY payment_method
		ORDER BY total_amount DESC`)
}

// CollectionStatistics assembles the fee dashboard: collected totals, a
// per-type breakdown, the monthly trend and the pending-fee summary. Date
// bounds are optional YYYY-MM-DD strings.
func (r *FeeRepo) CollectionStatistics(ctx context.Context, dateFrom, dateTo string) (map[string]any, error) {
	var w Clauses
	w.AndIf(dateFrom != "", "payment_date >= ?", dateFrom)
	w.AndIf(dateTo != "", "payment_date <= ?", dateTo)

	stats := map[string]any{}

	totals, err := r.QueryOne(ctx, `SELECT COALESCE(SUM(amount), 0) AS total_collection,
			COUNT(*) AS total_payments
		FROM fee_payments
		WHERE status = 'Paid'`+w.SQL(), w.Args()...)
	if err != nil {
		return nil, err
	}
	stats["total_collection"] = totals.Float64("total_collection")
	stats["total_payments"] = totals.Int64("total_payments")

	byType, err := r.Query(ctx, `SELECT payment_type, SUM(amount) AS total, COUNT(*) AS count
		FROM fee_payments
		WHERE status = 'Paid'`+w.SQL()+`
		GROUP BY payment_type
		ORDER BY total DESC`, w.Args()...)
	if err != nil {
		return nil, err
	}
	stats["by_payment_type"] = byType

	trend, err := r.Query(ctx, `SELECT DATE_FORMAT(payment_date, '%Y-%m') AS month,
			SUM(amount) AS total_collection,
			COUNT(*) AS payment_count
		FROM fee_payments
		WHERE status = 'Paid'`+w.SQL()+`
		GROUP BY DATE_FORMAT(payment_date, '%Y-%m')
		ORDER BY month DESC`, w.Args()...)
	if err != nil {
		return nil, err
	}
	stats["monthly_trend"] = trend

	pending, err := r.QueryOne(ctx, `SELECT COUNT(*) AS pending_students,
			COALESCE(SUM(pending_amount), 0) AS total_pending
		FROM (
			SELECT s.id, (r.fees_per_month - COALESCE(SUM(f.amount), 0)) AS pending_amount
			FROM student_registration s
			LEFT JOIN rooms r ON s.room_id = r.id
			LEFT JOIN fee_payments f ON s.id = f.student_id AND f.status = 'Paid'
			WHERE s.status = 'Active'
			GROUP BY s.id, r.fees_per_month
			HAVING pending_amount > 0
		) AS pending`)
	if err != nil {
		return nil, err
	}
	stats["pending_students"] = pending.Int64("pending_students")
	stats["total_pending"] = pending.Float64("total_pending")

	return stats, nil
}
