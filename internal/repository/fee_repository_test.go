package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/navpurush/hostelms/internal/utils"
)

var errDuplicateFixture = errors.New("Error 1062 (23000): Duplicate entry 'RCPT202601050042' for key 'uq_receipt_no'")

// newMockFeeRepo uses the default regexp matcher so tests can assert on the
// significant fragment of the larger report queries.
func newMockFeeRepo(t *testing.T) (*FeeRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewFeeRepo(db), mock
}

func TestGenerateReceiptNumber(t *testing.T) {
	r, mock := newMockFeeRepo(t)
	day := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM fee_payments WHERE receipt_no LIKE \?`).
		WithArgs("RCPT20260105%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))

	got, err := r.GenerateReceiptNumber(context.Background(), day)
	if err != nil {
		t.Fatalf("GenerateReceiptNumber: %v", err)
	}
	if got != "RCPT202601050008" {
		t.Errorf("receipt = %q, want RCPT202601050008", got)
	}
	expectationsMet(t, mock)
}

// Two callers reading the same count compute the same candidate. The
// generator makes no uniqueness promise of its own; the unique index on
// receipt_no decides the race at insert time.
func TestGenerateReceiptNumberSameCountSameCandidate(t *testing.T) {
	r, mock := newMockFeeRepo(t)
	day := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM fee_payments WHERE receipt_no LIKE \?`).
			WithArgs("RCPT20260105%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))
	}

	first, err := r.GenerateReceiptNumber(context.Background(), day)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := r.GenerateReceiptNumber(context.Background(), day)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first != second {
		t.Errorf("candidates differ: %q vs %q", first, second)
	}
	if first != utils.ReceiptNumber(day, 4) {
		t.Errorf("candidate = %q, want %q", first, utils.ReceiptNumber(day, 4))
	}
	expectationsMet(t, mock)
}

func TestRecordPaymentDefaults(t *testing.T) {
	r, mock := newMockFeeRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM fee_payments WHERE receipt_no LIKE \?`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectExec(`INSERT INTO fee_payments \(amount, payment_date, receipt_no, status, student_id\)`).
		WithArgs(2500.0, sqlmock.AnyArg(), sqlmock.AnyArg(), "Paid", int64(12)).
		WillReturnResult(sqlmock.NewResult(9, 1))

	id, err := r.RecordPayment(context.Background(), map[string]any{
		"student_id": int64(12),
		"amount":     2500.0,
	})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if id != 9 {
		t.Errorf("id = %d, want 9", id)
	}
	expectationsMet(t, mock)
}

// The defaults land in a private copy; the caller's map stays untouched
// and can be reused.
func TestRecordPaymentLeavesCallerMapAlone(t *testing.T) {
	r, mock := newMockFeeRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM fee_payments WHERE receipt_no LIKE \?`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectExec(`INSERT INTO fee_payments`).
		WillReturnResult(sqlmock.NewResult(9, 1))

	fields := map[string]any{
		"student_id": int64(12),
		"amount":     2500.0,
	}
	if _, err := r.RecordPayment(context.Background(), fields); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if len(fields) != 2 {
		t.Errorf("caller map grew to %d keys: %v", len(fields), fields)
	}
	for _, k := range []string{"receipt_no", "payment_date", "status"} {
		if _, ok := fields[k]; ok {
			t.Errorf("default %q leaked into the caller's map", k)
		}
	}
	expectationsMet(t, mock)
}

func TestRecordPaymentKeepsExplicitReceipt(t *testing.T) {
	r, mock := newMockFeeRepo(t)

	// No count query: the caller supplied the receipt number.
	mock.ExpectExec(`INSERT INTO fee_payments \(amount, payment_date, receipt_no, status, student_id\)`).
		WithArgs(1000.0, "2026-01-05", "RCPT202601050042", "Paid", int64(3)).
		WillReturnResult(sqlmock.NewResult(10, 1))

	if _, err := r.RecordPayment(context.Background(), map[string]any{
		"student_id":   int64(3),
		"amount":       1000.0,
		"receipt_no":   "RCPT202601050042",
		"payment_date": "2026-01-05",
	}); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	expectationsMet(t, mock)
}

func TestRecordPaymentReceiptCollision(t *testing.T) {
	r, mock := newMockFeeRepo(t)

	mock.ExpectExec(`INSERT INTO fee_payments`).
		WillReturnError(errDuplicateFixture)

	_, err := r.RecordPayment(context.Background(), map[string]any{
		"student_id":   int64(3),
		"amount":       1000.0,
		"receipt_no":   "RCPT202601050042",
		"payment_date": "2026-01-05",
		"status":       "Paid",
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
	expectationsMet(t, mock)
}

func TestPendingFeesReportStatusBranches(t *testing.T) {
	cases := []struct {
		status     string
		wantHaving string
	}{
		{"Pending", `HAVING pending_amount > 0`},
		{"Paid", `HAVING pending_amount <= 0`},
	}
	for _, c := range cases {
		r, mock := newMockFeeRepo(t)
		mock.ExpectQuery(c.wantHaving).
			WillReturnRows(sqlmock.NewRows([]string{"id", "pending_amount"}).
				AddRow(int64(1), []byte("1500.00")))

		rows, err := r.PendingFeesReport(context.Background(), PendingFilter{PaymentStatus: c.status})
		if err != nil {
			t.Fatalf("status %q: %v", c.status, err)
		}
		if len(rows) != 1 {
			t.Fatalf("status %q: len = %d, want 1", c.status, len(rows))
		}
		expectationsMet(t, mock)
	}
}

func TestPendingFeesReportNoStatusHasNoHaving(t *testing.T) {
	r, mock := newMockFeeRepo(t)

	// Anchor on ORDER BY directly after GROUP BY: no HAVING clause between.
	mock.ExpectQuery(`GROUP BY s\.id, c\.course_short_name, r\.room_no, r\.fees_per_month ORDER BY pending_amount DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	if _, err := r.PendingFeesReport(context.Background(), PendingFilter{}); err != nil {
		t.Fatalf("PendingFeesReport: %v", err)
	}
	expectationsMet(t, mock)
}

func TestPendingFeesReportAppliesFilters(t *testing.T) {
	r, mock := newMockFeeRepo(t)

	mock.ExpectQuery(`s\.course_id = \? AND s\.room_id = \?`).
		WithArgs(int64(2), int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := r.PendingFeesReport(context.Background(), PendingFilter{
		CourseID: 2,
		RoomID:   5,
	}); err != nil {
		t.Fatalf("PendingFeesReport: %v", err)
	}
	expectationsMet(t, mock)
}

func TestStudentFeeSummaryDerivesPending(t *testing.T) {
	r, mock := newMockFeeRepo(t)

	mock.ExpectQuery(`pending_amount`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "fees_per_month", "total_paid", "pending_amount"}).
			AddRow(int64(7), []byte("5000.00"), []byte("3000.00"), []byte("2000.00")))

	row, err := r.StudentFeeSummary(context.Background(), 7)
	if err != nil {
		t.Fatalf("StudentFeeSummary: %v", err)
	}
	want := utils.PendingAmount(row.Float64("fees_per_month"), row.Float64("total_paid"))
	if got := row.Float64("pending_amount"); got != want {
		t.Errorf("pending_amount = %v, derived %v", got, want)
	}
	expectationsMet(t, mock)
}
