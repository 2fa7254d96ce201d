package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newMockVisitorRepo(t *testing.T) (*VisitorRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewVisitorRepo(db), mock
}

func TestRecordEntryDefaults(t *testing.T) {
	r, mock := newMockVisitorRepo(t)

	mock.ExpectExec(`INSERT INTO visitor_log \(entry_time, status, student_id, visitor_name\)`).
		WithArgs(sqlmock.AnyArg(), "Inside", int64(4), "Meera Nair").
		WillReturnResult(sqlmock.NewResult(21, 1))

	id, err := r.RecordEntry(context.Background(), map[string]any{
		"visitor_name": "Meera Nair",
		"student_id":   int64(4),
	})
	if err != nil {
		t.Fatalf("RecordEntry: %v", err)
	}
	if id != 21 {
		t.Errorf("id = %d, want 21", id)
	}
	expectationsMet(t, mock)
}

func TestRecordEntryLeavesCallerMapAlone(t *testing.T) {
	r, mock := newMockVisitorRepo(t)

	mock.ExpectExec(`INSERT INTO visitor_log`).
		WillReturnResult(sqlmock.NewResult(22, 1))

	fields := map[string]any{
		"visitor_name": "Meera Nair",
		"student_id":   int64(4),
	}
	if _, err := r.RecordEntry(context.Background(), fields); err != nil {
		t.Fatalf("RecordEntry: %v", err)
	}
	if len(fields) != 2 {
		t.Errorf("caller map grew to %d keys: %v", len(fields), fields)
	}
	for _, k := range []string{"entry_time", "status"} {
		if _, ok := fields[k]; ok {
			t.Errorf("default %q leaked into the caller's map", k)
		}
	}
	expectationsMet(t, mock)
}

func TestRecordExitDerivesDuration(t *testing.T) {
	r, mock := newMockVisitorRepo(t)

	entry := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	exit := entry.Add(125 * time.Second) // rounds to 2 minutes

	mock.ExpectQuery(`SELECT entry_time FROM visitor_log WHERE id = \?`).
		WithArgs(int64(21)).
		WillReturnRows(sqlmock.NewRows([]string{"entry_time"}).AddRow(entry))

	// Sorted update columns: duration_minutes, exit_time, status.
	mock.ExpectExec(`UPDATE visitor_log SET duration_minutes = \?, exit_time = \?, status = \? WHERE id = \?`).
		WithArgs(int64(2), "2026-01-05 10:02:05", "Exited", int64(21)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := r.RecordExit(context.Background(), 21, exit, "")
	if err != nil {
		t.Fatalf("RecordExit: %v", err)
	}
	if !updated {
		t.Error("updated = false, want true")
	}
	expectationsMet(t, mock)
}

func TestRecordExitWithRemarks(t *testing.T) {
	r, mock := newMockVisitorRepo(t)

	entry := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	exit := entry.Add(30 * time.Minute)

	mock.ExpectQuery(`SELECT entry_time FROM visitor_log WHERE id = \?`).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"entry_time"}).AddRow(entry))

	mock.ExpectExec(`UPDATE visitor_log SET duration_minutes = \?, exit_time = \?, security_remarks = \?, status = \? WHERE id = \?`).
		WithArgs(int64(30), "2026-01-05 10:30:00", "bag checked", "Exited", int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := r.RecordExit(context.Background(), 8, exit, "bag checked")
	if err != nil {
		t.Fatalf("RecordExit: %v", err)
	}
	if !updated {
		t.Error("updated = false, want true")
	}
	expectationsMet(t, mock)
}

// A missing visit fails the entry-time read and writes nothing.
func TestRecordExitMissingVisit(t *testing.T) {
	r, mock := newMockVisitorRepo(t)

	mock.ExpectQuery(`SELECT entry_time FROM visitor_log WHERE id = \?`).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"entry_time"}))

	_, err := r.RecordExit(context.Background(), 404, time.Now().UTC(), "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	expectationsMet(t, mock)
}

func TestCurrentVisitorsFiltersInside(t *testing.T) {
	r, mock := newMockVisitorRepo(t)

	mock.ExpectQuery(`WHERE v\.status = 'Inside' ORDER BY v\.entry_time DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "visitor_name", "status"}).
			AddRow(int64(1), []byte("Meera Nair"), []byte("Inside")))

	rows, err := r.CurrentVisitors(context.Background())
	if err != nil {
		t.Fatalf("CurrentVisitors: %v", err)
	}
	if len(rows) != 1 || rows[0].String("status") != "Inside" {
		t.Errorf("rows = %v, want one Inside row", rows)
	}
	expectationsMet(t, mock)
}

func TestSecurityAlertsDefaultThreshold(t *testing.T) {
	r, mock := newMockVisitorRepo(t)

	mock.ExpectQuery(`ORDER BY hours_inside DESC`).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "hours_inside"}).
			AddRow(int64(2), []byte("5.50")))

	rows, err := r.SecurityAlerts(context.Background(), 0)
	if err != nil {
		t.Fatalf("SecurityAlerts: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len = %d, want 1", len(rows))
	}
	if got := rows[0].Float64("hours_inside"); got != 5.5 {
		t.Errorf("hours_inside = %v, want 5.5", got)
	}
	expectationsMet(t, mock)
}
