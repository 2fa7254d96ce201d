package repository

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newMockBase(t *testing.T, table Table) (*Base, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewBase(db, table), mock
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetByID(t *testing.T) {
	b, mock := newMockBase(t, Table{Name: "rooms"})

	mock.ExpectQuery("SELECT * FROM rooms WHERE id = ? LIMIT 1").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_no"}).AddRow(int64(7), []byte("G-101")))

	row, err := b.GetByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got := row.String("room_no"); got != "G-101" {
		t.Errorf("room_no = %q, want G-101", got)
	}
	if got := row.Int64("id"); got != 7 {
		t.Errorf("id = %d, want 7", got)
	}
	expectationsMet(t, mock)
}

func TestGetByIDNotFound(t *testing.T) {
	b, mock := newMockBase(t, Table{Name: "rooms"})

	mock.ExpectQuery("SELECT * FROM rooms WHERE id = ? LIMIT 1").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := b.GetByID(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	expectationsMet(t, mock)
}

func TestInsertSortsColumns(t *testing.T) {
	b, mock := newMockBase(t, Table{Name: "rooms"})

	// Column order must be alphabetical regardless of map iteration.
	mock.ExpectExec("INSERT INTO rooms (room_no, seater, status) VALUES (?, ?, ?)").
		WithArgs("G-101", int64(3), "Available").
		WillReturnResult(sqlmock.NewResult(42, 1))

	id, err := b.Insert(context.Background(), map[string]any{
		"status":  "Available",
		"room_no": "G-101",
		"seater":  int64(3),
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id != 42 {
		t.Errorf("id = %d, want 42", id)
	}
	expectationsMet(t, mock)
}

func TestInsertDuplicate(t *testing.T) {
	b, mock := newMockBase(t, Table{Name: "fee_payments"})

	mock.ExpectExec("INSERT INTO fee_payments (receipt_no) VALUES (?)").
		WithArgs("RCPT202601050001").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))

	_, err := b.Insert(context.Background(), map[string]any{"receipt_no": "RCPT202601050001"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
	expectationsMet(t, mock)
}

func TestUpdateReportsSingleRow(t *testing.T) {
	b, mock := newMockBase(t, Table{Name: "rooms"})

	mock.ExpectExec("UPDATE rooms SET seater = ?, status = ? WHERE id = ?").
		WithArgs(int64(2), "Maintenance", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := b.Update(context.Background(), 5, map[string]any{
		"status": "Maintenance",
		"seater": int64(2),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated {
		t.Error("updated = false, want true")
	}
	expectationsMet(t, mock)
}

func TestUpdateMissingRow(t *testing.T) {
	b, mock := newMockBase(t, Table{Name: "rooms"})

	mock.ExpectExec("UPDATE rooms SET status = ? WHERE id = ?").
		WithArgs("Closed", int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	updated, err := b.Update(context.Background(), 404, map[string]any{"status": "Closed"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated {
		t.Error("updated = true, want false")
	}
	expectationsMet(t, mock)
}

func TestDelete(t *testing.T) {
	b, mock := newMockBase(t, Table{Name: "courses"})

	mock.ExpectExec("DELETE FROM courses WHERE id = ?").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := b.Delete(context.Background(), 3)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !deleted {
		t.Error("deleted = false, want true")
	}
	expectationsMet(t, mock)
}

func TestFindRendersSortedConditions(t *testing.T) {
	b, mock := newMockBase(t, Table{Name: "student_registration"})

	mock.ExpectQuery("SELECT * FROM student_registration WHERE room_id = ? AND status = ? ORDER BY first_name LIMIT 5").
		WithArgs(int64(2), "Active").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name"}).
			AddRow(int64(1), []byte("Asha")).
			AddRow(int64(2), []byte("Ravi")))

	rows, err := b.Find(context.Background(), map[string]any{
		"status":  "Active",
		"room_id": int64(2),
	}, "first_name", 5)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len = %d, want 2", len(rows))
	}
	if got := rows[1].String("first_name"); got != "Ravi" {
		t.Errorf("second row = %q, want Ravi", got)
	}
	expectationsMet(t, mock)
}

func TestFindOneNotFound(t *testing.T) {
	b, mock := newMockBase(t, Table{Name: "admin"})

	mock.ExpectQuery("SELECT * FROM admin WHERE email = ? LIMIT 1").
		WithArgs("missing@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := b.FindOne(context.Background(), map[string]any{"email": "missing@example.com"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	expectationsMet(t, mock)
}

func TestCount(t *testing.T) {
	b, mock := newMockBase(t, Table{Name: "visitor_log"})

	mock.ExpectQuery("SELECT COUNT(*) FROM visitor_log WHERE status = ?").
		WithArgs("Inside").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(4)))

	n, err := b.Count(context.Background(), map[string]any{"status": "Inside"})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 4 {
		t.Errorf("n = %d, want 4", n)
	}
	expectationsMet(t, mock)
}

func TestGetAllOrderAndLimit(t *testing.T) {
	b, mock := newMockBase(t, Table{Name: "states"})

	mock.ExpectQuery("SELECT * FROM states ORDER BY state_name LIMIT 2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "state_name"}).
			AddRow(int64(1), []byte("Assam")).
			AddRow(int64(2), []byte("Bihar")))

	rows, err := b.GetAll(context.Background(), "state_name", 2)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len = %d, want 2", len(rows))
	}
	expectationsMet(t, mock)
}

func TestPrimaryKeyDefaultsToID(t *testing.T) {
	b := NewBase(nil, Table{Name: "rooms"})
	if pk := b.Table().PrimaryKey; pk != "id" {
		t.Errorf("primary key = %q, want id", pk)
	}
}

func TestBeginTx(t *testing.T) {
	b, mock := newMockBase(t, Table{Name: "rooms"})

	mock.ExpectBegin()
	mock.ExpectRollback()

	tx, err := b.BeginTx(context.Background())
	if err != nil {
		t.Fatalf("BeginTx: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	expectationsMet(t, mock)
}
