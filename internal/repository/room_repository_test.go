package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/navpurush/hostelms/internal/utils"
)

func newMockRoomRepo(t *testing.T) (*RoomRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRoomRepo(db), mock
}

func TestWithOccupancyDerivesSeats(t *testing.T) {
	r, mock := newMockRoomRepo(t)

	mock.ExpectQuery(`COUNT\(s\.id\) AS current_occupants, \(r\.seater - COUNT\(s\.id\)\) AS available_seats`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_no", "seater", "current_occupants", "available_seats"}).
			AddRow(int64(3), []byte("A-101"), int64(4), int64(3), int64(1)))

	row, err := r.WithOccupancy(context.Background(), 3)
	if err != nil {
		t.Fatalf("WithOccupancy: %v", err)
	}
	want := utils.AvailableSeats(row.Int64("seater"), row.Int64("current_occupants"))
	if got := row.Int64("available_seats"); got != want {
		t.Errorf("available_seats = %d, derived %d", got, want)
	}
	expectationsMet(t, mock)
}

func TestListWithOccupancyAvailableOnly(t *testing.T) {
	r, mock := newMockRoomRepo(t)

	mock.ExpectQuery(`GROUP BY r\.id HAVING available_seats > 0 ORDER BY r\.block_name, r\.room_no`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "available_seats"}).
			AddRow(int64(1), int64(2)))

	rows, err := r.ListWithOccupancy(context.Background(), RoomFilter{AvailableOnly: true})
	if err != nil {
		t.Fatalf("ListWithOccupancy: %v", err)
	}
	for _, row := range rows {
		if row.Int64("available_seats") <= 0 {
			t.Errorf("full room %d leaked through the availability filter", row.Int64("id"))
		}
	}
	expectationsMet(t, mock)
}

func TestListWithOccupancyAppliesFilters(t *testing.T) {
	r, mock := newMockRoomRepo(t)

	// Clauses render in the order they were added: block before floor.
	mock.ExpectQuery(`WHERE 1=1 AND r\.block_name = \? AND r\.floor_number = \? GROUP BY r\.id ORDER BY`).
		WithArgs("A", int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	if _, err := r.ListWithOccupancy(context.Background(), RoomFilter{Block: "A", Floor: 2}); err != nil {
		t.Fatalf("ListWithOccupancy: %v", err)
	}
	expectationsMet(t, mock)
}

func TestAvailableRestrictsStatusAndSeats(t *testing.T) {
	r, mock := newMockRoomRepo(t)

	mock.ExpectQuery(`WHERE r\.status = 'Available' AND r\.seater = \? GROUP BY r\.id HAVING available_seats > 0`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_no"}).
			AddRow(int64(9), []byte("B-204")))

	rows, err := r.Available(context.Background(), 2, "")
	if err != nil {
		t.Fatalf("Available: %v", err)
	}
	if len(rows) != 1 || rows[0].String("room_no") != "B-204" {
		t.Errorf("rows = %v, want the single B-204 row", rows)
	}
	expectationsMet(t, mock)
}

func TestMaintenanceStatusClassification(t *testing.T) {
	r, mock := newMockRoomRepo(t)

	mock.ExpectQuery(`END AS occupancy_status`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "occupancy_status"}).
			AddRow(int64(5), []byte("Partially Occupied")))

	row, err := r.MaintenanceStatus(context.Background(), 5)
	if err != nil {
		t.Fatalf("MaintenanceStatus: %v", err)
	}
	if got := row.String("occupancy_status"); got != "Partially Occupied" {
		t.Errorf("occupancy_status = %q", got)
	}
	expectationsMet(t, mock)
}
