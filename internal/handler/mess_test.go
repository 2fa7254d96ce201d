package handler

import (
	"net/http"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/navpurush/hostelms/internal/repository"
)

func newMockMessHandler(t *testing.T) (*MessHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewMessHandler(repository.NewMessRepo(db)), mock
}

// The creator stamp and arbitrary body keys stay out of the update.
func TestMessUpdateDropsUnknownBodyKeys(t *testing.T) {
	h, mock := newMockMessHandler(t)

	mock.ExpectExec("UPDATE mess_activities SET menu_items = ? WHERE id = ?").
		WithArgs("Rice, Dal", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := jsonRequest(t, http.MethodPut,
		`{"menu_items":"Rice, Dal","created_by":99,"remarks = 'x', id":1}`)
	c.SetParamNames("id")
	c.SetParamValues("3")

	if err := h.Update(c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
