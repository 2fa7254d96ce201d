package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/navpurush/hostelms/internal/repository"
)

func newMockRoomHandler(t *testing.T) (*RoomHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRoomHandler(repository.NewRoomRepo(db)), mock
}

func jsonRequest(t *testing.T, method, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// Body keys are not column names: only the fields the update request
// declares can reach the statement, whatever else the body carries.
func TestRoomUpdateDropsUnknownBodyKeys(t *testing.T) {
	h, mock := newMockRoomHandler(t)

	mock.ExpectExec("UPDATE rooms SET status = ? WHERE id = ?").
		WithArgs("Maintenance", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := jsonRequest(t, http.MethodPut,
		`{"status":"Maintenance","status = 'Hacked', room_no":"x","id":99}`)
	c.SetParamNames("id")
	c.SetParamValues("5")

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

func TestRoomUpdateEmptyBody(t *testing.T) {
	h, mock := newMockRoomHandler(t)

	c, rec := jsonRequest(t, http.MethodPut, `{"unknown_column":"x"}`)
	c.SetParamNames("id")
	c.SetParamValues("5")

	if err := h.Update(c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// Floor zero is the ground floor and must not be skipped as a zero value.
func TestRoomUpdateSetsFloorZero(t *testing.T) {
	h, mock := newMockRoomHandler(t)

	mock.ExpectExec("UPDATE rooms SET floor_number = ? WHERE id = ?").
		WithArgs(int64(0), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := jsonRequest(t, http.MethodPut, `{"floor":0}`)
	c.SetParamNames("id")
	c.SetParamValues("5")

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
