package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/navpurush/hostelms/internal/repository"
)

func newMockStudentHandler(t *testing.T) (*StudentHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStudentHandler(repository.NewStudentRepo(db), repository.NewRoomRepo(db)), mock
}

func getRequest(t *testing.T, target string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// order_by values map onto fixed sort expressions; anything outside the
// map never reaches SQL.
func TestStudentListRejectsUnknownSort(t *testing.T) {
	h, mock := newMockStudentHandler(t)

	c, rec := getRequest(t, "/?order_by=(SELECT+password+FROM+admin+LIMIT+1)")

	if err := h.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestStudentListMapsSortKey(t *testing.T) {
	h, mock := newMockStudentHandler(t)

	mock.ExpectQuery(`ORDER BY s\.first_name, s\.last_name$`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name"}).
			AddRow(int64(1), []byte("Asha")))

	c, rec := getRequest(t, "/?order_by=name")

	if err := h.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// Same guarantee as the room update: body keys never become column names,
// and room_id stays out of the partial update entirely.
func TestStudentUpdateDropsUnknownBodyKeys(t *testing.T) {
	h, mock := newMockStudentHandler(t)

	mock.ExpectExec(`^UPDATE student_registration SET first_name = \? WHERE id = \?$`).
		WithArgs("Asha", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := jsonRequest(t, http.MethodPut,
		`{"first_name":"Asha","room_id":9,"email = (SELECT 1), city":"z"}`)
	c.SetParamNames("id")
	c.SetParamValues("4")

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

func TestStudentUpdateChecksEmailUniqueness(t *testing.T) {
	h, mock := newMockStudentHandler(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM student_registration WHERE email = \? AND id != \?`).
		WithArgs("asha@hostel.test", int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))

	c, rec := jsonRequest(t, http.MethodPut, `{"email":"Asha@Hostel.Test"}`)
	c.SetParamNames("id")
	c.SetParamValues("4")

	if err := h.Update(c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
