package repository

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/navpurush/hostelms/internal/utils"
)

func newMockAdminRepo(t *testing.T) (*AdminRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAdminRepo(db), mock
}

func adminRowFixture(t *testing.T, password string, status int64) *sqlmock.Rows {
	t.Helper()
	hash, err := utils.HashPassword(password, 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return sqlmock.NewRows([]string{"id", "username", "email", "password", "role", "status"}).
		AddRow(int64(7), []byte("warden"), []byte("warden@hostel.test"), []byte(hash), []byte("admin"), status)
}

func TestAuthenticateNormalizesEmail(t *testing.T) {
	r, mock := newMockAdminRepo(t)

	mock.ExpectQuery(`SELECT \* FROM admin WHERE email = \? LIMIT 1`).
		WithArgs("warden@hostel.test").
		WillReturnRows(adminRowFixture(t, "let-me-in", 1))

	row, err := r.Authenticate(context.Background(), "  Warden@Hostel.Test ", "let-me-in")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if row.Int64("id") != 7 {
		t.Errorf("id = %d, want 7", row.Int64("id"))
	}
	expectationsMet(t, mock)
}

// A login identifier without '@' resolves by username.
func TestAuthenticateByUsername(t *testing.T) {
	r, mock := newMockAdminRepo(t)

	mock.ExpectQuery(`SELECT \* FROM admin WHERE username = \? LIMIT 1`).
		WithArgs("warden").
		WillReturnRows(adminRowFixture(t, "let-me-in", 1))

	row, err := r.Authenticate(context.Background(), "warden", "let-me-in")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if row.String("username") != "warden" {
		t.Errorf("username = %q, want warden", row.String("username"))
	}
	expectationsMet(t, mock)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	r, mock := newMockAdminRepo(t)

	mock.ExpectQuery(`SELECT \* FROM admin WHERE email = \? LIMIT 1`).
		WithArgs("warden@hostel.test").
		WillReturnRows(adminRowFixture(t, "let-me-in", 1))

	_, err := r.Authenticate(context.Background(), "warden@hostel.test", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	expectationsMet(t, mock)
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	r, mock := newMockAdminRepo(t)

	mock.ExpectQuery(`SELECT \* FROM admin WHERE email = \? LIMIT 1`).
		WithArgs("warden@hostel.test").
		WillReturnRows(adminRowFixture(t, "let-me-in", 0))

	_, err := r.Authenticate(context.Background(), "warden@hostel.test", "let-me-in")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	expectationsMet(t, mock)
}

// Unknown account and bad password are indistinguishable to the caller.
func TestAuthenticateUnknownEmail(t *testing.T) {
	r, mock := newMockAdminRepo(t)

	mock.ExpectQuery(`SELECT \* FROM admin WHERE email = \? LIMIT 1`).
		WithArgs("ghost@hostel.test").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := r.Authenticate(context.Background(), "ghost@hostel.test", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	expectationsMet(t, mock)
}

func TestRecordLogoutClosesLatestOpenSession(t *testing.T) {
	r, mock := newMockAdminRepo(t)

	mock.ExpectExec(`UPDATE admin_log SET logout_time = UTC_TIMESTAMP\(\), session_duration = TIMESTAMPDIFF\(MINUTE, login_time, UTC_TIMESTAMP\(\)\) WHERE admin_id = \? AND logout_time IS NULL ORDER BY login_time DESC LIMIT 1`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	closed, err := r.RecordLogout(context.Background(), 7)
	if err != nil {
		t.Fatalf("RecordLogout: %v", err)
	}
	if !closed {
		t.Error("closed = false, want true")
	}
	expectationsMet(t, mock)
}

func TestRecordLogoutNoOpenSession(t *testing.T) {
	r, mock := newMockAdminRepo(t)

	mock.ExpectExec(`WHERE admin_id = \? AND logout_time IS NULL`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	closed, err := r.RecordLogout(context.Background(), 7)
	if err != nil {
		t.Fatalf("RecordLogout: %v", err)
	}
	if closed {
		t.Error("closed = true, want false")
	}
	expectationsMet(t, mock)
}

func TestEmailExistsExcludesAccount(t *testing.T) {
	r, mock := newMockAdminRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM admin WHERE email = \? AND id != \?`).
		WithArgs("warden@hostel.test", int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))

	exists, err := r.EmailExists(context.Background(), "warden@hostel.test", 7)
	if err != nil {
		t.Fatalf("EmailExists: %v", err)
	}
	if exists {
		t.Error("exists = true, want false when only the excluded account matches")
	}
	expectationsMet(t, mock)
}

func TestEmailExists(t *testing.T) {
	r, mock := newMockAdminRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM admin WHERE email = \?`).
		WithArgs("warden@hostel.test").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))

	exists, err := r.EmailExists(context.Background(), "warden@hostel.test", 0)
	if err != nil {
		t.Fatalf("EmailExists: %v", err)
	}
	if !exists {
		t.Error("exists = false, want true")
	}
	expectationsMet(t, mock)
}
