package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/navpurush/hostelms/internal/utils"
)

// ErrInvalidCredentials is returned by Authenticate when the account is
// unknown or inactive, or the password does not match. The
// three cases are deliberately indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AdminRepo manages the admin and admin_log tables: accounts, roles and
// login sessions. At most one open admin_log row exists per admin at a time;
// that invariant is enforced by the latest-open-row update in RecordLogout,
// not by a constraint.
type AdminRepo struct {
	*Base
}

// NewAdminRepo binds an AdminRepo to the pool.
func NewAdminRepo(db *sql.DB) *AdminRepo {
	return &AdminRepo{NewBase(db, Table{Name: "admin"})}
}

// Authenticate verifies an admin's credentials and returns the account
// row. The login identifier is an email when it contains '@', a username
// otherwise. Passwords are stored as bcrypt hashes; unknown account,
// inactive account and wrong password are indistinguishable to the caller.
func (r *AdminRepo) Authenticate(ctx context.Context, login, password string) (Row, error) {
	login = strings.TrimSpace(login)
	var (
		row Row
		err error
	)
	if strings.Contains(login, "@") {
		row, err = r.GetByEmail(ctx, login)
	} else {
		row, err = r.GetByUsername(ctx, login)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if row.Int64("status") != 1 {
		return nil, ErrInvalidCredentials
	}
	if !utils.VerifyPassword(row.String("password"), password) {
		return nil, ErrInvalidCredentials
	}
	return row, nil
}

// GetByEmail fetches an admin account by normalized email.
func (r *AdminRepo) GetByEmail(ctx context.Context, email string) (Row, error) {
	return r.FindOne(ctx, map[string]any{"email": strings.ToLower(strings.TrimSpace(email))})
}

// GetByUsername fetches an admin account by username.
func (r *AdminRepo) GetByUsername(ctx context.Context, username string) (Row, error) {
	return r.FindOne(ctx, map[string]any{"username": username})
}

// ListWithRoles returns every account without the password column, newest
// registrations first.
func (r *AdminRepo) ListWithRoles(ctx context.Context) ([]Row, error) {
	return r.Query(ctx, `SELECT id, username, email, role, status, reg_date, updation_date
		FROM admin ORDER BY reg_date DESC`)
}

// WithLoginHistory returns one admin together with aggregate login counters.
func (r *AdminRepo) WithLoginHistory(ctx context.Context, adminID int64) (Row, error) {
	return r.QueryOne(ctx, `SELECT a.*, COUNT(al.id) AS login_count, MAX(al.login_time) AS last_login
		FROM admin a
		LEFT JOIN admin_log al ON a.id = al.admin_id
		WHERE a.id = ?
		GROUP BY a.id`, adminID)
}

// RecordLogin opens a session row in admin_log and returns its id.
func (r *AdminRepo) RecordLogin(ctx context.Context, adminID int64, ip string) (int64, error) {
	res, err := r.DB().ExecContext(ctx,
		"INSERT INTO admin_log (admin_id, ip, login_time) VALUES (?, ?, UTC_TIMESTAMP())",
		adminID, ip)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecordLogout closes the latest open session row for the admin, stamping
// the logout time and the session duration in minutes. Returns false when
// no open session exists.
func (r *AdminRepo) RecordLogout(ctx context.Context, adminID int64) (bool, error) {
	return r.Exec(ctx, `UPDATE admin_log
		SET logout_time = UTC_TIMESTAMP(),
		    session_duration = TIMESTAMPDIFF(MINUTE, login_time, UTC_TIMESTAMP())
		WHERE admin_id = ? AND logout_time IS NULL
		ORDER BY login_time DESC
		LIMIT 1`, adminID)
}

// LoginHistory returns the most recent session rows for an admin.
func (r *AdminRepo) LoginHistory(ctx context.Context, adminID int64, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 10
	}
	return r.Query(ctx, `SELECT * FROM admin_log WHERE admin_id = ?
		ORDER BY login_time DESC LIMIT ?`, adminID, limit)
}

// SessionInfo returns the admin joined with their latest login row.
func (r *AdminRepo) SessionInfo(ctx context.Context, adminID int64) (Row, error) {
	return r.QueryOne(ctx, `SELECT a.*, al.login_time, al.ip
		FROM admin a
		LEFT JOIN admin_log al ON a.id = al.admin_id
		WHERE a.id = ?
		  AND al.login_time = (SELECT MAX(login_time) FROM admin_log WHERE admin_id = ?)`,
		adminID, adminID)
}

// AdminLogFilter narrows ActivityLog. Zero values mean "no filter"; dates
// are YYYY-MM-DD strings compared against the login day.
type AdminLogFilter struct {
	AdminID  int64
	DateFrom string
	DateTo   string
}

// ActivityLog lists admin_log rows joined with account info, newest first.
func (r *AdminRepo) ActivityLog(ctx context.Context, f AdminLogFilter) ([]Row, error) {
	var w Clauses
	w.AndIf(f.AdminID != 0, "al.admin_id = ?", f.AdminID)
	w.AndIf(f.DateFrom != "", "DATE(al.login_time) >= ?", f.DateFrom)
	w.AndIf(f.DateTo != "", "DATE(al.login_time) <= ?", f.DateTo)
	q := `SELECT al.*, a.username, a.email
		FROM admin_log al
		LEFT JOIN admin a ON al.admin_id = a.id
		WHERE 1=1` + w.SQL() + " ORDER BY al.login_time DESC"
	return r.Query(ctx, q, w.Args()...)
}

// ByRole lists active accounts with the given role.
func (r *AdminRepo) ByRole(ctx context.Context, role string) ([]Row, error) {
	return r.Query(ctx, "SELECT * FROM admin WHERE role = ? AND status = 1 ORDER BY username", role)
}

// Search matches the term against username, email and role.
func (r *AdminRepo) Search(ctx context.Context, term string) ([]Row, error) {
	p := "%" + term + "%"
	return r.Query(ctx, `SELECT * FROM admin
		WHERE username LIKE ? OR email LIKE ? OR role LIKE ?
		ORDER BY username`, p, p, p)
}

// EmailExists reports whether another account already uses the email.
func (r *AdminRepo) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	q := "SELECT COUNT(*) FROM admin WHERE email = ?"
	args := []any{email}
	if excludeID != 0 {
		q += " AND id != ?"
		args = append(args, excludeID)
	}
	var n int64
	if err := r.DB().QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// UsernameExists reports whether another account already uses the username.
func (r *AdminRepo) UsernameExists(ctx context.Context, username string, excludeID int64) (bool, error) {
	q := "SELECT COUNT(*) FROM admin WHERE username = ?"
	args := []any{username}
	if excludeID != 0 {
		q += " AND id != ?"
		args = append(args, excludeID)
	}
	var n int64
	if err := r.DB().QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateStatus activates (1) or deactivates (0) an account.
func (r *AdminRepo) UpdateStatus(ctx context.Context, id int64, status int) (bool, error) {
	return r.Update(ctx, id, map[string]any{"status": status})
}

// UpdateRole changes an account's role.
func (r *AdminRepo) UpdateRole(ctx context.Context, id int64, role string) (bool, error) {
	return r.Update(ctx, id, map[string]any{"role": role})
}

// ChangePassword stores a fresh bcrypt hash for the account.
func (r *AdminRepo) ChangePassword(ctx context.Context, id int64, plain string, cost int) (bool, error) {
	hash, err := utils.HashPassword(plain, cost)
	if err != nil {
		return false, err
	}
	return r.Update(ctx, id, map[string]any{"password": hash})
}

// DashboardStats assembles the admin dashboard counters: totals, activity
// in the last day and the role distribution.
func (r *AdminRepo) DashboardStats(ctx context.Context) (map[string]any, error) {
	stats := map[string]any{}

	total, err := r.Count(ctx, nil)
	if err != nil {
		return nil, err
	}
	stats["total_admins"] = total

	active, err := r.Count(ctx, map[string]any{"status": 1})
	if err != nil {
		return nil, err
	}
	stats["active_admins"] = active

	var recent int64
	if err := r.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM admin_log WHERE login_time >= UTC_TIMESTAMP() - INTERVAL 1 DAY").Scan(&recent); err != nil {
		return nil, err
	}
	stats["recent_logins"] = recent

	roles, err := r.Query(ctx, `SELECT role, COUNT(*) AS count FROM admin
		WHERE status = 1 GROUP BY role ORDER BY count DESC`)
	if err != nil {
		return nil, err
	}
	stats["roles_distribution"] = roles

	lastLogins, err := r.Query(ctx, `SELECT a.username, a.email, al.login_time, al.ip
		FROM admin_log al
		LEFT JOIN admin a ON al.admin_id = a.id
		ORDER BY al.login_time DESC LIMIT 10`)
	if err != nil {
		return nil, err
	}
	stats["last_logins"] = lastLogins

	return stats, nil
}
