package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/navpurush/hostelms/internal/config"
	"github.com/navpurush/hostelms/internal/repository"
	"github.com/navpurush/hostelms/internal/utils"
)

// AdminHandler exposes admin account management. All routes behind it
// require the super_admin role.
type AdminHandler struct {
	Cfg    config.Config
	Admins *repository.AdminRepo
}

func NewAdminHandler(cfg config.Config, a *repository.AdminRepo) *AdminHandler {
	return &AdminHandler{Cfg: cfg, Admins: a}
}

type createAdminReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type updateAdminReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

var validRoles = map[string]bool{
	"super_admin": true,
	"admin":       true,
	"staff":       true,
}

// List returns all admin accounts without password hashes.
func (h *AdminHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Admins.ListWithRoles(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list admins failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"admins": rows})
}

// Get returns a single admin with its login history summary.
func (h *AdminHandler) Get(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	row, err := h.Admins.WithLoginHistory(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "admin not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch admin failed"})
	}
	delete(row, "password")
	return c.JSON(http.StatusOK, row)
}

// Create registers a new admin account.
func (h *AdminHandler) Create(c echo.Context) error {
	var req createAdminReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/email/password required"})
	}
	if !validRoles[role] {
		role = "staff"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if exists, err := h.Admins.EmailExists(ctx, req.Email, 0); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create admin failed"})
	} else if exists {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	}
	if exists, err := h.Admins.UsernameExists(ctx, req.Username, 0); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create admin failed"})
	} else if exists {
		return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}

	id, err := h.Admins.Insert(ctx, map[string]any{
		"username": req.Username,
		"email":    req.Email,
		"password": hash,
		"role":     role,
		"status":   1,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "admin already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create admin failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// Update changes username and email.
func (h *AdminHandler) Update(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateAdminReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	fields := map[string]any{}
	if u := strings.TrimSpace(req.Username); u != "" {
		fields["username"] = u
	}
	if e := strings.ToLower(strings.TrimSpace(req.Email)); e != "" {
		fields["email"] = e
	}
	if len(fields) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if e, ok := fields["email"].(string); ok {
		if exists, err := h.Admins.EmailExists(ctx, e, id); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update admin failed"})
		} else if exists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
	}
	if u, ok := fields["username"].(string); ok {
		if exists, err := h.Admins.UsernameExists(ctx, u, id); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update admin failed"})
		} else if exists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		}
	}

	updated, err := h.Admins.Update(ctx, id, fields)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update admin failed"})
	}
	if !updated {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "admin not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "updated"})
}

// UpdateRole changes the role of an admin account.
func (h *AdminHandler) UpdateRole(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if !validRoles[role] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	updated, err := h.Admins.UpdateRole(ctx, id, role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update role failed"})
	}
	if !updated {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "admin not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "role updated"})
}

// UpdateStatus enables or disables an account. Disabled admins fail
// authentication even with valid credentials.
func (h *AdminHandler) UpdateStatus(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req struct {
		Status int `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Status != 0 && req.Status != 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be 0 or 1"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	updated, err := h.Admins.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
	}
	if !updated {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "admin not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "status updated"})
}

// ChangePassword sets a new password for an admin account.
func (h *AdminHandler) ChangePassword(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	updated, err := h.Admins.ChangePassword(ctx, id, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "change password failed"})
	}
	if !updated {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "admin not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}

// Delete removes an admin account. The caller cannot delete itself.
func (h *AdminHandler) Delete(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if id == adminIDFrom(c) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot delete own account"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	deleted, err := h.Admins.Delete(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete admin failed"})
	}
	if !deleted {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "admin not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

// ActivityLog returns the login history across admins, optionally filtered.
func (h *AdminHandler) ActivityLog(c echo.Context) error {
	f := repository.AdminLogFilter{
		AdminID:  queryInt64(c, "admin_id"),
		DateFrom: strings.TrimSpace(c.QueryParam("from")),
		DateTo:   strings.TrimSpace(c.QueryParam("to")),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Admins.ActivityLog(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch activity log failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": rows})
}

// ByRole lists the active admins holding one role.
func (h *AdminHandler) ByRole(c echo.Context) error {
	role := strings.ToLower(strings.TrimSpace(c.Param("role")))
	if !validRoles[role] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Admins.ByRole(ctx, role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list admins failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"admins": rows})
}

// Sessions returns the recent login sessions of one admin.
func (h *AdminHandler) Sessions(c echo.Context) error {
	id := pathID(c)
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	limit := queryInt(c, "limit", 10)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Admins.LoginHistory(ctx, id, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch sessions failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"sessions": rows})
}

// Search finds admins by username or email fragment.
func (h *AdminHandler) Search(c echo.Context) error {
	term := strings.TrimSpace(c.QueryParam("q"))
	if term == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "query term required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Admins.Search(ctx, term)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"admins": rows})
}

// Dashboard returns the aggregate counters shown on the landing page.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Admins.DashboardStats(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch dashboard failed"})
	}
	return c.JSON(http.StatusOK, stats)
}
