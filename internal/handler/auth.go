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

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Admins *repository.AdminRepo
}

func NewAuthHandler(cfg config.Config, a *repository.AdminRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Admins: a}
}

// ----- DTOs -----

type loginReq struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type adminPart struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
type loginResp struct {
	Admin  adminPart `json:"admin"`
	Access tokenPart `json:"access"`
}

// Login verifies credentials, opens a session row in the login history and
// returns a bearer token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	// Either field carries the identifier; usernames and emails share one
	// login box.
	login := strings.TrimSpace(req.Login)
	if login == "" {
		login = strings.TrimSpace(req.Email)
	}
	if login == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "login/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	admin, err := h.Admins.Authenticate(ctx, login, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCredentials) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	adminID := admin.Int64("id")
	role := admin.String("role")

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, adminID, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}

	// Session bookkeeping failure never blocks a valid login.
	if _, err := h.Admins.RecordLogin(ctx, adminID, c.RealIP()); err != nil {
		c.Logger().Warnf("record login failed for admin %d: %v", adminID, err)
	}

	return c.JSON(http.StatusOK, loginResp{
		Admin: adminPart{
			ID:       adminID,
			Username: admin.String("username"),
			Email:    admin.String("email"),
			Role:     role,
		},
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout closes the most recent open session for the authenticated admin and
// stamps its duration.
func (h *AuthHandler) Logout(c echo.Context) error {
	adminID, ok := c.Get("admin_id").(int64)
	if !ok || adminID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	closed, err := h.Admins.RecordLogout(ctx, adminID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	if !closed {
		return c.JSON(http.StatusOK, echo.Map{"message": "no open session"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me returns the authenticated admin's profile together with the current
// session info.
func (h *AuthHandler) Me(c echo.Context) error {
	adminID, ok := c.Get("admin_id").(int64)
	if !ok || adminID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	admin, err := h.Admins.WithLoginHistory(ctx, adminID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "admin not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch profile failed"})
	}

	session, err := h.Admins.SessionInfo(ctx, adminID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch session failed"})
	}

	delete(admin, "password")
	return c.JSON(http.StatusOK, echo.Map{"admin": admin, "session": session})
}
