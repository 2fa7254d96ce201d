package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed HS256 JWT plus its expiry. Admin sessions are
// carried entirely by this token; the admin_log table records login and
// logout events but holds no token state.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// NewAccessToken signs an access token for an admin. Claims: sub (admin id),
// role (super_admin/admin/staff), exp and iat.
func NewAccessToken(secret string, adminID int64, role string, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  adminID,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
