package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/byJim/salinas-api/internal/core/domain"
)

// CookieConfig describes the two token cookies. Both are HttpOnly.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	Secure      bool
}

func (cc CookieConfig) set(c echo.Context, pair domain.TokenPair) {
	c.SetCookie(cc.cookie(cc.AccessName, pair.AccessToken, cc.AccessTTL))
	c.SetCookie(cc.cookie(cc.RefreshName, pair.RefreshToken, cc.RefreshTTL))
}

func (cc CookieConfig) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (cc CookieConfig) refreshToken(c echo.Context) string {
	ck, err := c.Cookie(cc.RefreshName)
	if err != nil {
		return ""
	}
	return ck.Value
}
