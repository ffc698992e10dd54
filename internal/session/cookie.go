// Package session carries the session token between client and server in an
// HTTP cookie. It does not inspect the cookie value.
package session

import (
	"net/http"
	"time"
)

const (
	// CookieName is the cookie that holds the signed session token.
	CookieName = "token"

	// MaxAge is the cookie lifetime. The token inside may outlive it.
	MaxAge = 15 * time.Minute
)

// CookieOption overrides a default cookie attribute.
type CookieOption func(*http.Cookie)

func WithMaxAge(d time.Duration) CookieOption {
	return func(c *http.Cookie) { c.MaxAge = int(d / time.Second) }
}

func WithPath(path string) CookieOption {
	return func(c *http.Cookie) { c.Path = path }
}

func WithDomain(domain string) CookieOption {
	return func(c *http.Cookie) { c.Domain = domain }
}

func WithSameSite(mode http.SameSite) CookieOption {
	return func(c *http.Cookie) { c.SameSite = mode }
}

// Transport sets, reads and clears cookies with fixed security attributes.
type Transport struct {
	secure bool
}

// NewTransport returns a Transport. secure should be true only in production.
func NewTransport(secure bool) *Transport {
	return &Transport{secure: secure}
}

func (t *Transport) base(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   t.secure,
		MaxAge:   int(MaxAge / time.Second),
		SameSite: http.SameSiteStrictMode,
	}
}

// Set attaches the cookie to w, applying overrides on top of the defaults.
func (t *Transport) Set(w http.ResponseWriter, name, value string, overrides ...CookieOption) {
	c := t.base(name, value)
	for _, o := range overrides {
		o(c)
	}
	http.SetCookie(w, c)
}

// Get returns the named cookie's value.
func (t *Transport) Get(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	return c.Value, true
}

// Clear tells the client to drop the named cookie.
func (t *Transport) Clear(w http.ResponseWriter, name string) {
	c := t.base(name, "")
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	http.SetCookie(w, c)
}
