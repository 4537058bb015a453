package phoneauth

import (
	"net/http"
	"strings"
	"time"
)

const bearerScheme = "bearer "

// ParseBearer strips a case-insensitive "Bearer " scheme from an
// Authorization header value. Any other value yields "".
func ParseBearer(header string) string {
	header = strings.TrimSpace(header)
	if len(header) <= len(bearerScheme) || !strings.EqualFold(header[:len(bearerScheme)], bearerScheme) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerScheme):])
}

// RefreshCredentials extracts the refresh token transports from r.
func (e *Engine) RefreshCredentials(r *http.Request) Credentials {
	if e == nil {
		return Credentials{}
	}
	return e.credentials(r, e.config.Cookie.RefreshName)
}

// AccessCredentials extracts the access token transports from r.
func (e *Engine) AccessCredentials(r *http.Request) Credentials {
	if e == nil {
		return Credentials{}
	}
	return e.credentials(r, e.config.Cookie.AccessName)
}

func (e *Engine) credentials(r *http.Request, cookieName string) Credentials {
	if r == nil {
		return Credentials{}
	}
	creds := Credentials{Bearer: ParseBearer(r.Header.Get("Authorization"))}
	if c, err := r.Cookie(cookieName); err == nil {
		creds.Cookie = c.Value
	}
	return creds
}

func (e *Engine) setTokenCookies(w http.ResponseWriter, refreshToken, accessToken string) {
	if w == nil {
		return
	}
	http.SetCookie(w, e.cookie(e.config.Cookie.RefreshName, refreshToken, e.config.JWT.RefreshTTL))
	http.SetCookie(w, e.cookie(e.config.Cookie.AccessName, accessToken, e.config.JWT.AccessTTL))
}

func (e *Engine) clearTokenCookies(w http.ResponseWriter) {
	if w == nil {
		return
	}
	for _, name := range []string{e.config.Cookie.RefreshName, e.config.Cookie.AccessName} {
		c := e.cookie(name, "", 0)
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		http.SetCookie(w, c)
	}
}

func (e *Engine) cookie(name, value string, ttl time.Duration) *http.Cookie {
	cfg := e.config.Cookie
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		SameSite: cfg.SameSite,
		Secure:   cfg.Secure,
		HttpOnly: cfg.HTTPOnly,
	}
	if ttl > 0 {
		c.MaxAge = int(ttl / time.Second)
		c.Expires = e.now().Add(ttl).UTC()
	}
	return c
}
