package security

import (
	"net/http"
	"time"
)

const accessCookieTTL = 15 * time.Minute

type CookieManager struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func NewCookieManager(domain string, secure bool, sameSite string) *CookieManager {
	mode := http.SameSiteLaxMode
	switch sameSite {
	case "strict":
		mode = http.SameSiteStrictMode
	case "none":
		mode = http.SameSiteNoneMode
	}
	return &CookieManager{Domain: domain, Secure: secure, SameSite: mode}
}

// SetTokenCookies writes the auth cookie triple: httpOnly access and refresh
// tokens plus a JS-readable CSRF token for the double-submit check. The
// refresh cookie is scoped to the auth routes only.
func (m *CookieManager) SetTokenCookies(w http.ResponseWriter, access, refresh, csrf string, refreshTTL time.Duration) {
	http.SetCookie(w, m.cookie("access_token", access, "/", true, int(accessCookieTTL.Seconds())))
	http.SetCookie(w, m.cookie("refresh_token", refresh, "/api/v1/auth", true, int(refreshTTL.Seconds())))
	http.SetCookie(w, m.cookie("csrf_token", csrf, "/", false, int(refreshTTL.Seconds())))
}

func (m *CookieManager) ClearTokenCookies(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie("access_token", "", "/", true, -1))
	http.SetCookie(w, m.cookie("refresh_token", "", "/api/v1/auth", true, -1))
	http.SetCookie(w, m.cookie("csrf_token", "", "/", false, -1))
	http.SetCookie(w, m.cookie("oauth_state", "", "/api/v1/auth/google", true, -1))
}

func (m *CookieManager) cookie(name, value, path string, httpOnly bool, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   m.Domain,
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		Secure:   m.Secure,
		SameSite: m.SameSite,
	}
}

func GetCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
