package security

import (
	"net/http"
	"strings"
	"time"
)

const (
	SessionCookieName = "Authorization"
	DeviceCookieName  = "device_uuid"
	DeviceHeaderName  = "X-Device-UUID"

	bearerPrefix    = "Bearer "
	deviceCookieTTL = 365 * 24 * time.Hour
)

func GetCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// SessionTokenFromRequest extracts the token from the "Bearer <token>"
// session cookie. It returns "" when the cookie is missing or malformed.
func SessionTokenFromRequest(r *http.Request) string {
	raw := strings.Trim(GetCookie(r, SessionCookieName), `"`)
	if !strings.HasPrefix(raw, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(raw[len(bearerPrefix):])
}

// DeviceUUIDFromRequest prefers the explicit header over the cookie.
func DeviceUUIDFromRequest(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(DeviceHeaderName)); v != "" {
		return v
	}
	return strings.TrimSpace(GetCookie(r, DeviceCookieName))
}

func SetSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    bearerPrefix + token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func SetDeviceCookie(w http.ResponseWriter, deviceUUID string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     DeviceCookieName,
		Value:    deviceUUID,
		Path:     "/",
		MaxAge:   int(deviceCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
