package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSessionCookieRoundTrip(t *testing.T) {
	rr := httptest.NewRecorder()
	SetSessionCookie(rr, "tok.en.value", time.Now().Add(time.Hour), false)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
	if got := SessionTokenFromRequest(req); got != "tok.en.value" {
		t.Fatalf("expected token from cookie, got %q", got)
	}
}

func TestSessionTokenFromRequestRequiresBearerPrefix(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok.en.value"})
	if got := SessionTokenFromRequest(req); got != "" {
		t.Fatalf("expected empty token without prefix, got %q", got)
	}
}

func TestDeviceUUIDFromRequestPrefersHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/shops", nil)
	req.AddCookie(&http.Cookie{Name: DeviceCookieName, Value: "from-cookie"})
	if got := DeviceUUIDFromRequest(req); got != "from-cookie" {
		t.Fatalf("expected cookie value, got %q", got)
	}
	req.Header.Set(DeviceHeaderName, "from-header")
	if got := DeviceUUIDFromRequest(req); got != "from-header" {
		t.Fatalf("expected header value, got %q", got)
	}
}
