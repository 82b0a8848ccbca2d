package handler

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/mayoristas-py/directory-admin/internal/http/middleware"
	"github.com/mayoristas-py/directory-admin/internal/http/response"
	"github.com/mayoristas-py/directory-admin/internal/observability"
	"github.com/mayoristas-py/directory-admin/internal/security"
	"github.com/mayoristas-py/directory-admin/internal/service"
	"github.com/mayoristas-py/directory-admin/internal/web"
)

const DashboardPath = "/admin"

type AuthHandler struct {
	auth          service.LoginService
	pages         *web.Renderer
	secureCookies bool
}

func NewAuthHandler(auth service.LoginService, pages *web.Renderer, secureCookies bool) *AuthHandler {
	return &AuthHandler{auth: auth, pages: pages, secureCookies: secureCookies}
}

type loginPage struct {
	Nav      bool
	Error    string
	Username string
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginPage shows the form, or sends an already authenticated admin
// straight to the dashboard.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := h.auth.Authenticate(security.SessionTokenFromRequest(r)); err == nil {
		http.Redirect(w, r, DashboardPath, http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, loginPage{})
}

// Login accepts the HTML form or a JSON body. Form posts are redirected to
// the dashboard; JSON clients get the session details in the envelope.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	jsonBody := strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
	var in loginRequest
	if jsonBody {
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			h.render(w, r, http.StatusBadRequest, loginPage{Error: "Formulario inválido"})
			return
		}
		in = loginRequest{Username: r.PostFormValue("username"), Password: r.PostFormValue("password")}
	}

	res, err := h.auth.Login(r.Context(), service.LoginInput{
		Username:   strings.TrimSpace(in.Username),
		Password:   in.Password,
		DeviceUUID: security.DeviceUUIDFromRequest(r),
		UserAgent:  r.UserAgent(),
		IP:         clientIP(r),
	})
	if err != nil {
		observability.Audit(r, "auth.login.failed", "username", in.Username)
		if !errors.Is(err, service.ErrInvalidCredentials) {
			slog.ErrorContext(r.Context(), "login failed", "error", err)
		}
		if jsonBody || middleware.WantsJSON(r) {
			writeError(w, r, err)
			return
		}
		h.render(w, r, http.StatusUnauthorized, loginPage{Error: "Usuario o contraseña incorrectos", Username: in.Username})
		return
	}

	security.SetSessionCookie(w, res.Token, res.ExpiresAt, h.secureCookies)
	if res.DeviceUUID != "" {
		security.SetDeviceCookie(w, res.DeviceUUID, h.secureCookies)
	}
	observability.Audit(r, "auth.login", "device_uuid", res.DeviceUUID, "device_registered", res.DeviceRegistered)

	if jsonBody || middleware.WantsJSON(r) {
		response.JSON(w, r, http.StatusOK, map[string]any{
			"expires_at":        res.ExpiresAt,
			"device_uuid":       res.DeviceUUID,
			"device_registered": res.DeviceRegistered,
		})
		return
	}
	http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
}

// Logout drops the session cookie. The device cookie stays so the browser
// keeps its registration.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	security.ClearSessionCookie(w, h.secureCookies)
	observability.Audit(r, "auth.logout")
	http.Redirect(w, r, middleware.LoginPath, http.StatusFound)
}

func (h *AuthHandler) render(w http.ResponseWriter, r *http.Request, status int, data loginPage) {
	if err := h.pages.Render(w, status, "login", data); err != nil {
		slog.ErrorContext(r.Context(), "render login page", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// clientIP relies on chi's RealIP having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
