package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mayoristas-py/directory-admin/internal/http/response"
	"github.com/mayoristas-py/directory-admin/internal/observability"
	"github.com/mayoristas-py/directory-admin/internal/security"
	"github.com/mayoristas-py/directory-admin/internal/service"
)

type contextKey string

const (
	ClaimsContextKey contextKey = "claims"

	LoginPath = "/"
)

// GuardResult is a guard's verdict. A denial either redirects or carries
// the status and machine-readable code of the error response. An allowing
// guard may return an enriched Request for the guards and handler after it.
type GuardResult struct {
	Allowed  bool
	Status   int
	Code     string
	Message  string
	Details  any
	Redirect string
	Request  *http.Request
}

type Guard interface {
	Check(r *http.Request) GuardResult
}

type GuardFunc func(r *http.Request) GuardResult

func (f GuardFunc) Check(r *http.Request) GuardResult { return f(r) }

func Allow() GuardResult { return GuardResult{Allowed: true} }

// Require runs the guards in order before next. The first denial wins.
func Require(guards ...Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, g := range guards {
				res := g.Check(r)
				if !res.Allowed {
					writeDenial(w, r, res)
					return
				}
				if res.Request != nil {
					r = res.Request
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeDenial(w http.ResponseWriter, r *http.Request, res GuardResult) {
	if res.Redirect != "" {
		http.Redirect(w, r, res.Redirect, http.StatusFound)
		return
	}
	status := res.Status
	if status == 0 {
		status = http.StatusForbidden
	}
	code := res.Code
	if code == "" {
		code = "FORBIDDEN"
	}
	response.Error(w, r, status, code, res.Message, res.Details)
}

// SessionGuard validates the admin session cookie. Browsers are sent back
// to the login page; clients asking for JSON get a 401 envelope.
func SessionGuard(auth service.SessionAuthenticator) Guard {
	return GuardFunc(func(r *http.Request) GuardResult {
		claims, err := auth.Authenticate(security.SessionTokenFromRequest(r))
		if err != nil {
			observability.RecordSessionValidation(r.Context(), "invalid")
			if WantsJSON(r) {
				return GuardResult{Status: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "admin session required"}
			}
			return GuardResult{Redirect: LoginPath}
		}
		observability.RecordSessionValidation(r.Context(), "valid")
		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		return GuardResult{Allowed: true, Request: r.WithContext(ctx)}
	})
}

// FeatureGuard asks the access policy whether the calling device may use
// the feature. Denials are 403 with the policy's reason as the code.
func FeatureGuard(authz service.FeatureAuthorizer, featureID string) Guard {
	return GuardFunc(func(r *http.Request) GuardResult {
		d := authz.Authorize(r.Context(), security.DeviceUUIDFromRequest(r), featureID)
		if d.Allowed {
			return Allow()
		}
		return GuardResult{
			Status:  http.StatusForbidden,
			Code:    d.Reason,
			Message: denialMessage(d.Reason),
			Details: map[string]string{"feature": featureID},
		}
	})
}

func denialMessage(reason string) string {
	switch reason {
	case service.ReasonFeatureNotFound:
		return "feature does not exist"
	case service.ReasonFeatureDisabled:
		return "feature is disabled"
	case service.ReasonDeviceRequired:
		return "a registered device is required"
	case service.ReasonDeviceNotRegistered:
		return "device is not registered"
	case service.ReasonDeviceInactive:
		return "device is inactive"
	case service.ReasonDeviceExpired:
		return "device registration has expired"
	case service.ReasonDeviceNotAuthorized:
		return "device is not authorized for this feature"
	}
	return "access denied"
}

func ClaimsFromContext(ctx context.Context) (*security.Claims, bool) {
	c, ok := ctx.Value(ClaimsContextKey).(*security.Claims)
	return c, ok
}

func WantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
