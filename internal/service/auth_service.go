package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mayoristas-py/directory-admin/internal/observability"
	"github.com/mayoristas-py/directory-admin/internal/security"
)

const maxDeviceNameLen = 80

type LoginInput struct {
	Username   string
	Password   string
	DeviceUUID string
	UserAgent  string
	IP         string
}

type LoginResult struct {
	Token            string
	ExpiresAt        time.Time
	DeviceUUID       string
	DeviceRegistered bool
}

// AuthService authenticates the single configured admin identity.
type AuthService struct {
	username   string
	sessionTTL time.Duration
	verifier   *security.PasswordVerifier
	jwt        *security.JWTManager
	registry   *Registry
	logger     *slog.Logger
}

func NewAuthService(username string, sessionTTL time.Duration, verifier *security.PasswordVerifier, jwt *security.JWTManager, registry *Registry, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		username:   username,
		sessionTTL: sessionTTL,
		verifier:   verifier,
		jwt:        jwt,
		registry:   registry,
		logger:     logger,
	}
}

// Login checks the credentials and issues a session token. A browser that
// does not present a registered device UUID gets a new registration.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	userOK := subtle.ConstantTimeCompare([]byte(in.Username), []byte(s.username)) == 1
	passErr := s.verifier.Verify(in.Password)
	if !userOK || passErr != nil {
		observability.RecordAuthLogin(ctx, "invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.jwt.SignSessionToken(s.username, s.sessionTTL)
	if err != nil {
		observability.RecordAuthLogin(ctx, "error")
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	result := &LoginResult{Token: token, ExpiresAt: expiresAt, DeviceUUID: in.DeviceUUID}

	if s.registry != nil {
		known := false
		if in.DeviceUUID != "" {
			_, err := s.registry.GetDevice(ctx, in.DeviceUUID)
			switch {
			case err == nil:
				known = true
			case !errors.Is(err, ErrDeviceNotFound):
				return nil, err
			}
		}
		if !known {
			createdBy := s.username
			dev, err := s.registry.CreateDevice(ctx, DeviceInput{
				DeviceName: DeviceNameFromUserAgent(in.UserAgent),
				CreatedBy:  &createdBy,
				IPAddress:  optionalString(in.IP),
			})
			if err != nil {
				observability.RecordAuthLogin(ctx, "error")
				return nil, fmt.Errorf("register login device: %w", err)
			}
			result.DeviceUUID = dev.UUID
			result.DeviceRegistered = true
			s.logger.InfoContext(ctx, "registered login device", "device_uuid", dev.UUID, "device_name", dev.DeviceName)
		}
	}

	observability.RecordAuthLogin(ctx, "success")
	return result, nil
}

// Authenticate validates a session token and its subject.
func (s *AuthService) Authenticate(token string) (*security.Claims, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	claims, err := s.jwt.ParseSessionToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.Subject != s.username {
		return nil, fmt.Errorf("%w: unexpected subject", ErrInvalidSession)
	}
	return claims, nil
}

// DeviceNameFromUserAgent builds a readable label such as "Chrome en Windows".
func DeviceNameFromUserAgent(ua string) string {
	ua = strings.TrimSpace(ua)
	if ua == "" {
		return "Dispositivo desconocido"
	}
	browser := detect(ua, []string{"Edg", "OPR", "Firefox", "Chrome", "Safari"}, map[string]string{"Edg": "Edge", "OPR": "Opera"})
	platform := detect(ua, []string{"Android", "iPhone", "iPad", "Windows", "Mac OS X", "Linux"}, map[string]string{"Mac OS X": "macOS"})
	switch {
	case browser != "" && platform != "":
		return browser + " en " + platform
	case browser != "":
		return browser
	}
	if len(ua) > maxDeviceNameLen {
		ua = strings.ToValidUTF8(ua[:maxDeviceNameLen], "")
	}
	return ua
}

func detect(ua string, tokens []string, labels map[string]string) string {
	for _, tok := range tokens {
		if strings.Contains(ua, tok) {
			if label, ok := labels[tok]; ok {
				return label
			}
			return tok
		}
	}
	return ""
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
