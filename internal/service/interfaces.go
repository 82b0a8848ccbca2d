package service

import (
	"context"

	"github.com/mayoristas-py/directory-admin/internal/security"
)

// FeatureAuthorizer is what route guards need from the access policy.
type FeatureAuthorizer interface {
	Authorize(ctx context.Context, deviceUUID, featureID string) Decision
}

type SessionAuthenticator interface {
	Authenticate(token string) (*security.Claims, error)
}

type LoginService interface {
	SessionAuthenticator
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
}

var (
	_ FeatureAuthorizer = (*AccessPolicy)(nil)
	_ LoginService      = (*AuthService)(nil)
)
