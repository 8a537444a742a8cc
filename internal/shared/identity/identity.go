// Package identity resolves the calling user from an inbound request.
//
// Two resolvers are available. HeaderResolver trusts a caller-supplied
// X-User-ID header and is meant for deployments behind a trusted gateway.
// TokenResolver reads an HS256 bearer token and is the production choice.
package identity

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"feature-voting-backend/internal/shared/apperror"
	jwtpkg "feature-voting-backend/pkg/jwt"
)

const (
	DefaultHeader = "X-User-ID"

	ModeHeader = "header"
	ModeJWT    = "jwt"
)

// Resolver extracts the caller's user id. Failures are Unauthenticated or InvalidIdentity.
type Resolver interface {
	Resolve(r *http.Request) (int64, error)
}

// UserChecker confirms a resolved id belongs to a registered user
type UserChecker interface {
	Exists(ctx context.Context, userID int64) (bool, error)
}

// TokenValidator is satisfied by *jwt.Manager
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwtpkg.Claims, error)
}

// NewResolver selects the resolver for the configured mode
func NewResolver(mode, header string, tokens TokenValidator) (Resolver, error) {
	switch mode {
	case "", ModeHeader:
		return NewHeaderResolver(header), nil
	case ModeJWT:
		if tokens == nil {
			return nil, fmt.Errorf("jwt identity mode requires a token validator")
		}
		return NewTokenResolver(tokens), nil
	default:
		return nil, fmt.Errorf("unknown identity mode %q", mode)
	}
}

// ParseUserID accepts only positive decimal integers
func ParseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewInvalidIdentity(raw)
	}
	return id, nil
}

type HeaderResolver struct {
	header string
}

func NewHeaderResolver(header string) *HeaderResolver {
	if header == "" {
		header = DefaultHeader
	}
	return &HeaderResolver{header: header}
}

func (h *HeaderResolver) Resolve(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(h.header))
	if raw == "" {
		return 0, apperror.NewUnauthenticated(fmt.Sprintf("Missing %s header", h.header))
	}
	return ParseUserID(raw)
}

type TokenResolver struct {
	tokens TokenValidator
}

func NewTokenResolver(tokens TokenValidator) *TokenResolver {
	return &TokenResolver{tokens: tokens}
}

func (t *TokenResolver) Resolve(r *http.Request) (int64, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return 0, apperror.NewUnauthenticated("Missing Authorization header")
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return 0, apperror.New(apperror.InvalidIdentity, "Invalid authorization header format")
	}

	claims, err := t.tokens.ValidateAccessToken(strings.TrimSpace(token))
	if err != nil {
		return 0, apperror.Wrap(apperror.InvalidIdentity, "Invalid bearer token", err)
	}
	return ParseUserID(claims.Identity())
}

type contextKey struct{}

// WithUserID stores the resolved id in ctx
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// FromContext returns the id stored by WithUserID
func FromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(contextKey{}).(int64)
	return id, ok
}
