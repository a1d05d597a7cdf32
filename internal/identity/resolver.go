// internal/identity/resolver.go
package identity

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"housegate/internal/observability/logging"
)

// Resolver resolves a session token into a Subject. Implementations must
// never return a privileged Subject for a token they could not verify.
type Resolver interface {
	// Resolve returns the Subject for a session token. A missing or invalid
	// token yields an anonymous Subject, not an error; errors are reserved
	// for infrastructure failures (e.g. a session store being unreachable).
	Resolve(ctx context.Context, sessionToken string) (*Subject, error)
}

// TokenResolver verifies HMAC-signed session tokens issued by the identity
// service. The signature check is what makes the session tamper-evident: a
// client cannot mint or alter a token without the server secret.
type TokenResolver struct {
	secret []byte
	logger *logging.Logger
}

// NewTokenResolver creates a resolver verifying tokens against secret
func NewTokenResolver(secret []byte, logger *logging.Logger) (*TokenResolver, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("session secret is required")
	}
	return &TokenResolver{
		secret: secret,
		logger: logger.WithModule("identity.resolver"),
	}, nil
}

// sessionClaims are the registered claims plus the role token
type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Resolve implements Resolver
func (r *TokenResolver) Resolve(ctx context.Context, sessionToken string) (*Subject, error) {
	if sessionToken == "" {
		return Anonymous(), nil
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(sessionToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil || !token.Valid {
		// An unverifiable token is an anonymous request, not a failure
		r.logger.Debug("Session token rejected", logging.Err(err))
		return Anonymous(), nil
	}

	if claims.Subject == "" {
		r.logger.Debug("Session token missing subject claim")
		return Anonymous(), nil
	}

	return &Subject{
		ID:            claims.Subject,
		Role:          ParseRole(claims.Role),
		Authenticated: true,
	}, nil
}
