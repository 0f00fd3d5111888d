// Package auth checks HTTP basic credentials against bcrypt hashes and
// carries the resulting identity in the request context.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Anonymous is the identity used when no users are configured.
const Anonymous = "anonymous"

type contextKey struct{}

// WithUser returns a copy of ctx carrying the authenticated user name.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// UserFromContext returns the user stored by WithUser.
func UserFromContext(ctx context.Context) (string, bool) {
	user, ok := ctx.Value(contextKey{}).(string)
	return user, ok && user != ""
}

// Authenticator validates basic-auth credentials.
type Authenticator struct {
	realm  string
	users  map[string][]byte
	logger zerolog.Logger
}

// NewAuthenticator builds an Authenticator from the configured users.
func NewAuthenticator(cfg config.AuthConfig, logger zerolog.Logger) *Authenticator {
	users := make(map[string][]byte, len(cfg.Users))
	for name, hash := range cfg.Users {
		users[name] = []byte(hash)
	}
	realm := cfg.Realm
	if realm == "" {
		realm = "pagewatch"
	}
	return &Authenticator{
		realm:  realm,
		users:  users,
		logger: logger.With().Str("component", "Auth").Logger(),
	}
}

// Enabled reports whether any users are configured.
func (a *Authenticator) Enabled() bool {
	return len(a.users) > 0
}

// Authenticate returns the identity behind r. With no users configured
// every request is Anonymous.
func (a *Authenticator) Authenticate(r *http.Request) (string, bool) {
	if !a.Enabled() {
		return Anonymous, true
	}

	user, password, ok := r.BasicAuth()
	if !ok {
		return "", false
	}
	hash, known := a.users[user]
	if !known {
		a.logger.Debug().Str("user", user).Msg("Unknown user")
		return "", false
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		a.logger.Debug().Str("user", user).Msg("Password mismatch")
		return "", false
	}
	return user, true
}

// Middleware rejects unauthenticated requests with a basic-auth challenge
// and stores the identity for downstream handlers.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := a.Authenticate(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", a.realm))
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}
