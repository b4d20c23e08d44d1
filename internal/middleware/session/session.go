// Package session verifies the identity provider's session tokens and guards
// pages and API routes with them.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"wallet/internal/core"
	"wallet/internal/log"
)

var ErrNoSession = errors.New("no session")

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Email  string
	Role   core.Role
}

func (i Identity) IsAdmin() bool { return i.Role == core.RoleAdmin }

type claims struct {
	Email       string `json:"email"`
	AppMetadata struct {
		Role string `json:"role"`
	} `json:"app_metadata"`
	jwt.RegisteredClaims
}

type ctxKey struct{}

// Verifier checks HS256 tokens signed with the provider's shared secret.
type Verifier struct {
	secret []byte
	cookie string
	logger *log.Logger
}

func NewVerifier(secret, cookie string, logger *log.Logger) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		cookie: cookie,
		logger: logger.WithComponent(log.ComponentSession),
	}
}

// CookieName returns the cookie the session token is read from.
func (v *Verifier) CookieName() string { return v.cookie }

// Verify parses and validates a raw token.
func (v *Verifier) Verify(raw string) (Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Identity{}, fmt.Errorf("verify session: %w", err)
	}
	if c.Subject == "" {
		return Identity{}, fmt.Errorf("verify session: %w", jwt.ErrTokenInvalidSubject)
	}
	id := Identity{UserID: c.Subject, Email: c.Email, Role: core.RoleUser}
	if c.AppMetadata.Role == string(core.RoleAdmin) {
		id.Role = core.RoleAdmin
	}
	return id, nil
}

// Issue signs a token for id. Used by tests and local tooling; production
// tokens come from the identity provider.
func (v *Verifier) Issue(id Identity, ttl time.Duration) (string, error) {
	c := claims{Email: id.Email}
	c.AppMetadata.Role = string(id.Role)
	c.Subject = id.UserID
	c.IssuedAt = jwt.NewNumericDate(time.Now())
	c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(v.secret)
}

// FromRequest reads the token from the session cookie, falling back to a
// Bearer header when the cookie is absent or does not verify.
func (v *Verifier) FromRequest(r *http.Request) (Identity, error) {
	var cookieErr error
	if ck, err := r.Cookie(v.cookie); err == nil && ck.Value != "" {
		id, err := v.Verify(ck.Value)
		if err == nil {
			return id, nil
		}
		cookieErr = err
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		if raw := strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")); raw != "" {
			return v.Verify(raw)
		}
	}
	if cookieErr != nil {
		return Identity{}, cookieErr
	}
	return Identity{}, ErrNoSession
}

func (v *Verifier) authenticate(r *http.Request) (Identity, bool) {
	id, err := v.FromRequest(r)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			v.logger.DebugContext(r.Context(), "Rejected session token",
				log.FieldPath, r.URL.Path, log.FieldError, err)
		}
		return Identity{}, false
	}
	return id, true
}

// Page guards an HTML page: anonymous callers are sent to the sign-in page
// with the path they asked for.
func (v *Verifier) Page(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := v.authenticate(r)
		if !ok {
			target := "/sign-in?redirectedFrom=" + url.QueryEscape(r.URL.Path)
			if r.Header.Get("HX-Request") == "true" {
				w.Header().Set("HX-Redirect", target)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		next(w, r.WithContext(IntoContext(r.Context(), id)))
	}
}

// GuestOnly serves the sign-in and sign-up pages; a signed-in caller goes
// straight to the dashboard.
func (v *Verifier) GuestOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := v.authenticate(r); ok {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// Optional attaches the identity when there is one and never blocks.
func (v *Verifier) Optional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if id, ok := v.authenticate(r); ok {
			r = r.WithContext(IntoContext(r.Context(), id))
		}
		next(w, r)
	}
}

// API guards a JSON route with a 401 instead of a redirect.
func (v *Verifier) API(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := v.authenticate(r)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r.WithContext(IntoContext(r.Context(), id)))
	}
}

// RequireAdmin must run inside API or Page.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		if !ok || !id.IsAdmin() {
			writeJSONError(w, http.StatusForbidden, "admin access required")
			return
		}
		next(w, r)
	}
}

func IntoContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`, msg)
}
