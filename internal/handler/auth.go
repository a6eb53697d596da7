package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/property-engine/internal/config"
	"github.com/segyhp/property-engine/internal/domain"
	customError "github.com/segyhp/property-engine/pkg/errors"
	"github.com/segyhp/property-engine/pkg/response"
)

type requesterKey struct{}

// Claims is the token payload issued by the identity service. The subject
// is the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens and puts the caller into the
// request context.
type Authenticator struct {
	secret []byte
	issuer string
	logger *logrus.Logger
}

func NewAuthenticator(cfg config.AuthConfig, logger *logrus.Logger) *Authenticator {
	return &Authenticator{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.JWTIssuer,
		logger: logger,
	}
}

// WithRequester returns a copy of ctx carrying requester.
func WithRequester(ctx context.Context, requester domain.Requester) context.Context {
	return context.WithValue(ctx, requesterKey{}, requester)
}

// RequesterFrom returns the caller stored by the auth middleware. Anonymous
// requests yield the zero Requester.
func RequesterFrom(ctx context.Context) domain.Requester {
	requester, _ := ctx.Value(requesterKey{}).(domain.Requester)
	return requester
}

// Parse validates a raw token and returns the caller it identifies.
func (a *Authenticator) Parse(raw string) (domain.Requester, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		options = append(options, jwt.WithIssuer(a.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, options...)
	if err != nil {
		return domain.Requester{}, err
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return domain.Requester{}, errors.New("token has no subject")
	}

	role := strings.ToUpper(claims.Role)
	if role != domain.RoleAdmin {
		role = domain.RoleUser
	}

	return domain.Requester{UserID: subject, Role: role}, nil
}

// RequireAuth rejects requests without a valid bearer token.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(raw) == "" {
			response.Unauthorized(w, "missing bearer token")
			return
		}

		requester, err := a.Parse(strings.TrimSpace(raw))
		if err != nil {
			a.logger.WithError(err).WithField("path", r.URL.Path).Debug("rejected bearer token")
			response.Unauthorized(w, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithRequester(r.Context(), requester)))
	})
}

// RequireAdmin lets only admins through. It must run after RequireAuth.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requester := RequesterFrom(r.Context())
		if !requester.IsAuthenticated() {
			response.Unauthorized(w, "missing bearer token")
			return
		}
		if !requester.IsAdmin() {
			response.Error(w, http.StatusForbidden, customError.ErrCodeForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
