package handler

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	customError "github.com/segyhp/invoice-followups/pkg/errors"

	"github.com/sirupsen/logrus"
)

type contextKey string

const accountIDKey contextKey = "account_id"

// AccountIDFromContext returns the account resolved by AuthMiddleware
func AccountIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(accountIDKey).(uuid.UUID)
	return id, ok
}

func WithAccountID(ctx context.Context, accountID uuid.UUID) context.Context {
	return context.WithValue(ctx, accountIDKey, accountID)
}

// AuthMiddleware accepts HS256 bearer tokens whose subject is the account id
func AuthMiddleware(secret string, logger logrus.FieldLogger) func(http.Handler) http.Handler {
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeError(w, logger, customError.WrapUnauthorized("missing bearer token"))
				return
			}

			claims := &jwt.RegisteredClaims{}
			if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) { return key, nil }); err != nil {
				logger.WithError(err).Debug("rejected token")
				writeError(w, logger, customError.WrapUnauthorized("invalid token"))
				return
			}

			accountID, err := uuid.Parse(claims.Subject)
			if err != nil {
				writeError(w, logger, customError.WrapUnauthorized("token subject is not an account"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccountID(r.Context(), accountID)))
		})
	}
}

// RateLimitKey buckets authenticated requests per account and the rest per client IP
func RateLimitKey(r *http.Request) string {
	if id, ok := AccountIDFromContext(r.Context()); ok {
		return "account:" + id.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

func accountFrom(r *http.Request) (uuid.UUID, error) {
	id, ok := AccountIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, customError.WrapUnauthorized("missing account")
	}
	return id, nil
}
