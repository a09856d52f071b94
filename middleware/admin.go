package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/insightpulse/llm-router/utils"
)

// AdminClaims are the claims expected on admin tokens.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AdminMiddleware guards admin endpoints with an HMAC-signed JWT carrying
// role "admin". With an empty secret the guard is disabled and requests pass
// through, which keeps single-operator deployments zero-config.
type AdminMiddleware struct {
	secret []byte
	logger *zap.Logger
}

func NewAdminMiddleware(secret string, logger *zap.Logger) *AdminMiddleware {
	return &AdminMiddleware{secret: []byte(secret), logger: logger}
}

// Enabled reports whether admin auth is configured.
func (m *AdminMiddleware) Enabled() bool {
	return len(m.secret) > 0
}

// RequireAdmin is a middleware that requires a valid admin JWT
func (m *AdminMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token := extractBearerToken(r)
		if token == "" {
			m.logger.Warn("missing admin token",
				zap.String("request_id", requestID),
				zap.String("path", r.URL.Path))
			_ = utils.WriteUnauthorized(w, "Missing or invalid authorization")
			return
		}

		claims, err := m.parseToken(token)
		if err != nil {
			m.logger.Warn("admin token validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		if claims.Role != "admin" {
			m.logger.Warn("token lacks admin role",
				zap.String("request_id", requestID),
				zap.String("sub", claims.Subject))
			_ = utils.WriteUnauthorized(w, "Admin role required")
			return
		}

		ctx = WithAdminSubject(ctx, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AdminMiddleware) parseToken(tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	return claims, nil
}

// extractBearerToken pulls the token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
