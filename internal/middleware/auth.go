package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/requill-tracker/internal/config"
	"github.com/requill-tracker/internal/model"
)

type contextKey string

const (
	UserContextKey      contextKey = "user"
	RequestIDContextKey contextKey = "request_id"

	tokenIssuer = "requill-tracker"
)

// APIKeyLookup resolves an API key to an active user, returning nil when the
// key is unknown.
type APIKeyLookup interface {
	FindByAPIKey(ctx context.Context, apiKey string) (*model.User, error)
}

// AuthMiddleware handles JWT and API key authentication
type AuthMiddleware struct {
	jwtSecret []byte
	users     APIKeyLookup
	expHours  int
}

type jwtClaims struct {
	Email string         `json:"email"`
	Role  model.UserRole `json:"role"`
	jwt.RegisteredClaims
}

func NewAuthMiddleware(cfg config.JWTConfig, users APIKeyLookup) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: []byte(cfg.Secret),
		users:     users,
		expHours:  cfg.ExpirationHours,
	}
}

// Authenticate accepts a Bearer JWT or an X-API-Key header.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			claims, err := m.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err == nil {
				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims)))
				return
			}
		}

		if apiKey := r.Header.Get("X-API-Key"); apiKey != "" && m.users != nil {
			user, err := m.users.FindByAPIKey(r.Context(), apiKey)
			if err != nil {
				log.Printf("API key lookup failed: %v", err)
			}
			if err == nil && user != nil {
				claims := &model.TokenClaims{UserID: user.ID, Email: user.Email, Role: user.Role}
				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims)))
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"unauthorized"}`))
	})
}

// RequireAdmin middleware checks for admin role
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetUserFromContext(r.Context())
		if !claims.IsAdmin() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"forbidden"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GenerateToken signs an HS256 token for user.
func (m *AuthMiddleware) GenerateToken(user *model.User) (string, int64, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(m.expHours) * time.Hour)

	claims := jwtClaims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(m.jwtSecret)
	if err != nil {
		return "", 0, err
	}

	return tokenStr, expiresAt.Unix(), nil
}

// ValidateToken validates a JWT token and returns claims
func (m *AuthMiddleware) ValidateToken(tokenStr string) (*model.TokenClaims, error) {
	var claims jwtClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		return m.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}

	return &model.TokenClaims{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

func WithUser(ctx context.Context, claims *model.TokenClaims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// GetUserFromContext extracts user claims from context
func GetUserFromContext(ctx context.Context) *model.TokenClaims {
	claims, ok := ctx.Value(UserContextKey).(*model.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}

func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

// CORS middleware
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// JSON middleware sets JSON content type
func JSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logger tags each request with an X-Request-ID and logs it when done.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		ctx := context.WithValue(r.Context(), RequestIDContextKey, reqID)
		next.ServeHTTP(rec, r.WithContext(ctx))

		log.Printf("%s %s %d %s [%s]", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond), reqID)
	})
}
