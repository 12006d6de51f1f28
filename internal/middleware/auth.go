package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const (
	userIDKey   contextKey = "user_id"
	roleKey     contextKey = "role"
	studioIDKey contextKey = "studio_id"
)

// Claims is the JWT payload issued by the auth service.
type Claims struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	StudioID string `json:"studio_id"`
	jwt.RegisteredClaims
}

// Auth validates the bearer token and stashes the caller's identity in the
// request context.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w, "missing bearer token")
				return
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				unauthorized(w, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			ctx = context.WithValue(ctx, roleKey, claims.Role)
			ctx = context.WithValue(ctx, studioIDKey, claims.StudioID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose role is not in the allowed set. Must run
// after Auth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowed[Role(r)] {
				forbidden(w, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// InternalKey gates service-to-service endpoints on a pre-shared key,
// compared against its bcrypt hash so the plaintext never lives in config.
func InternalKey(keyHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if keyHash == "" {
				log.Println("ERROR: internal endpoint hit but INTERNAL_API_KEY_HASH is not set")
				unauthorized(w, "internal access not configured")
				return
			}
			key := r.Header.Get("X-Internal-API-Key")
			if key == "" || bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)) != nil {
				unauthorized(w, "invalid internal key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserID returns the authenticated caller's id, or uuid.Nil outside Auth.
func UserID(r *http.Request) uuid.UUID {
	if v, ok := r.Context().Value(userIDKey).(string); ok {
		if id, err := uuid.Parse(v); err == nil {
			return id
		}
	}
	return uuid.Nil
}

func Role(r *http.Request) string {
	v, _ := r.Context().Value(roleKey).(string)
	return v
}

// StudioID returns the caller's studio, or uuid.Nil if absent.
func StudioID(r *http.Request) uuid.UUID {
	if v, ok := r.Context().Value(studioIDKey).(string); ok {
		if id, err := uuid.Parse(v); err == nil {
			return id
		}
	}
	return uuid.Nil
}

func unauthorized(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusUnauthorized, msg)
}

func forbidden(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusForbidden, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
