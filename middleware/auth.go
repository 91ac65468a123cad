package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"homesite/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const RoleKey contextKey = "role"

// RoleAnon is the role carried by the public store key handed to visitors.
const RoleAnon = "anon"

// KeyClaims are the claims of a store key.
type KeyClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// IssueKey signs a store key for role. A zero ttl means the key never expires.
func IssueKey(secret []byte, role string, ttl time.Duration) (string, error) {
	claims := KeyClaims{Role: role}
	claims.IssuedAt = jwt.NewNumericDate(time.Now())
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// APIKeyMiddleware admits requests carrying a store key signed with secret.
// It only proves the caller holds the published key; it says nothing about
// who the caller is.
func APIKeyMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Browsers cannot set headers on websocket upgrades, so the query
			// string is checked first.
			tokenString := r.URL.Query().Get("apikey")
			if tokenString == "" {
				tokenString = r.Header.Get("apikey")
			}
			if tokenString == "" {
				tokenString = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			}

			if tokenString == "" {
				writeError(w, http.StatusUnauthorized, "No API key provided")
				return
			}

			claims := &KeyClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				logger.Sugar.Infof("Invalid API key: %v", err)
				writeError(w, http.StatusUnauthorized, "Invalid or expired API key")
				return
			}
			if claims.Role == "" {
				writeError(w, http.StatusUnauthorized, "API key carries no role")
				return
			}

			ctx := context.WithValue(r.Context(), RoleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
