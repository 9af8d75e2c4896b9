package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/unrolled/render"
)

type sessionKey struct{}

// NewSessionToken signs a session for userID. The web layer only ever reads
// the subject; issuing sessions belongs to whatever fronts this service.
func NewSessionToken(secret []byte, userID string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// sessionMiddleware requires an HS256 bearer token and puts its subject on
// the request context as the current user id.
func sessionMiddleware(secret []byte, render *render.Render) func(http.Handler) http.Handler {
	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				render.JSON(w, http.StatusUnauthorized, errorBody("missing session"))
				return
			}

			tok, err := jwt.Parse(raw, keyFunc, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !tok.Valid {
				render.JSON(w, http.StatusUnauthorized, errorBody("invalid session"))
				return
			}
			sub, err := tok.Claims.GetSubject()
			if err != nil || sub == "" {
				render.JSON(w, http.StatusUnauthorized, errorBody("session has no subject"))
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// currentUser is "" outside of the session middleware.
func currentUser(r *http.Request) string {
	u, _ := r.Context().Value(sessionKey{}).(string)
	return u
}
