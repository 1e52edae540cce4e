package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/crucial707/hci-lending/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

type key string

const (
	actorKey       key = "actor"
	actorHolderKey key = "actor_holder"
)

// actorHolder lets outer middleware observe the actor resolved by an inner JWTMiddleware.
type actorHolder struct {
	actor Actor
	set   bool
}

func withActorHolder(ctx context.Context, h *actorHolder) context.Context {
	return context.WithValue(ctx, actorHolderKey, h)
}

// Actor is the authenticated staff member performing a request. Its ID is the actor
// reference written on loans, returns, maintenance records and audit entries.
type Actor struct {
	ID       int
	Username string
	Role     string
}

// Claims are the JWT claims issued at login.
type Claims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for u valid for ttl.
func IssueToken(secret []byte, u *models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseToken(secret []byte, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID <= 0 {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// JWTMiddleware authenticates the bearer token and stores the Actor in the request context.
func JWTMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header", "unauthorized")
				return
			}

			tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				writeError(w, http.StatusUnauthorized, "authorization header must be a bearer token", "unauthorized")
				return
			}

			claims, err := parseToken(secret, tokenStr)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token", "unauthorized")
				return
			}

			actor := Actor{ID: claims.UserID, Username: claims.Username, Role: claims.Role}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// WithActor stores a in ctx and reports it to an enclosing RequestLog.
func WithActor(ctx context.Context, a Actor) context.Context {
	if h, ok := ctx.Value(actorHolderKey).(*actorHolder); ok {
		h.actor, h.set = a, true
	}
	return context.WithValue(ctx, actorKey, a)
}

// ActorFromContext returns the authenticated actor, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok
}
