package middleware

import (
	"context"
	"net/http"
	"strings"

	"evalsheet/internal/domain/auth"
	"evalsheet/internal/domain/evaluation"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

// UserContext is the authenticated identity attached to the request.
type UserContext struct {
	UserID    string
	Roles     []string
	SessionID string
}

// Actor converts the identity into the role set the access resolver
// works with. Unknown role strings are dropped.
func (u UserContext) Actor() evaluation.Actor {
	actor := evaluation.Actor{UserID: u.UserID}
	for _, raw := range u.Roles {
		if role, err := evaluation.ParseRole(raw); err == nil {
			actor.Roles = append(actor.Roles, role)
		}
	}
	return actor
}

// Auth parses a bearer token when present. Requests without a valid
// token pass through anonymous; route guards decide what needs auth.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, UserContext{
				UserID:    claims.UserID,
				Roles:     claims.Roles,
				SessionID: claims.SessionID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUser(ctx context.Context) (UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(UserContext)
	return user, ok
}
