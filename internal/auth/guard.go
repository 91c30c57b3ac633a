package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/lunagic/agora/internal/apperror"
	"github.com/lunagic/poseidon/poseidon"
)

type userIDKey struct{}

// UserID is the id of the user the request was authenticated as.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}

	return strings.TrimSpace(token), true
}

func (tokens Tokens) guard(required bool) poseidon.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, present := bearerToken(r)
			if !present {
				if required {
					apperror.Respond(w, r, apperror.Unauthorized("Missing bearer token"))
					return
				}

				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.ParseAccess(token)
			if err != nil {
				apperror.Respond(w, r, apperror.Unauthorized("Invalid token", err))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
		})
	}
}

// Required rejects requests without a valid access token.
func (tokens Tokens) Required() poseidon.Middleware {
	return tokens.guard(true)
}

// Public lets anonymous requests through but still rejects a bad token.
func (tokens Tokens) Public() poseidon.Middleware {
	return tokens.guard(false)
}

// Actor is the authenticated user of r, a 401 for anonymous requests.
func Actor(r *http.Request) (string, error) {
	id, ok := UserID(r.Context())
	if !ok {
		return "", apperror.Unauthorized("Authentication required")
	}

	return id, nil
}
