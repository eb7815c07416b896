package api

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"

	"github.com/henriquecmelo1/library-app/pkg/catalog"
	"github.com/henriquecmelo1/library-app/pkg/catalog/auth"
)

type contextKey string

const currentUserKey contextKey = "current_user"

// Authenticated verifies the bearer token (signature and expiry) and
// loads the token subject. A token whose subject no longer exists is
// rejected the same way as a bad token.
func Authenticated(tokens *auth.TokenService, service catalog.Service) func(http.Handler) http.Handler {
	verifier := jwtauth.Verifier(tokens.JWTAuth())

	return func(next http.Handler) http.Handler {
		return verifier(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				renderUnauthorized(w, r)
				return
			}

			userID, err := auth.UserIDFromClaims(claims)
			if err != nil {
				renderUnauthorized(w, r)
				return
			}

			user, err := service.GetUser(r.Context(), userID)
			if err != nil {
				renderUnauthorized(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), currentUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		}))
	}
}

// CurrentUser returns the authenticated user placed in the context by
// Authenticated.
func CurrentUser(ctx context.Context) (*catalog.User, bool) {
	user, ok := ctx.Value(currentUserKey).(*catalog.User)
	return user, ok
}

func renderUnauthorized(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, errorResponse{Error: "Unauthorized"})
}
