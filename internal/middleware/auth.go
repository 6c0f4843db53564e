package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"auctionhouse-api/internal/auth"
	"auctionhouse-api/pkg/apierror"
)

// UserIDKey is the context key for the authenticated user id.
const UserIDKey contextKey = "user_id"

// GetUserID returns the authenticated user id, or "" for anonymous requests.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// WithUserID returns ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// token subject as the user id.
func RequireAuth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := authenticate(jwtManager, r)
			if err != nil {
				writeError(w, apierror.Unauthorized(err.Error()))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// OptionalAuth identifies the caller when a token is present and lets
// anonymous requests through. A token that is present but invalid is still
// rejected.
func OptionalAuth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := authenticate(jwtManager, r)
			switch {
			case errors.Is(err, auth.ErrMissingToken):
				next.ServeHTTP(w, r)
			case err != nil:
				writeError(w, apierror.Unauthorized(err.Error()))
			default:
				next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
			}
		})
	}
}

func authenticate(jwtManager *auth.JWTManager, r *http.Request) (string, error) {
	token := bearerToken(r)
	if token == "" {
		return "", auth.ErrMissingToken
	}
	claims, err := jwtManager.Validate(token)
	if err != nil {
		return "", auth.ErrInvalidToken
	}
	return claims.UserID(), nil
}

// bearerToken reads the Authorization header. Browsers cannot set headers on
// websocket upgrades, so the access_token query parameter is accepted there.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

// writeError writes an API error response.
func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}
