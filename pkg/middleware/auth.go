package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Dias221467/social_network/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

// UserContextKey holds the authenticated user's id in a request context.
const UserContextKey contextKey = "userID"

// TokenVerifier returns the user id carried by a valid bearer token.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// AuthMiddleware requires an "Authorization: Bearer <token>" header.
// A missing token is answered with 401, an invalid or expired one with 403.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				logger.Log.WithField("path", r.URL.Path).Warn("No token provided")
				writeMessage(w, http.StatusUnauthorized, "No token provided")
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				logger.Log.WithError(err).Warn("Token verification failed")
				writeMessage(w, http.StatusForbidden, "Invalid token")
				return
			}
			id, err := primitive.ObjectIDFromHex(userID)
			if err != nil {
				writeMessage(w, http.StatusForbidden, "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
		})
	}
}

// WithUserID returns a copy of ctx carrying id.
func WithUserID(ctx context.Context, id primitive.ObjectID) context.Context {
	return context.WithValue(ctx, UserContextKey, id)
}

// GetUserID returns the authenticated user's id, if any.
func GetUserID(ctx context.Context) (primitive.ObjectID, bool) {
	id, ok := ctx.Value(UserContextKey).(primitive.ObjectID)
	return id, ok && !id.IsZero()
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
