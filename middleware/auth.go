package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/WhisperedLullaby/tournament-tracker-sub000/models"
	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const identityContextKey contextKey = "identity"

const (
	jwtClaimUserID = "user_id"
	jwtClaimEmail  = "email"
)

// Authenticator parses bearer tokens issued by the external auth
// provider and places the resulting Identity on the request context.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Optional extracts the identity when a valid bearer token is present
// and otherwise lets the request through anonymously. Handlers that
// require auth check for a nil identity themselves, which lets the
// service layer return the precise error.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.identityFromRequest(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		if identity != nil {
			r = r.WithContext(context.WithValue(r.Context(), identityContextKey, identity))
		}
		next.ServeHTTP(w, r)
	})
}

// Require rejects requests without a valid bearer token.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.identityFromRequest(r)
		if err != nil || identity == nil {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) identityFromRequest(r *http.Request) (*models.Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, nil
	}
	raw := strings.TrimPrefix(header, "Bearer ")
	if raw == header {
		return nil, jwt.ErrTokenMalformed
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}

	userIDClaim, ok := claims[jwtClaimUserID].(float64)
	if !ok || userIDClaim <= 0 || userIDClaim != float64(int(userIDClaim)) {
		return nil, jwt.ErrTokenInvalidClaims
	}
	email, _ := claims[jwtClaimEmail].(string)

	return &models.Identity{UserID: int(userIDClaim), Email: email}, nil
}

// IdentityFromContext returns the authenticated identity, or nil for
// anonymous requests.
func IdentityFromContext(ctx context.Context) *models.Identity {
	identity, _ := ctx.Value(identityContextKey).(*models.Identity)
	return identity
}
