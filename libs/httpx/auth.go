package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/slotboard/slotboard/libs/auth"
)

const ctxKeyClaims ctxKey = 1

// ClaimsFromContext returns the verified token claims, or nil outside
// an authenticated route.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	v, _ := ctx.Value(ctxKeyClaims).(*auth.Claims)
	return v
}

// WithAuth verifies the bearer token on every request. RS256 tokens are
// checked against the JWKS client when one is configured; everything else
// falls back to the HS256 shared secret.
func WithAuth(jwtSecret string, jwksClient *auth.JWKSClient) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

			var claims *auth.Claims
			var err error
			if jwksClient != nil {
				var tokenHeader *auth.Header
				tokenHeader, err = auth.ParseHeader(token)
				if err == nil && tokenHeader.Alg == "RS256" && tokenHeader.Kid != "" {
					pub, keyErr := jwksClient.Get(tokenHeader.Kid)
					if keyErr != nil {
						http.Error(w, "invalid token", http.StatusUnauthorized)
						return
					}
					claims, err = auth.VerifyRS256(token, pub)
				} else {
					claims, err = auth.ParseAndVerifyHS256(token, jwtSecret)
				}
			} else {
				claims, err = auth.ParseAndVerifyHS256(token, jwtSecret)
			}
			if err != nil || claims == nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
