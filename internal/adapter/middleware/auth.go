package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	subjectKey = "auth.subject"
	claimsKey  = "auth.claims"
)

// Claims is what the identity provider puts in a bearer token. Subject is
// the external user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone_number,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTAuth verifies an HS256 bearer token and stores its subject on the
// echo context.
func JWTAuth(secret []byte) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyFn := func(*jwt.Token) (any, error) { return secret, nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token", "code": "UNAUTHORIZED"})
			}
			claims := &Claims{}
			tok, err := parser.ParseWithClaims(raw, claims, keyFn)
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid bearer token", "code": "UNAUTHORIZED"})
			}
			sub := strings.TrimSpace(claims.Subject)
			if sub == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "token has no subject", "code": "UNAUTHORIZED"})
			}
			c.Set(subjectKey, sub)
			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// Subject returns the authenticated external user id, or "" outside JWTAuth.
func Subject(c echo.Context) string {
	s, _ := c.Get(subjectKey).(string)
	return s
}

// ClaimsFrom returns the verified token claims, or nil outside JWTAuth.
func ClaimsFrom(c echo.Context) *Claims {
	cl, _ := c.Get(claimsKey).(*Claims)
	return cl
}

// SetSubject lets handlers run without a token, e.g. in tests.
func SetSubject(c echo.Context, sub string) { c.Set(subjectKey, sub) }

func bearerToken(h string) (string, bool) {
	const prefix = "bearer "
	h = strings.TrimSpace(h)
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}
