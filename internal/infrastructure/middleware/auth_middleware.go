package middleware

import (
	"errors"
	"strings"

	"mediagate/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const principalContextKey = "principal_id"

var errInvalidToken = errors.New("invalid token")

// Claims are the viewer-identity claims carried by the session JWT. The
// identity provider mints these; this service only verifies them.
type Claims struct {
	PrincipalID domain.PrincipalID `json:"principal_id"`
	jwt.RegisteredClaims
}

func validateToken(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		return nil, errInvalidToken
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.PrincipalID != "" {
		return claims, nil
	}
	return nil, errInvalidToken
}

// PrincipalMiddleware resolves the requesting principal from a Bearer
// token. A missing or invalid token resolves to the anonymous principal
// rather than rejecting the request: free content must stay reachable
// without credentials, and the entitlement evaluator is what decides
// whether anonymity is sufficient.
func PrincipalMiddleware(jwtSecret string) gin.HandlerFunc {
	secret := []byte(jwtSecret)
	return func(c *gin.Context) {
		principal := domain.AnonymousPrincipal

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				if claims, err := validateToken(parts[1], secret); err == nil {
					principal = claims.PrincipalID
				}
			}
		}

		c.Set(principalContextKey, principal)
		c.Next()
	}
}

// PrincipalFromContext returns the principal resolved by
// PrincipalMiddleware, defaulting to anonymous.
func PrincipalFromContext(c *gin.Context) domain.PrincipalID {
	if v, exists := c.Get(principalContextKey); exists {
		if p, ok := v.(domain.PrincipalID); ok {
			return p
		}
	}
	return domain.AnonymousPrincipal
}
