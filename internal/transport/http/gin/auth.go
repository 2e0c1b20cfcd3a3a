package httpgin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin        = "admin"
	RoleVenueManager = "venueManager"
	RoleEventManager = "eventManager"
	RoleUser         = "user"
)

// AuthMiddleware validates the Bearer token and stores the "sub" and "role"
// claims in the gin context under "user_id" and "role".
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				ErrorResponse{Error: "missing bearer token"},
			)
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")

		tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				ErrorResponse{Error: "invalid token"},
			)
			return
		}

		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				ErrorResponse{Error: "invalid claims"},
			)
			return
		}

		sub, _ := claims["sub"].(string)
		if sub == "" {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				ErrorResponse{Error: "invalid subject"},
			)
			return
		}

		role, _ := claims["role"].(string)

		c.Set("user_id", sub)
		c.Set("role", role)

		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated role is in the
// allowed set. An admin passes every check.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		role := c.GetString("role")
		if role != RoleAdmin && !allowed[role] {
			c.AbortWithStatusJSON(
				http.StatusForbidden,
				ErrorResponse{Error: "forbidden"},
			)
			return
		}

		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString("user_id")
}
