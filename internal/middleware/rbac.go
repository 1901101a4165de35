package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/campuslab/project-jury-api/internal/models"
	appErrors "github.com/campuslab/project-jury-api/pkg/errors"
	"github.com/campuslab/project-jury-api/pkg/response"
)

// selfMarker in an allow-list grants access when the :id path parameter
// matches the requester's own user ID.
const selfMarker = "SELF"

// RBAC restricts a route to the given roles. Must run after JWT.
func RBAC(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFrom(c)
		if !ok {
			abort(c, appErrors.ErrUnauthorized)
			return
		}

		for _, a := range allowed {
			if a == selfMarker {
				if id := c.Param("id"); id != "" && id == claims.UserID {
					c.Next()
					return
				}
				continue
			}
			if models.UserRole(a) == claims.Role {
				c.Next()
				return
			}
		}

		abort(c, appErrors.ErrForbidden)
	}
}

// RequireRoles is RBAC with typed roles and no self access.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}

func claimsFrom(c *gin.Context) (*models.JWTClaims, bool) {
	v, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*models.JWTClaims)
	return claims, ok
}

func abort(c *gin.Context, err error) {
	response.Error(c, err)
	c.Abort()
}
