package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_back_end/internal/models"
)

// rolePermissions : permissions accordées par rôle JWT.
var rolePermissions = map[string][]string{
	"admin":   {models.PERM_ORDERS_VIEW, models.PERM_ORDERS_EDIT},
	"support": {models.PERM_ORDERS_VIEW},
}

func hasPermission(role, permission string) bool {
	for _, p := range rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// RequirePermission vérifie que le rôle de l'utilisateur porte la permission.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(CtxUserID); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
			return
		}
		if !hasPermission(c.GetString(CtxRole), permission) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":               "Permission insuffisante",
				"required_permission": permission,
			})
			return
		}
		c.Next()
	}
}
