package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"kitabu/internal/domain/owner"
	"kitabu/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthMiddleware struct {
	jwtService *jwt.Service
}

const (
	ctxOwnerIDKey   = "owner_id"
	ctxOwnerRoleKey = "owner_role"
)

var roleHierarchy = map[owner.Role]int{
	owner.RoleMember: 1,
	owner.RoleAdmin:  2,
}

func NewAuthMiddleware(jwtService *jwt.Service) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimSpace(authHeader[len("Bearer "):])
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Access token required",
			})
			c.Abort()
			return
		}

		claims, err := m.jwtService.ValidateToken(token)
		if err != nil {
			slog.Warn("Token validation failed in auth middleware", "error", err.Error())
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(ctxOwnerIDKey, claims.OwnerID)
		c.Set(ctxOwnerRoleKey, owner.Role(claims.Role))
		c.Set("jwt_claims", map[string]any{
			"owner_id": claims.OwnerID.String(),
			"role":     claims.Role,
		})
		c.Next()
	}
}

func (m *AuthMiddleware) RequireRoleAtLeast(minRole owner.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetOwnerRole(c)
		if !ok {
			// Unexpected error: should be used after RequireAuth()
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
			c.Abort()
			return
		}

		if !hasMinimumRole(role, minRole) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func hasMinimumRole(role, minRole owner.Role) bool {
	level, exists := roleHierarchy[role]
	minLevel, minExists := roleHierarchy[minRole]
	return exists && minExists && level >= minLevel
}

func GetOwnerID(c *gin.Context) (uuid.UUID, bool) {
	ownerID, exists := c.Get(ctxOwnerIDKey)
	if !exists {
		return uuid.Nil, false
	}

	id, ok := ownerID.(uuid.UUID)
	return id, ok
}

func GetOwnerRole(c *gin.Context) (owner.Role, bool) {
	ownerRole, exists := c.Get(ctxOwnerRoleKey)
	if !exists {
		return "", false
	}

	role, ok := ownerRole.(owner.Role)
	return role, ok
}
