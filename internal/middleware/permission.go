package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/glamping-backend/internal/common/jwt"
	"github.com/dumeirei/glamping-backend/internal/common/response"
)

// roleRank 角色等级，高等级包含低等级的权限
var roleRank = map[string]int{
	jwt.RoleOperator:   1,
	jwt.RoleManager:    2,
	jwt.RoleSuperAdmin: 3,
}

// RequireRoles 要求指定角色之一
func RequireRoles(roles ...string) gin.HandlerFunc {
	roleSet := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role := GetRole(c)
		if role == "" {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}
		if _, ok := roleSet[role]; !ok {
			response.Forbidden(c, "权限不足")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireMinRole 要求角色不低于 min；删除预订、重算等运维操作使用
func RequireMinRole(min string) gin.HandlerFunc {
	need := roleRank[min]
	return func(c *gin.Context) {
		role := GetRole(c)
		if role == "" {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}
		if rank, ok := roleRank[role]; !ok || rank < need {
			response.Forbidden(c, "权限不足")
			c.Abort()
			return
		}
		c.Next()
	}
}
