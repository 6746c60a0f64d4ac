package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"gh-integration/internal/dto"
	"gh-integration/internal/pkg/auth"
	"gh-integration/internal/pkg/jwt"
	"gh-integration/pkg/constants"
	pkgErrors "gh-integration/pkg/errors"
	"gh-integration/pkg/responses"
)

// AuthMiddleware JWT认证中间件
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(constants.HeaderAuthorization)
		if authHeader == "" {
			responses.ErrorWithCode(c, pkgErrors.CodeUnauthorized, "缺少Authorization Header")
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, constants.HeaderBearerPrefix) {
			responses.ErrorWithCode(c, pkgErrors.CodeUnauthorized, "Authorization格式错误")
			c.Abort()
			return
		}

		// 只接受 AccessToken
		token := strings.TrimPrefix(authHeader, constants.HeaderBearerPrefix)
		claims, err := jwt.ValidateToken(token, constants.JWTTypeAccess)
		if err != nil {
			responses.Error(c, err)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUser, &dto.UserInfo{
			ID:          claims.UserID,
			Username:    claims.Username,
			DisplayName: claims.DisplayName,
			AuthType:    claims.AuthType,
			Roles:       claims.Roles,
		})
		c.Set(constants.ContextKeyUserID, claims.UserID)
		c.Set(constants.ContextKeyUsername, claims.Username)

		c.Next()
	}
}

// RequirePermission 校验当前用户角色是否包含指定权限, 需在 AuthMiddleware 之后使用
func RequirePermission(need auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			responses.ErrorWithCode(c, pkgErrors.CodeUnauthorized, "未登录")
			c.Abort()
			return
		}
		if !auth.Allow(user.Roles, need) {
			responses.ErrorWithCode(c, pkgErrors.CodeForbidden, "没有权限: "+string(need))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser 读取认证中间件写入的用户
func CurrentUser(c *gin.Context) (*dto.UserInfo, bool) {
	v, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := v.(*dto.UserInfo)
	return user, ok
}
