package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/travelgate/pkg/apperror"
	"github.com/nao1215/travelgate/pkg/auth"
)

// RequireAuth はPrincipalの無いリクエストを401で拒否するGinミドルウェアを返す。
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetPrincipal(c) == nil {
			abortWithError(c, apperror.Unauthorized())
			return
		}
		c.Next()
	}
}

// RequireRole はPrincipalがrolesのいずれかを持つ場合のみ通過させるGinミドルウェアを返す。
// Principalが無い場合は401、ロールが不足する場合は403で拒否する。
func RequireRole(authorizer *auth.Authorizer, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision, err := authorizer.Authorize(c.Request.Context(), GetPrincipal(c), roles...)
		switch {
		case err == nil:
			c.Set(ctxKeyRoles, decision.Roles)
			c.Next()
		case errors.Is(err, auth.ErrUnauthenticated):
			abortWithError(c, apperror.Unauthorized())
		case errors.Is(err, auth.ErrForbidden):
			abortWithError(c, apperror.Forbidden())
		default:
			abortWithError(c, apperror.Internal(err))
		}
	}
}

// DevOnly は本番環境でのリクエストを400で拒否するGinミドルウェアを返す。
// 開発環境でのみ使用する少数のルートに適用する。
func DevOnly(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if production {
			abortWithError(c, apperror.NotInProduction())
			return
		}
		c.Next()
	}
}

// abortWithError はエラーをGinコンテキストに記録してリクエストを中断する。
// レスポンスへの変換はErrorHandlerが行う。
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
