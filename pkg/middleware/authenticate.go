package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/nao1215/travelgate/pkg/auth"
)

const (
	// ctxKeyPrincipal はGinコンテキストにPrincipalを格納するキー。
	ctxKeyPrincipal = "principal"
	// ctxKeyRoles はGinコンテキストに認可時の有効ロールを格納するキー。
	ctxKeyRoles = "effective_roles"
)

// Authenticate はリクエストの資格情報をPrincipalに解決するGinミドルウェアを返す。
//
// 解決に成功した場合のみGinコンテキストとリクエストのcontext.ContextにPrincipalを設定する。
// 資格情報が無い・不正な場合もリクエストは中断せず、拒否はRequireAuthとRequireRoleに委ねる。
func Authenticate(resolver auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := ExtractToken(c.Request.Header)
		if !ok {
			c.Next()
			return
		}

		principal, ok := resolver.Resolve(token)
		if !ok {
			c.Next()
			return
		}

		c.Set(ctxKeyPrincipal, principal)
		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

// GetPrincipal はGinコンテキストからPrincipalを取得する。
// Authenticateミドルウェアが事前に適用されている必要がある。未認証の場合はnilを返す。
func GetPrincipal(c *gin.Context) *auth.Principal {
	v, ok := c.Get(ctxKeyPrincipal)
	if !ok {
		return nil
	}
	p, _ := v.(*auth.Principal)
	return p
}

// GetUserID はGinコンテキストからPrincipalのIDを取得する。
// 未認証の場合は空文字列を返す。
func GetUserID(c *gin.Context) string {
	if p := GetPrincipal(c); p != nil {
		return p.ID
	}
	return ""
}

// GetEffectiveRoles はRequireRoleが許可した際の有効ロールを取得する。
// Directoryによる昇格があった場合はadminを含む。
func GetEffectiveRoles(c *gin.Context) []string {
	v, ok := c.Get(ctxKeyRoles)
	if !ok {
		return nil
	}
	roles, _ := v.([]string)
	return roles
}
