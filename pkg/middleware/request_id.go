package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// headerRequestID はリクエストIDを伝播するHTTPヘッダーキー。
	headerRequestID = "X-Request-ID"
	// ctxKeyRequestID はGinコンテキストにリクエストIDを格納するキー。
	ctxKeyRequestID = "request_id"
)

// RequestID はリクエストごとにIDを付与するGinミドルウェアを返す。
// クライアントがX-Request-IDを指定した場合はその値を引き継ぐ。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// GetRequestID はGinコンテキストからリクエストIDを取得する。
func GetRequestID(c *gin.Context) string {
	return c.GetString(ctxKeyRequestID)
}
