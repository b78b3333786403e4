package middleware

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/travelgate/pkg/apperror"
)

// ErrorHandler はハンドラやミドルウェアが記録したエラーをJSONレスポンスに変換する
// Ginミドルウェアを返す。他のミドルウェアより前に登録すること。
//
// レスポンスは {"error": <message>} 形式で、ステータスとメッセージは
// apperror.Respondの公開ポリシーに従う。
func ErrorHandler(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		respondError(c, c.Errors.Last().Err, production)
	}
}

// respondError はエラーをステータスとメッセージに変換してレスポンスを書き込む。
// 本番環境以外ではエラーの詳細をサーバー側のログに出力する。
func respondError(c *gin.Context, err error, production bool) {
	status, message := apperror.Respond(err, production)
	if !production {
		log.Printf("[Error] %s %s: status=%d, request_id=%s, error=%v",
			c.Request.Method, c.Request.URL.Path, status, GetRequestID(c), err)
	}

	if c.Writer.Written() {
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
