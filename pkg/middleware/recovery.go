package middleware

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/travelgate/pkg/apperror"
)

// Recovery はパニックからの回復を行うGinミドルウェアを返す。
// パニック発生時はログに出力し、内部エラーとしてErrorHandlerと同じ形式で500を返す。
func Recovery(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[PANIC] %s %s: %v", c.Request.Method, c.Request.URL.Path, r)
				respondError(c, apperror.Internal(fmt.Errorf("panic: %v", r)), production)
			}
		}()
		c.Next()
	}
}
