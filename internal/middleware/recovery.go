package middleware

import (
	"log"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/nkatta/compta-ai/internal/apperr"
)

// Recovery 恐慌恢复中间件
// 捕获 handler 链中的 panic，记录堆栈后按 apperr 分类返回统一响应
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[PANIC] %s %s: %v\n%s", c.Request.Method, c.Request.URL.Path, r, debug.Stack())

				ae := apperr.Upstream("internal server error", nil)
				c.AbortWithStatusJSON(ae.Status(), gin.H{
					"code":    -1,
					"message": ae.Message,
				})
			}
		}()
		c.Next()
	}
}
