package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nkatta/compta-ai/internal/apperr"
	"github.com/nkatta/compta-ai/internal/service"
	"github.com/nkatta/compta-ai/internal/service/throttle"
)

// Throttle 限流中间件
// key 来自凭证摘要；拒绝走 apperr 分类并附带 Retry-After 头
// 必须排在 RequireAuth 之后：认证失败先于限流短路
func Throttle(svc *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := throttle.KeyFromAuthHeader(c.GetHeader("Authorization"))

		decision := svc.Throttle.Check(c.Request.Context(), key)
		if !decision.Allowed {
			ae := apperr.Throttled(decision.RetryAfter)
			c.Header("Retry-After", strconv.Itoa(ae.RetryAfter))
			c.AbortWithStatusJSON(ae.Status(), gin.H{
				"code":        -1,
				"message":     ae.Message,
				"retry_after": ae.RetryAfter,
			})
			return
		}

		c.Next()
	}
}
