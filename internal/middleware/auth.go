package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/nkatta/compta-ai/internal/apperr"
	"github.com/nkatta/compta-ai/internal/model"
	"github.com/nkatta/compta-ai/internal/service"
)

// RequireAuth 要求有效认证的中间件
// 凭证缺失或无效返回 401；令牌有效但无工作区绑定返回 403
// 认证失败在任何检索或模型工作开始之前短路
func RequireAuth(svc *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, err := svc.Auth.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			ae := apperr.From(err)
			c.JSON(ae.Status(), gin.H{
				"code":    -1,
				"message": ae.Message,
			})
			c.Abort()
			return
		}

		c.Set("caller", caller)
		c.Set("user_id", caller.ID)
		c.Next()
	}
}

// GetCaller 从上下文获取当前调用者
func GetCaller(c *gin.Context) (*model.CallerInfo, bool) {
	caller, exists := c.Get("caller")
	if !exists {
		return nil, false
	}
	info, ok := caller.(*model.CallerInfo)
	return info, ok
}

// GetUserID 从上下文获取当前用户ID
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok
}
