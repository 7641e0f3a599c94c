// Package router 注册 HTTP 路由
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/nkatta/compta-ai/internal/handler"
	"github.com/nkatta/compta-ai/internal/middleware"
	"github.com/nkatta/compta-ai/internal/service"
)

// SetupRouter 装配路由与中间件
// 受保护路由统一经过认证和限流，顺序固定：认证失败不消耗限流配额
func SetupRouter(handlers *handler.Handlers, svc *service.Services) *gin.Engine {
	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware())

	// 健康检查，不鉴权
	r.GET("/health", handlers.System.Health)

	v1 := r.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", handlers.Auth.Register)
			authGroup.POST("/login", handlers.Auth.Login)
			authGroup.GET("/me", middleware.RequireAuth(svc), handlers.Auth.Me)
		}

		protected := v1.Group("")
		protected.Use(middleware.RequireAuth(svc), middleware.Throttle(svc))
		{
			protected.POST("/embedding", handlers.Embedding.Dispatch)
			protected.POST("/chat", handlers.Chat.Converse)
			protected.GET("/chat/history", handlers.Chat.History)
			protected.POST("/knowledge", handlers.Knowledge.Create)
			protected.GET("/knowledge/:id", handlers.Knowledge.Get)
		}
	}

	return r
}
