package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nkatta/compta-ai/internal/apperr"
)

// Response 统一响应格式
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// success 返回 200 成功响应
func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// created 返回 201 创建成功响应
func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "created",
		Data:    data,
	})
}

// badRequest 返回 400 参数错误
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    -1,
		Message: msg,
	})
}

// errorResponse 按 apperr 类别映射状态码
// 429 由限流中间件直接产出，不经过此处
func errorResponse(c *gin.Context, err error) {
	ae := apperr.From(err)
	c.JSON(ae.Status(), Response{
		Code:    -1,
		Message: ae.Error(),
	})
}
