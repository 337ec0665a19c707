package handler

import (
	"errors"
	"net/http"

	"Lee_Tribe/internal/middleware"
	"Lee_Tribe/internal/service"

	"github.com/gin-gonic/gin"
)

// callerAccount 取中间件注入的调用方账号
func callerAccount(c *gin.Context) string {
	v, _ := c.Get(middleware.ContextAccountIDKey)
	account, _ := v.(string)
	return account
}

// statusOf 业务错误到状态码：查不到的404，冲突类的400，其余500
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrProfileNotFound), errors.Is(err, service.ErrGroupNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrProfileAlreadyExists),
		errors.Is(err, service.ErrAlreadyMember),
		errors.Is(err, service.ErrNotMember):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortErr(c *gin.Context, err error) {
	c.JSON(statusOf(err), gin.H{"msg": err.Error()})
}
