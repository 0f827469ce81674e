package middleware

import (
	"fmt"
	log "log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/response"
	"github.com/mm-shkurin/rlt-test-bot/internal/service"
)

// RecoveryMiddleware 捕获 panic，按统一格式返回系统异常
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.ErrorContext(c.Request.Context(), "Panic Recovered",
			"panic", fmt.Sprint(recovered),
			"stack", string(debug.Stack()),
		)
		response.Error(c, service.UnExpectedError)
		c.Abort()
	})
}
