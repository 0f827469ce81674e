package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mm-shkurin/rlt-test-bot/internal/api/dto"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/response"
	"github.com/mm-shkurin/rlt-test-bot/internal/service"
)

// Pinger 依赖的连通性检查
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc 适配普通函数
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type PingHandler struct {
	deps map[string]Pinger
}

func NewPingHandler(deps map[string]Pinger) *PingHandler {
	return &PingHandler{deps: deps}
}

// Ping 健康检查，任一依赖不可用时返回 503
func (s *PingHandler) Ping(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := make(map[string]string, len(s.deps))
	healthy := true
	for name, dep := range s.deps {
		if err := dep.Ping(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	if !healthy {
		c.JSON(http.StatusOK, dto.Response{Code: service.ServiceUnavailable, Message: "unhealthy", Data: status})
		return
	}
	response.Success(c, status)
}
