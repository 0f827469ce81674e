package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mm-shkurin/rlt-test-bot/internal/api/middleware"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/logger"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	logger.SetupGin(r)
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", group.PingHandler.Ping)

		queryGroup := apiGroup.Group("/query")
		{
			queryGroup.POST("", group.QueryHandler.Ask)
			queryGroup.POST("/translate", group.QueryHandler.Translate)
		}
	}

	return r
}
