package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/mm-shkurin/rlt-test-bot/internal/api/dto"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/logger"
	"github.com/mm-shkurin/rlt-test-bot/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestTraceMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(TraceMiddleware())
	var seen string
	r.GET("/t", func(c *gin.Context) {
		seen = logger.TraceID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set(TraceHeader, "given-trace")
	r.ServeHTTP(w, req)
	assert.Equal(t, "given-trace", seen)
	assert.Equal(t, "given-trace", w.Header().Get(TraceHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/t", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "given-trace", seen)
	assert.Equal(t, seen, w.Header().Get(TraceHeader))
}

func TestRecoveryMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryMiddleware())
	r.GET("/panic", func(c *gin.Context) { panic("unknown query type") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, service.InternalServerError, resp.Code)
	assert.Equal(t, service.UnExpectedError.Error(), resp.Message)
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware())
	r.POST("/api/query", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/query", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAuditMiddlewareKeepsBody(t *testing.T) {
	r := gin.New()
	r.Use(AuditMiddleware())
	r.POST("/echo", func(c *gin.Context) {
		var body map[string]string
		require.NoError(t, c.ShouldBindJSON(&body))
		c.JSON(http.StatusOK, body)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"query":"x"}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"query":"x"}`, w.Body.String())

	w = httptest.NewRecorder()
	big := `{"query":"` + strings.Repeat("x", maxRequestBody) + `"}`
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(big)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
