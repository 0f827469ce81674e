package response

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/mm-shkurin/rlt-test-bot/internal/api/dto"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/apperrors"
	"github.com/mm-shkurin/rlt-test-bot/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func render(t *testing.T, fn func(c *gin.Context)) dto.Response {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/query", nil)
	fn(c)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSuccess(t *testing.T) {
	resp := render(t, func(c *gin.Context) { Success(c, dto.QueryResultDTO{Result: 4}) })
	assert.Equal(t, Ok, resp.Code)
	assert.Equal(t, map[string]any{"result": float64(4)}, resp.Data)
}

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"wrapped validation", fmt.Errorf("%w: forbidden keyword \"drop\"", apperrors.ErrValidation), service.BadRequest, ""},
		{"schema", fmt.Errorf("%w: field", apperrors.ErrSchemaMismatch), service.UnprocessableEntity, ""},
		{"timeout", fmt.Errorf("%w: model", apperrors.ErrTimeout), service.GatewayTimeout, ""},
		{"bare deadline", context.DeadlineExceeded, service.GatewayTimeout, ""},
		{"storage hides driver detail", fmt.Errorf("%w: dial tcp 10.0.0.1:3306: connection refused", apperrors.ErrStorage), service.InternalServerError, apperrors.ErrStorage.Error()},
		{"model hides transport detail", fmt.Errorf("%w: gigachat chat: status 500: upstream", apperrors.ErrModelUnavailable), service.BadGateway, apperrors.ErrModelUnavailable.Error()},
		{"client error keeps detail", fmt.Errorf("%w: forbidden keyword \"drop\"", apperrors.ErrValidation), service.BadRequest, apperrors.ErrValidation.Error() + ": forbidden keyword \"drop\""},
		{"queue full", service.ErrQueueFull, service.ServiceUnavailable, service.ErrQueueFull.Error()},
		{"unknown hides detail", errors.New("dial tcp 10.0.0.1:3306"), InternalServerError, service.UnExpectedError.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := render(t, func(c *gin.Context) { Error(c, tt.err) })
			assert.Equal(t, tt.code, resp.Code)
			assert.Nil(t, resp.Data)
			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Message)
			}
		})
	}
}
