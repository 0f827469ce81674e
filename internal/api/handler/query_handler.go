package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/mm-shkurin/rlt-test-bot/internal/api/dto"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/ir"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/response"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/util"
	"github.com/mm-shkurin/rlt-test-bot/internal/service"
)

type QueryHandler struct {
	dispatcher service.QueryDispatcher
	querySvc   service.QueryService
}

func NewQueryHandler(dispatcher service.QueryDispatcher, querySvc service.QueryService) *QueryHandler {
	return &QueryHandler{
		dispatcher: dispatcher,
		querySvc:   querySvc,
	}
}

// Ask 提交问题并等待后台 worker 给出数值答案
func (s *QueryHandler) Ask(c *gin.Context) {
	var queryDTO dto.QueryDTO
	if !bindQuery(c, &queryDTO) {
		return
	}

	result, err := s.dispatcher.Submit(c.Request.Context(), queryDTO.Query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.QueryResultDTO{Result: result})
}

// Translate 只翻译问题，返回校验后的查询结构
func (s *QueryHandler) Translate(c *gin.Context) {
	var queryDTO dto.QueryDTO
	if !bindQuery(c, &queryDTO) {
		return
	}

	q, err := s.querySvc.Translate(c.Request.Context(), queryDTO.Query)
	if err != nil {
		response.Error(c, err)
		return
	}

	irDTO, err := toIRDTO(q)
	if err != nil {
		response.Error(c, service.UnExpectedError)
		return
	}
	response.Success(c, irDTO)
}

func bindQuery(c *gin.Context, queryDTO *dto.QueryDTO) bool {
	if err := c.ShouldBindJSON(queryDTO); err != nil {
		response.Error(c, fmt.Errorf("%w: %v", service.ErrParamInvalid, err))
		return false
	}
	if err := util.ValidateDTO(queryDTO); err != nil {
		response.Error(c, err)
		return false
	}
	return true
}

func toIRDTO(q ir.Query) (*dto.QueryIRDTO, error) {
	irDTO := &dto.QueryIRDTO{}
	if err := copier.Copy(irDTO, &q); err != nil {
		return nil, err
	}
	irDTO.DateField = q.ResolvedDateField()
	return irDTO, nil
}
