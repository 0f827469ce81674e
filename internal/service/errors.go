package service

import (
	"errors"

	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/apperrors"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/queue"
)

const (
	BadRequest          = 400
	UnprocessableEntity = 422
	InternalServerError = 500
	BadGateway          = 502
	ServiceUnavailable  = 503
	GatewayTimeout      = 504
)

var (
	ErrParamInvalid = errors.New("参数错误")
	ErrQueueFull    = queue.ErrFull
	ErrWaitTimeout  = queue.ErrWaitTimeout
	UnExpectedError = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid: BadRequest,
	ErrQueueFull:    ServiceUnavailable,
	ErrWaitTimeout:  GatewayTimeout,
	UnExpectedError: InternalServerError,

	queue.ErrJobFailed: InternalServerError,

	apperrors.ErrValidation:        BadRequest,
	apperrors.ErrSchemaMismatch:    UnprocessableEntity,
	apperrors.ErrMalformedResponse: BadGateway,
	apperrors.ErrModelUnavailable:  BadGateway,
	apperrors.ErrTimeout:           GatewayTimeout,
	apperrors.ErrStorage:           InternalServerError,
}

// CodeOf 返回错误对应的业务码，支持被 fmt.Errorf("%w") 包装过的错误
func CodeOf(err error) (int, bool) {
	code, sentinel := classify(err)
	return code, sentinel != nil
}

// MessageOf 返回给客户端的错误信息，5xx 只给出哨兵错误的文案，细节留在日志里
func MessageOf(err error) string {
	code, sentinel := classify(err)
	if sentinel == nil {
		return UnExpectedError.Error()
	}
	if code >= InternalServerError {
		return sentinel.Error()
	}
	return err.Error()
}

func classify(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	if code, ok := ErrorMap[err]; ok {
		return code, err
	}
	if kind := apperrors.KindOf(err); kind != nil {
		return ErrorMap[kind], kind
	}
	for target, code := range ErrorMap {
		if errors.Is(err, target) {
			return code, target
		}
	}
	return 0, nil
}
