package queue

import (
	"errors"
	"fmt"

	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/apperrors"
)

// ErrJobFailed 无法归类的任务失败（例如 worker 内部 panic）
var ErrJobFailed = errors.New("查询任务执行失败")

const (
	KindMalformedResponse = "malformed_response"
	KindValidation        = "validation"
	KindSchemaMismatch    = "schema_mismatch"
	KindTimeout           = "timeout"
	KindStorage           = "storage"
	KindModelUnavailable  = "model_unavailable"
	KindUnexpected        = "unexpected"
)

var kindErrors = map[string]error{
	KindMalformedResponse: apperrors.ErrMalformedResponse,
	KindValidation:        apperrors.ErrValidation,
	KindSchemaMismatch:    apperrors.ErrSchemaMismatch,
	KindTimeout:           apperrors.ErrTimeout,
	KindStorage:           apperrors.ErrStorage,
	KindModelUnavailable:  apperrors.ErrModelUnavailable,
}

func Success(value int64) Outcome {
	return Outcome{Value: value}
}

// Failure 把错误编码为可跨进程传递的结果
func Failure(err error) Outcome {
	kind := KindUnexpected
	if k := apperrors.KindOf(err); k != nil {
		for name, target := range kindErrors {
			if target == k {
				kind = name
				break
			}
		}
	}
	return Outcome{Kind: kind, Message: err.Error()}
}

// Err 还原为带类型的错误，成功时返回 nil
func (o Outcome) Err() error {
	if o.Kind == "" {
		return nil
	}
	target, ok := kindErrors[o.Kind]
	if !ok {
		target = ErrJobFailed
	}
	return fmt.Errorf("%w: %s", target, o.Message)
}
