package apperrors

import (
	"context"
	"errors"
)

// 查询链路的失败类型，各阶段通过 fmt.Errorf("%w: ...") 包装
var (
	ErrMalformedResponse = errors.New("模型返回内容无法解析")
	ErrValidation        = errors.New("查询校验失败")
	ErrSchemaMismatch    = errors.New("字段与数据表不匹配")
	ErrTimeout           = errors.New("请求超时")
	ErrStorage           = errors.New("数据存储异常")
	// ErrModelUnavailable 模型服务调用失败（非超时）
	ErrModelUnavailable = errors.New("模型服务不可用")
)

var kinds = []error{
	ErrMalformedResponse,
	ErrValidation,
	ErrSchemaMismatch,
	ErrTimeout,
	ErrStorage,
	ErrModelUnavailable,
}

// KindOf 返回 err 所属的失败类型，无法归类时返回 nil
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return nil
}

// IsTimeout 判断是否为超时错误（包括未包装的 context.DeadlineExceeded）
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}
