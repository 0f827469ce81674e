package util

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/apperrors"
)

var validate = validator.New()

// ValidateDTO 按 validate 标签校验结构体，只报告第一个失败的字段
func ValidateDTO(dto any) error {
	if err := validate.Struct(dto); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			firstError := vErrs[0]
			return fmt.Errorf("%w: 字段 [%s] 校验失败，规则 [%s]",
				apperrors.ErrValidation,
				firstError.Namespace(),
				firstError.Tag())
		}
		return err
	}
	return nil
}
