package util

import (
	"testing"

	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name  string `validate:"required,max=5"`
	Inner struct {
		Port int `validate:"min=1"`
	}
}

func TestValidateDTO(t *testing.T) {
	ok := sample{Name: "abc"}
	ok.Inner.Port = 80
	assert.NoError(t, ValidateDTO(&ok))

	bad := sample{Name: "toolong"}
	bad.Inner.Port = 80
	err := ValidateDTO(&bad)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "sample.Name")
	assert.Contains(t, err.Error(), "max")

	nested := sample{Name: "a"}
	err = ValidateDTO(&nested)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "sample.Inner.Port")
}
