package apperrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"plain", errors.New("boom"), nil},
		{"wrapped validation", fmt.Errorf("%w: bad table", ErrValidation), ErrValidation},
		{"double wrapped storage", fmt.Errorf("repo: %w", fmt.Errorf("%w: conn reset", ErrStorage)), ErrStorage},
		{"deadline", fmt.Errorf("llm call: %w", context.DeadlineExceeded), ErrTimeout},
		{"explicit timeout", ErrTimeout, ErrTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.True(t, IsTimeout(fmt.Errorf("%w: model", ErrTimeout)))
	assert.False(t, IsTimeout(ErrStorage))
	assert.False(t, IsTimeout(context.Canceled))
}
