package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/apperrors"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/catalog"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranslator struct {
	q   ir.Query
	err error
}

func (f *fakeTranslator) Translate(ctx context.Context, text string) (ir.Query, error) {
	return f.q, f.err
}

type fakeRepo struct {
	value       int64
	err         error
	got         ir.Query
	hasDeadline bool
	calls       int
}

func (f *fakeRepo) Aggregate(ctx context.Context, q ir.Query) (int64, error) {
	f.calls++
	f.got = q
	_, f.hasDeadline = ctx.Deadline()
	return f.value, f.err
}

func TestAnswer(t *testing.T) {
	q := ir.Query{Type: catalog.QueryCount, Table: catalog.TableVideos}
	repo := &fakeRepo{value: 42}
	s := NewQueryService(&fakeTranslator{q: q}, repo, time.Second)

	got, err := s.Answer(context.Background(), "Сколько всего видео есть в системе?")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
	assert.Equal(t, q, repo.got)
	assert.True(t, repo.hasDeadline)
}

func TestAnswerWithoutExecuteTimeout(t *testing.T) {
	repo := &fakeRepo{}
	s := NewQueryService(&fakeTranslator{q: ir.Query{Type: catalog.QueryCount, Table: catalog.TableVideos}}, repo, 0)

	_, err := s.Answer(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, repo.hasDeadline)
}

func TestAnswerTranslateFailureSkipsExecution(t *testing.T) {
	repo := &fakeRepo{}
	s := NewQueryService(&fakeTranslator{err: fmt.Errorf("%w: bad", apperrors.ErrValidation)}, repo, time.Second)

	_, err := s.Answer(context.Background(), "drop table videos")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Zero(t, repo.calls)
}

func TestAnswerErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		repoErr error
		want    error
	}{
		{"schema", fmt.Errorf("%w: x", apperrors.ErrSchemaMismatch), apperrors.ErrSchemaMismatch},
		{"storage", fmt.Errorf("%w: x", apperrors.ErrStorage), apperrors.ErrStorage},
		{"deadline", context.DeadlineExceeded, context.DeadlineExceeded},
		{"unclassified", errors.New("boom"), UnExpectedError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewQueryService(&fakeTranslator{q: ir.Query{Type: catalog.QueryCount, Table: catalog.TableVideos}}, &fakeRepo{err: tt.repoErr}, time.Second)
			_, err := s.Answer(context.Background(), "x")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: forbidden keyword", apperrors.ErrValidation), BadRequest},
		{"schema", fmt.Errorf("%w: x", apperrors.ErrSchemaMismatch), UnprocessableEntity},
		{"malformed", fmt.Errorf("%w: x", apperrors.ErrMalformedResponse), BadGateway},
		{"model", fmt.Errorf("%w: x", apperrors.ErrModelUnavailable), BadGateway},
		{"timeout", fmt.Errorf("wait: %w", context.DeadlineExceeded), GatewayTimeout},
		{"storage", fmt.Errorf("%w: x", apperrors.ErrStorage), InternalServerError},
		{"queue full", ErrQueueFull, ServiceUnavailable},
		{"unexpected wrapped", fmt.Errorf("%w: panic", UnExpectedError), InternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := CodeOf(tt.err)
			assert.True(t, ok)
			assert.Equal(t, tt.want, code)
		})
	}

	_, ok := CodeOf(errors.New("unknown"))
	assert.False(t, ok)
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, apperrors.ErrStorage.Error(), MessageOf(fmt.Errorf("%w: Error 1045: Access denied for user 'stats'", apperrors.ErrStorage)))
	assert.Equal(t, apperrors.ErrTimeout.Error(), MessageOf(fmt.Errorf("wait: %w", context.DeadlineExceeded)))
	assert.Equal(t, UnExpectedError.Error(), MessageOf(fmt.Errorf("%w: runtime error: index out of range", UnExpectedError)))
	assert.Equal(t, UnExpectedError.Error(), MessageOf(errors.New("unknown")))

	schema := fmt.Errorf("%w: field revenue", apperrors.ErrSchemaMismatch)
	assert.Equal(t, schema.Error(), MessageOf(schema))
}
