package translator

import (
	"errors"
	"testing"

	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/apperrors"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/catalog"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator() *Validator {
	return NewValidator(catalog.Default())
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name  string
		draft Draft
		rule  Rule
	}{
		{"error marker", Draft{"error": "Операция не разрешена"}, RuleErrorMarker},
		{"error marker wins over everything", Draft{"error": "нет", "query_type": "drop"}, RuleErrorMarker},
		{"forbidden top-level value", Draft{"query_type": "delete", "table": "videos"}, RuleForbiddenKeyword},
		{"forbidden key", Draft{"query_type": "count", "table": "videos", "drop_table": true}, RuleForbiddenKeyword},
		{"forbidden nested value", Draft{"query_type": "count", "table": "videos", "filters": map[string]any{"creator_id": "xdropx"}}, RuleForbiddenKeyword},
		{"forbidden inside metric", Draft{"query_type": "count", "table": "videos", "filters": map[string]any{"metric_gt": map[string]any{"field": "views_count; TRUNCATE videos", "value": 1.0}}}, RuleForbiddenKeyword},
		{"too deep", Draft{"query_type": "count", "table": "videos", "filters": map[string]any{"a": map[string]any{"b": map[string]any{"c": 1.0}}}}, RuleForbiddenKeyword},
		{"sql injection in creator", Draft{"query_type": "count", "table": "videos", "filters": map[string]any{"creator_id": "1' OR '1'='1"}}, RuleForbiddenKeyword},
		{"unknown query type", Draft{"query_type": "avg", "table": "videos"}, RuleQueryType},
		{"missing query type", Draft{"table": "videos"}, RuleQueryType},
		{"unknown table", Draft{"query_type": "count", "table": "users"}, RuleTable},
		{"sum without field", Draft{"query_type": "sum", "table": "video_snapshots"}, RuleField},
		{"distinct with two fields", Draft{"query_type": "distinct_count", "table": "video_snapshots", "fields": []any{"video_id", "id"}}, RuleField},
		{"field not in catalog", Draft{"query_type": "sum", "table": "videos", "field": "revenue"}, RuleField},
		{"field not a string", Draft{"query_type": "sum", "table": "videos", "field": 3.0}, RuleField},
		{"filters not a map", Draft{"query_type": "count", "table": "videos", "filters": []any{"x"}}, RuleFilters},
		{"bad date field", Draft{"query_type": "count", "table": "videos", "date_field": "published_at"}, RuleDateField},
		{"metric without value", Draft{"query_type": "count", "table": "videos", "filters": map[string]any{"metric_gt": map[string]any{"field": "views_count"}}}, RuleFilterValue},
		{"metric unknown field", Draft{"query_type": "count", "table": "videos", "filters": map[string]any{"metric_gt": map[string]any{"field": "karma", "value": 1.0}}}, RuleFilterValue},
		{"delta not numeric", Draft{"query_type": "count", "table": "video_snapshots", "filters": map[string]any{"delta_views_count_gt": "много"}}, RuleFilterValue},
		{"creator id beyond int64", Draft{"query_type": "count", "table": "videos", "filters": map[string]any{"creator_id": 1e20}}, RuleFilterValue},
		{"fractional creator id", Draft{"query_type": "count", "table": "videos", "filters": map[string]any{"creator_id": 4.5}}, RuleFilterValue},
		{"date not string", Draft{"query_type": "count", "table": "videos", "filters": map[string]any{"date": 20251101.0}}, RuleFilterValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newValidator().Validate(tt.draft)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation)

			var ruleErr *RuleError
			require.True(t, errors.As(err, &ruleErr))
			assert.Equal(t, tt.rule, ruleErr.Rule)
		})
	}
}

func TestValidateErrorMarkerMessage(t *testing.T) {
	_, err := newValidator().Validate(Draft{"error": "Операция не разрешена"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Операция не разрешена")
}

func TestValidateAllowListedTokens(t *testing.T) {
	// created_at / updated_at 含 create / update 子串，但属于合法字段
	d := Draft{
		"query_type": "distinct_count",
		"table":      "video_snapshots",
		"field":      "updated_at",
		"date_field": "created_at",
		"filters": map[string]any{
			"metric_eq": map[string]any{"field": "views_count", "value": 5.0},
		},
	}
	q, err := newValidator().Validate(d)
	require.NoError(t, err)
	assert.Equal(t, "updated_at", q.Field)
	assert.Equal(t, catalog.FieldCreatedAt, q.DateField)
	assert.Equal(t, []ir.Comparison{{Field: "views_count", Op: ir.OpEQ, Value: int64(5)}}, q.Filters.Metrics)
}

func TestValidateValueEqualToFieldName(t *testing.T) {
	d := Draft{"query_type": "count", "table": "videos", "filters": map[string]any{"creator_id": "views_count"}}
	q, err := newValidator().Validate(d)
	require.NoError(t, err)
	assert.Equal(t, "views_count", q.Filters.CreatorID)
}

func TestValidateFullQuery(t *testing.T) {
	d := Draft{
		"query_type":   "sum",
		"table":        "video_snapshots",
		"fields":       []any{"delta_views_count"},
		"date_field":   "created_at",
		"extract_date": false,
		"filters": map[string]any{
			"creator_id":           creatorHex,
			"date":                 "2025-11-28",
			"time_from":            "10:00",
			"time_to":              "15:00",
			"delta_views_count_gt": 0.0,
			"delta_likes_count_lt": "7",
			"metric_lt":            map[string]any{"field": "likes_count", "value": 2.5},
			"sort":                 "desc",
			"date_to":              nil,
		},
	}
	q, err := newValidator().Validate(d)
	require.NoError(t, err)

	assert.Equal(t, ir.Query{
		Type:      catalog.QuerySum,
		Table:     catalog.TableSnapshots,
		Field:     "delta_views_count",
		DateField: catalog.FieldCreatedAt,
		Filters: ir.Filters{
			CreatorID: creatorHex,
			Date:      "2025-11-28",
			TimeFrom:  "10:00",
			TimeTo:    "15:00",
			Metrics:   []ir.Comparison{{Field: "likes_count", Op: ir.OpLT, Value: 2.5}},
			Deltas: []ir.Comparison{
				{Field: "delta_likes_count", Op: ir.OpLT, Value: int64(7)},
				{Field: "delta_views_count", Op: ir.OpGT, Value: int64(0)},
			},
			Unknown: []string{"sort"},
		},
	}, q)
}

func TestValidateCountIgnoresField(t *testing.T) {
	q, err := newValidator().Validate(Draft{"query_type": "count", "table": "videos", "field": "whatever"})
	require.NoError(t, err)
	assert.Empty(t, q.Field)
}

func TestValidateNumericCreatorID(t *testing.T) {
	q, err := newValidator().Validate(Draft{"query_type": "count", "table": "videos", "filters": map[string]any{"creator_id": 42.0}})
	require.NoError(t, err)
	assert.Equal(t, "42", q.Filters.CreatorID)
}
