// Package ir 定义经过校验的查询中间表示。
//
// Query 只能由 translator 的校验器构造，构造完成后视为只读值：执行器不会修改它，
// 仅在编译时对 creator_id 做格式归一化。
package ir

import (
	"strings"

	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/catalog"
)

type Op string

const (
	OpGT Op = ">"
	OpLT Op = "<"
	OpEQ Op = "="
)

// Comparison 单个比较条件，Value 为 int64 或 float64
type Comparison struct {
	Field string
	Op    Op
	Value any
}

type Filters struct {
	CreatorID string
	Date      string
	DateFrom  string
	DateTo    string
	TimeFrom  string
	TimeTo    string

	// Metrics 来自 metric_gt / metric_lt / metric_eq，字段可能不在基础表上
	Metrics []Comparison
	// Deltas 来自 delta_*_gt / _lt / _eq
	Deltas []Comparison
	// Unknown 模型给出但引擎不认识的过滤键，仅用于日志
	Unknown []string
}

type Query struct {
	Type        catalog.QueryType
	Table       catalog.Table
	Field       string
	DateField   string
	ExtractDate bool
	Filters     Filters
}

// ResolvedDateField 未显式指定时按表取默认时间字段
func (q Query) ResolvedDateField() string {
	if q.DateField != "" {
		return q.DateField
	}
	return catalog.Default().NaturalDateField(q.Table)
}

// HasCreator 是否按创作者过滤
func (q Query) HasCreator() bool {
	return q.Filters.CreatorID != ""
}

// NormalizedCreatorID 去掉连字符后的创作者 ID
func (q Query) NormalizedCreatorID() string {
	return NormalizeID(q.Filters.CreatorID)
}

// HasDateWindow 是否包含任意日期条件
func (q Query) HasDateWindow() bool {
	f := q.Filters
	return f.Date != "" || f.DateFrom != "" || f.DateTo != ""
}

// NormalizeID 去掉连字符，用于比较与落库查询
func NormalizeID(id string) string {
	return strings.ReplaceAll(strings.TrimSpace(id), "-", "")
}

// FoldID 去连字符并转小写，仅用于判断两个 ID 是否指向同一对象
func FoldID(id string) string {
	return strings.ToLower(NormalizeID(id))
}
