package translator

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/apperrors"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/catalog"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/ir"
)

// Rule 校验规则，按编号顺序检查，遇到第一条不满足的规则即返回
type Rule int

const (
	RuleErrorMarker Rule = iota + 1
	RuleForbiddenKeyword
	RuleQueryType
	RuleTable
	RuleField
	RuleFilters
	RuleDateField
	RuleFilterValue
)

var ruleNames = map[Rule]string{
	RuleErrorMarker:      "error_marker",
	RuleForbiddenKeyword: "forbidden_keyword",
	RuleQueryType:        "query_type",
	RuleTable:            "table",
	RuleField:            "field",
	RuleFilters:          "filters",
	RuleDateField:        "date_field",
	RuleFilterValue:      "filter_value",
}

func (r Rule) String() string {
	if n, ok := ruleNames[r]; ok {
		return n
	}
	return "rule(" + strconv.Itoa(int(r)) + ")"
}

// RuleError 校验失败，errors.Is(err, apperrors.ErrValidation) 成立
type RuleError struct {
	Rule   Rule
	Detail string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s: %s: %s", apperrors.ErrValidation.Error(), e.Rule, e.Detail)
}

func (e *RuleError) Unwrap() error {
	return apperrors.ErrValidation
}

func reject(rule Rule, format string, args ...any) error {
	return &RuleError{Rule: rule, Detail: fmt.Sprintf(format, args...)}
}

// forbiddenKeywords 写操作关键字，按子串匹配
var forbiddenKeywords = []string{"insert", "update", "delete", "drop", "truncate", "alter", "create", "modify"}

var plainToken = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// maxScanDepth Draft 的最大嵌套层数：顶层 -> filters -> metric_* 对象
const maxScanDepth = 3

type Validator struct {
	catalog *catalog.Catalog
}

func NewValidator(c *catalog.Catalog) *Validator {
	return &Validator{catalog: c}
}

// Validate 白名单校验 Draft，通过后转换为只读的 ir.Query
func (v *Validator) Validate(d Draft) (ir.Query, error) {
	if d == nil {
		return ir.Query{}, reject(RuleQueryType, "empty object")
	}

	// 1. 模型自报的错误
	if marker, ok := d["error"]; ok && marker != nil {
		msg, _ := marker.(string)
		if msg == "" {
			msg = fmt.Sprint(marker)
		}
		return ir.Query{}, reject(RuleErrorMarker, "%s", msg)
	}

	// 2. 写操作关键字
	if err := v.scanForbidden(map[string]any(d), 1); err != nil {
		return ir.Query{}, err
	}
	if err := scanInjection(d); err != nil {
		return ir.Query{}, err
	}

	// 3. query_type
	qt := catalog.QueryType(d.str("query_type"))
	if !isQueryType(qt) {
		return ir.Query{}, reject(RuleQueryType, "unsupported query_type %v", d["query_type"])
	}

	// 4. table
	table := catalog.Table(d.str("table"))
	if _, ok := v.catalog.Table(table); !ok {
		return ir.Query{}, reject(RuleTable, "unsupported table %v", d["table"])
	}

	q := ir.Query{Type: qt, Table: table}

	// 5. field
	if qt == catalog.QuerySum || qt == catalog.QueryDistinctCount {
		field, err := v.field(d)
		if err != nil {
			return ir.Query{}, err
		}
		q.Field = field
	}

	// 6. filters
	var rawFilters map[string]any
	if raw, ok := d["filters"]; ok && raw != nil {
		m, ok := raw.(map[string]any)
		if !ok {
			return ir.Query{}, reject(RuleFilters, "filters must be an object, got %T", raw)
		}
		rawFilters = m
	}

	// 7. date_field
	if raw, ok := d["date_field"]; ok && raw != nil && raw != "" {
		df, _ := raw.(string)
		if !catalog.IsDateField(df) {
			return ir.Query{}, reject(RuleDateField, "unsupported date_field %v", raw)
		}
		q.DateField = df
	}

	if b, ok := d["extract_date"].(bool); ok {
		q.ExtractDate = b
	}

	filters, err := v.filters(rawFilters)
	if err != nil {
		return ir.Query{}, err
	}
	q.Filters = filters
	return q, nil
}

func isQueryType(qt catalog.QueryType) bool {
	for _, t := range catalog.QueryTypes() {
		if t == qt {
			return true
		}
	}
	return false
}

func (v *Validator) field(d Draft) (string, error) {
	raw, ok := d["field"]
	if !ok || raw == nil || raw == "" {
		// 单元素 fields 列表折叠为 field
		if list, isList := d["fields"].([]any); isList && len(list) == 1 {
			raw = list[0]
		} else {
			return "", reject(RuleField, "field is required for %s", d.str("query_type"))
		}
	}
	name, ok := raw.(string)
	if !ok || name == "" {
		return "", reject(RuleField, "field must be a string, got %T", raw)
	}
	if !v.catalog.KnownField(name) {
		return "", reject(RuleField, "unknown field %q", name)
	}
	return name, nil
}

// scanForbidden 递归检查键与字符串值；完全等于合法 schema 标识的不做子串匹配
func (v *Validator) scanForbidden(value any, depth int) error {
	switch val := value.(type) {
	case map[string]any:
		if depth > maxScanDepth {
			return reject(RuleForbiddenKeyword, "object nested too deep")
		}
		for k, item := range val {
			if kw, bad := v.forbidden(k); bad {
				return reject(RuleForbiddenKeyword, "key %q contains %q", k, kw)
			}
			if err := v.scanForbidden(item, depth+1); err != nil {
				return err
			}
		}
	case []any:
		if depth > maxScanDepth {
			return reject(RuleForbiddenKeyword, "array nested too deep")
		}
		for _, item := range val {
			if err := v.scanForbidden(item, depth+1); err != nil {
				return err
			}
		}
	case string:
		if kw, bad := v.forbidden(val); bad {
			return reject(RuleForbiddenKeyword, "value %q contains %q", val, kw)
		}
	}
	return nil
}

func (v *Validator) forbidden(s string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(s))
	if v.catalog.AllowedToken(lower) {
		return "", false
	}
	for _, kw := range forbiddenKeywords {
		if strings.Contains(lower, kw) {
			return kw, true
		}
	}
	return "", false
}

// scanInjection creator_id 是唯一会原样进入 SQL 参数的自由文本，非普通标识时交给 libinjection 判断
func scanInjection(d Draft) error {
	id, ok := d.filtersValue(catalog.FilterCreatorID)
	if !ok {
		return nil
	}
	s, ok := id.(string)
	if !ok || plainToken.MatchString(s) {
		return nil
	}
	if isSQLi, fingerprint := libinjection.IsSQLi(s); isSQLi {
		return reject(RuleForbiddenKeyword, "creator_id matches SQL injection pattern %s", fingerprint)
	}
	return nil
}

func (v *Validator) filters(raw map[string]any) (ir.Filters, error) {
	var f ir.Filters
	if len(raw) == 0 {
		return f, nil
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val := raw[key]
		if val == nil {
			continue
		}

		switch key {
		case catalog.FilterCreatorID:
			id, err := identifier(val)
			if err != nil {
				return f, err
			}
			f.CreatorID = id
		case catalog.FilterDate, catalog.FilterDateFrom, catalog.FilterDateTo,
			catalog.FilterTimeFrom, catalog.FilterTimeTo:
			s, ok := val.(string)
			if !ok {
				return f, reject(RuleFilterValue, "%s must be a string, got %T", key, val)
			}
			setDateFilter(&f, key, strings.TrimSpace(s))
		case catalog.FilterMetricGT, catalog.FilterMetricLT, catalog.FilterMetricEQ:
			cmp, err := v.metric(key, val)
			if err != nil {
				return f, err
			}
			f.Metrics = append(f.Metrics, cmp)
		default:
			field, op, ok := deltaKey(key)
			if !ok {
				f.Unknown = append(f.Unknown, key)
				continue
			}
			n, err := number(val)
			if err != nil {
				return f, reject(RuleFilterValue, "%s: %v", key, err)
			}
			f.Deltas = append(f.Deltas, ir.Comparison{Field: field, Op: op, Value: n})
		}
	}
	return f, nil
}

func setDateFilter(f *ir.Filters, key, value string) {
	switch key {
	case catalog.FilterDate:
		f.Date = value
	case catalog.FilterDateFrom:
		f.DateFrom = value
	case catalog.FilterDateTo:
		f.DateTo = value
	case catalog.FilterTimeFrom:
		f.TimeFrom = value
	case catalog.FilterTimeTo:
		f.TimeTo = value
	}
}

func identifier(val any) (string, error) {
	switch id := val.(type) {
	case string:
		return strings.TrimSpace(id), nil
	case float64:
		if id == math.Trunc(id) && math.Abs(id) < 1<<63 {
			return strconv.FormatInt(int64(id), 10), nil
		}
	}
	return "", reject(RuleFilterValue, "creator_id must be a string, got %T", val)
}

func (v *Validator) metric(key string, val any) (ir.Comparison, error) {
	obj, ok := val.(map[string]any)
	if !ok {
		return ir.Comparison{}, reject(RuleFilterValue, "%s must be an object with field and value", key)
	}
	field, _ := obj["field"].(string)
	if field == "" || !v.catalog.KnownField(field) {
		return ir.Comparison{}, reject(RuleFilterValue, "%s: unknown field %v", key, obj["field"])
	}
	n, err := number(obj["value"])
	if err != nil {
		return ir.Comparison{}, reject(RuleFilterValue, "%s: %v", key, err)
	}
	return ir.Comparison{Field: field, Op: opOf(key), Value: n}, nil
}

// deltaKey 拆分 delta_views_count_gt 之类的键
func deltaKey(key string) (string, ir.Op, bool) {
	for _, suffix := range []string{catalog.OpGT, catalog.OpLT, catalog.OpEQ} {
		field, found := strings.CutSuffix(key, suffix)
		if found && catalog.IsDeltaField(field) {
			return field, opOf(key), true
		}
	}
	return "", "", false
}

func opOf(key string) ir.Op {
	switch {
	case strings.HasSuffix(key, catalog.OpGT):
		return ir.OpGT
	case strings.HasSuffix(key, catalog.OpLT):
		return ir.OpLT
	default:
		return ir.OpEQ
	}
}

// number 整数值返回 int64，其余返回 float64；数字字符串也接受
func number(val any) (any, error) {
	switch n := val.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("value %v is not finite", n)
		}
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n), nil
		}
		return n, nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return number(f)
		}
		return nil, fmt.Errorf("value %q is not a number", n)
	default:
		return nil, fmt.Errorf("value must be a number, got %T", val)
	}
}
