// Package catalog 描述查询引擎可访问的全部数据表、字段与操作。
//
// Catalog 在进程启动时构建一次，之后只读，可被任意 goroutine 并发访问。
// 校验器用它做白名单，执行器用它把字段名映射为具体的列。
package catalog

import "sort"

type Table string

const (
	TableVideos    Table = "videos"
	TableSnapshots Table = "video_snapshots"
)

// Kind 字段类别
type Kind int

const (
	KindID Kind = iota + 1
	KindText
	KindTimestamp
	KindCounter
	KindDelta
)

// Summable 只有计数类字段可以求和
func (k Kind) Summable() bool {
	return k == KindCounter || k == KindDelta
}

type QueryType string

const (
	QueryCount         QueryType = "count"
	QuerySum           QueryType = "sum"
	QueryDistinctCount QueryType = "distinct_count"
)

// 时间字段
const (
	FieldVideoCreatedAt = "video_created_at"
	FieldCreatedAt      = "created_at"
	FieldUpdatedAt      = "updated_at"
	FieldCreatorID      = "creator_id"
	FieldVideoID        = "video_id"
	FieldID             = "id"
)

// 过滤条件的键
const (
	FilterCreatorID = "creator_id"
	FilterDate      = "date"
	FilterDateFrom  = "date_from"
	FilterDateTo    = "date_to"
	FilterTimeFrom  = "time_from"
	FilterTimeTo    = "time_to"
	FilterMetricGT  = "metric_gt"
	FilterMetricLT  = "metric_lt"
	FilterMetricEQ  = "metric_eq"
)

// 比较后缀
const (
	OpGT = "_gt"
	OpLT = "_lt"
	OpEQ = "_eq"
)

// DeltaFields 四个增量字段，顺序固定
var DeltaFields = []string{
	"delta_views_count",
	"delta_likes_count",
	"delta_comments_count",
	"delta_reports_count",
}

// Column 字段定义
type Column struct {
	Name        string
	Kind        Kind
	Type        string
	Description string
}

// TableDef 数据表定义
type TableDef struct {
	Name             Table
	Description      string
	Usage            string
	NaturalDateField string
	Columns          []Column

	index map[string]Column
}

// Column 按名称查找本表字段
func (t *TableDef) Column(name string) (Column, bool) {
	c, ok := t.index[name]
	return c, ok
}

type Catalog struct {
	tables   []*TableDef
	byName   map[Table]*TableDef
	fields   map[string]struct{}
	tokens   map[string]struct{}
	Relation string
}

var defaultCatalog = build()

// Default 返回进程级只读 Catalog
func Default() *Catalog {
	return defaultCatalog
}

func build() *Catalog {
	videos := &TableDef{
		Name:             TableVideos,
		Description:      "итоговая статистика по видео",
		Usage:            "используй для итоговой статистики, подсчета видео, фильтрации по дате публикации (video_created_at)",
		NaturalDateField: FieldVideoCreatedAt,
		Columns: []Column{
			{FieldID, KindID, "UUID", "идентификатор видео"},
			{FieldCreatorID, KindText, "String", "идентификатор креатора"},
			{FieldVideoCreatedAt, KindTimestamp, "DateTime", "дата и время публикации видео"},
			{"views_count", KindCounter, "Integer", "финальное количество просмотров"},
			{"likes_count", KindCounter, "Integer", "финальное количество лайков"},
			{"comments_count", KindCounter, "Integer", "финальное количество комментариев"},
			{"reports_count", KindCounter, "Integer", "финальное количество жалоб"},
			{FieldCreatedAt, KindTimestamp, "DateTime", "служебное поле"},
			{FieldUpdatedAt, KindTimestamp, "DateTime", "служебное поле"},
		},
	}
	snapshots := &TableDef{
		Name:             TableSnapshots,
		Description:      "почасовые замеры статистики",
		Usage:            "используй для динамики, приращений (delta_*), фильтрации по дате замера (created_at)",
		NaturalDateField: FieldCreatedAt,
		Columns: []Column{
			{FieldID, KindID, "String", "идентификатор снапшота"},
			{FieldVideoID, KindID, "UUID", "ссылка на видео (ForeignKey -> videos.id)"},
			{"views_count", KindCounter, "Integer", "текущее количество просмотров на момент замера"},
			{"likes_count", KindCounter, "Integer", "текущее количество лайков на момент замера"},
			{"comments_count", KindCounter, "Integer", "текущее количество комментариев на момент замера"},
			{"reports_count", KindCounter, "Integer", "текущее количество жалоб на момент замера"},
			{"delta_views_count", KindDelta, "Integer", "приращение просмотров с прошлого замера"},
			{"delta_likes_count", KindDelta, "Integer", "приращение лайков с прошлого замера"},
			{"delta_comments_count", KindDelta, "Integer", "приращение комментариев с прошлого замера"},
			{"delta_reports_count", KindDelta, "Integer", "приращение жалоб с прошлого замера"},
			{FieldCreatedAt, KindTimestamp, "DateTime", "время замера (раз в час)"},
			{FieldUpdatedAt, KindTimestamp, "DateTime", "служебное поле"},
		},
	}

	c := &Catalog{
		tables:   []*TableDef{videos, snapshots},
		byName:   make(map[Table]*TableDef),
		fields:   make(map[string]struct{}),
		tokens:   make(map[string]struct{}),
		Relation: "video_snapshots.video_id -> videos.id (один ко многим)",
	}

	for _, t := range c.tables {
		t.index = make(map[string]Column, len(t.Columns))
		for _, col := range t.Columns {
			t.index[col.Name] = col
			c.fields[col.Name] = struct{}{}
			c.tokens[col.Name] = struct{}{}
		}
		c.byName[t.Name] = t
		c.tokens[string(t.Name)] = struct{}{}
	}

	for _, qt := range QueryTypes() {
		c.tokens[string(qt)] = struct{}{}
	}
	for _, k := range FilterKeys() {
		c.tokens[k] = struct{}{}
	}
	for _, k := range []string{"query_type", "table", "field", "fields", "filters", "date_field", "value", "extract_date"} {
		c.tokens[k] = struct{}{}
	}

	return c
}

// QueryTypes 允许的查询类型
func QueryTypes() []QueryType {
	return []QueryType{QueryCount, QuerySum, QueryDistinctCount}
}

// DateFields 允许作为 date_field 的时间字段
func DateFields() []string {
	return []string{FieldVideoCreatedAt, FieldCreatedAt}
}

// FilterKeys 所有合法的过滤键（含增量字段的比较键）
func FilterKeys() []string {
	keys := []string{
		FilterCreatorID, FilterDate, FilterDateFrom, FilterDateTo,
		FilterTimeFrom, FilterTimeTo, FilterMetricGT, FilterMetricLT, FilterMetricEQ,
	}
	for _, d := range DeltaFields {
		keys = append(keys, d+OpGT, d+OpLT, d+OpEQ)
	}
	return keys
}

func (c *Catalog) Tables() []*TableDef {
	return c.tables
}

func (c *Catalog) Table(name Table) (*TableDef, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// Column 查找 table 上的字段
func (c *Catalog) Column(table Table, name string) (Column, bool) {
	t, ok := c.byName[table]
	if !ok {
		return Column{}, false
	}
	return t.Column(name)
}

// KnownField 字段是否存在于任意一张表
func (c *Catalog) KnownField(name string) bool {
	_, ok := c.fields[name]
	return ok
}

// AllowedToken 是否为合法的 schema / 操作标识，用于放行与禁用关键字撞名的字段（如 created_at）
func (c *Catalog) AllowedToken(s string) bool {
	_, ok := c.tokens[s]
	return ok
}

// NaturalDateField 表的默认时间字段
func (c *Catalog) NaturalDateField(table Table) string {
	if t, ok := c.byName[table]; ok {
		return t.NaturalDateField
	}
	return ""
}

// IsDateField 是否为可用作 date_field 的字段
func IsDateField(name string) bool {
	return name == FieldVideoCreatedAt || name == FieldCreatedAt
}

// IsDeltaField 是否为增量字段
func IsDeltaField(name string) bool {
	for _, d := range DeltaFields {
		if d == name {
			return true
		}
	}
	return false
}

// Fields 返回所有字段名（排序后），用于测试与提示词
func (c *Catalog) Fields() []string {
	out := make([]string, 0, len(c.fields))
	for f := range c.fields {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
