package dto

// QueryDTO 自然语言问题
type QueryDTO struct {
	Query string `json:"query" binding:"required" validate:"min=1,max=1000"`
}

// QueryResultDTO 问题的唯一数值答案
type QueryResultDTO struct {
	Result int64 `json:"result"`
}

// ComparisonDTO 单个比较条件
type ComparisonDTO struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value"`
}

type QueryFiltersDTO struct {
	CreatorID string           `json:"creator_id,omitempty"`
	Date      string           `json:"date,omitempty"`
	DateFrom  string           `json:"date_from,omitempty"`
	DateTo    string           `json:"date_to,omitempty"`
	TimeFrom  string           `json:"time_from,omitempty"`
	TimeTo    string           `json:"time_to,omitempty"`
	Metrics   []*ComparisonDTO `json:"metrics,omitempty"`
	Deltas    []*ComparisonDTO `json:"deltas,omitempty"`
	Unknown   []string         `json:"ignored,omitempty"`
}

// QueryIRDTO 校验后的查询中间表示，仅用于调试翻译结果
type QueryIRDTO struct {
	Type        string          `json:"query_type"`
	Table       string          `json:"table"`
	Field       string          `json:"field,omitempty"`
	DateField   string          `json:"date_field"`
	ExtractDate bool            `json:"extract_date,omitempty"`
	Filters     QueryFiltersDTO `json:"filters"`
}
