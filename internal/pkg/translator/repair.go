package translator

import (
	"regexp"
	"strings"

	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/catalog"
)

// 修复步骤按固定优先级执行：
//  1. liftDateField      filters.date_field 提升到顶层
//  2. derivedField       规范化带类型转换后缀的 field、纠正 date_field
//  3. fieldConfusion     把误用的 filters.video_id 改成 creator_id
//  4. creatorIDFidelity  用原文中的 ID 覆盖模型复述的 creator_id
//
// creatorIDFidelity 必须最后执行：fieldConfusion 可能新写入 creator_id，最终值一律以原文为准。
var repairSteps = []repairStep{
	{"lift_date_field", liftDateField},
	{"derived_field", repairDerivedField},
	{"field_confusion", repairFieldConfusion},
	{"creator_id_fidelity", repairCreatorID},
}

type repairStep struct {
	name  string
	apply func(d Draft, text string) bool
}

// RepairDraft 对 Draft 的副本依次执行修复，返回修复后的对象与实际生效的步骤名。
// 相同的 (Draft, text) 总是得到相同结果，重复执行结果不变。
func RepairDraft(d Draft, text string) (Draft, []string) {
	out := d.Clone()
	if out == nil {
		return nil, nil
	}
	var applied []string
	for _, step := range repairSteps {
		if step.apply(out, text) {
			applied = append(applied, step.name)
		}
	}
	return out, applied
}

const hexID = `[0-9a-fA-F]{8}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{12}`

var (
	explicitIDPattern = regexp.MustCompile(`(?i)(?:\bid|айди|идентификатор\p{L}*)\s*[:=#№]?\s*["'«]?(` + hexID + `)`)
	uuidPattern       = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	bareHexPattern    = regexp.MustCompile(`[0-9a-fA-F]{32}`)
	creatorPattern    = regexp.MustCompile(`(?i)креатор|creator|автор|блогер|создател`)

	castSuffixPattern = regexp.MustCompile(`(?i)^([a-z_]+?)\s*(?:::\s*(?:date|timestamp|timestamptz|text)|_date|\.date)$`)
	castCallPattern   = regexp.MustCompile(`(?i)^(?:date|day|to_date)\s*\(\s*([a-z_.]+)\s*\)$`)
	castAsPattern     = regexp.MustCompile(`(?i)^cast\s*\(\s*([a-z_.]+)\s+as\s+date\s*\)$`)
	truncPattern      = regexp.MustCompile(`(?i)^date_trunc\s*\(\s*'day'\s*,\s*([a-z_.]+)\s*\)$`)
)

// MentionsCreator 原文是否提到创作者
func MentionsCreator(text string) bool {
	return creatorPattern.MatchString(text)
}

// ExtractCreatorID 从原文中提取创作者 ID。
// 优先级：显式 "id: <hex>" 写法 > 带连字符的 UUID > 裸 32 位十六进制。
// 带连字符的写法去掉连字符并转小写，32 位裸写法原样返回。
// introduced 表示该 ID 由 id/创作者 措辞引出。
func ExtractCreatorID(text string) (id string, introduced bool) {
	mentions := MentionsCreator(text)

	for _, m := range explicitIDPattern.FindAllStringSubmatchIndex(text, -1) {
		if !hexBoundary(text, m[2], m[3]) {
			continue
		}
		return canonicalID(text[m[2]:m[3]]), true
	}
	for _, m := range uuidPattern.FindAllStringIndex(text, -1) {
		if hexBoundary(text, m[0], m[1]) {
			return canonicalID(text[m[0]:m[1]]), mentions
		}
	}
	for _, m := range bareHexPattern.FindAllStringIndex(text, -1) {
		if hexBoundary(text, m[0], m[1]) {
			return text[m[0]:m[1]], mentions
		}
	}
	return "", false
}

func canonicalID(raw string) string {
	if strings.Contains(raw, "-") {
		return strings.ToLower(strings.ReplaceAll(raw, "-", ""))
	}
	return raw
}

// hexBoundary 匹配片段两侧不能紧挨十六进制字符或连字符，避免截取更长的哈希
func hexBoundary(s string, start, end int) bool {
	if start > 0 && isIDChar(s[start-1]) {
		return false
	}
	if end < len(s) && isIDChar(s[end]) {
		return false
	}
	return true
}

func isIDChar(c byte) bool {
	return c == '-' || c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func liftDateField(d Draft, _ string) bool {
	filters, ok := d.Filters()
	if !ok {
		return false
	}
	inner, ok := filters["date_field"]
	if !ok {
		return false
	}
	delete(filters, "date_field")
	if top, has := d["date_field"]; !has || top == nil || top == "" {
		d["date_field"] = inner
	}
	return true
}

func repairDerivedField(d Draft, _ string) bool {
	changed := false
	table := catalog.Table(d.str("table"))
	def, knownTable := catalog.Default().Table(table)

	if knownTable && table == catalog.TableVideos && d.str("date_field") == catalog.FieldCreatedAt {
		d["date_field"] = catalog.FieldVideoCreatedAt
		changed = true
	}

	raw, ok := d["field"].(string)
	if !ok || raw == "" {
		return changed
	}

	base, cast := stripCast(raw)
	if base != raw {
		d["field"] = base
		changed = true
	}
	if cast {
		d["extract_date"] = true
		changed = true
	}

	if !knownTable {
		return changed
	}
	if _, onTable := def.Column(base); onTable {
		return changed
	}
	// 取过日期或看起来像时间字段，但不在本表上：换成本表的默认时间字段
	if cast || looksLikeDateField(base) {
		d["field"] = def.NaturalDateField
		d["extract_date"] = true
		changed = true
	}
	return changed
}

// stripCast 去掉 ::date、DATE(x)、CAST(x AS DATE)、date_trunc('day', x)、表名前缀等写法，
// 第二个返回值表示原字段带有取日期的转换
func stripCast(field string) (string, bool) {
	f := strings.TrimSpace(field)
	cast := false
	for _, p := range []*regexp.Regexp{castCallPattern, castAsPattern, truncPattern, castSuffixPattern} {
		if m := p.FindStringSubmatch(f); m != nil {
			f = m[1]
			cast = true
			break
		}
	}
	if i := strings.LastIndexByte(f, '.'); i >= 0 {
		f = f[i+1:]
	}
	return strings.ToLower(f), cast
}

func looksLikeDateField(name string) bool {
	if catalog.IsDateField(name) {
		return true
	}
	return name == "date" || name == "day" || strings.Contains(name, "date") || strings.HasSuffix(name, "_day")
}

func repairFieldConfusion(d Draft, text string) bool {
	filters, ok := d.Filters()
	if !ok {
		return false
	}
	videoID, has := filters[catalog.FieldVideoID]
	if !has || !MentionsCreator(text) {
		return false
	}

	delete(filters, catalog.FieldVideoID)
	if _, exists := filters[catalog.FilterCreatorID]; exists {
		return true
	}

	if id, _ := ExtractCreatorID(text); id != "" {
		filters[catalog.FilterCreatorID] = id
	} else if s, ok := videoID.(string); ok && s != "" {
		filters[catalog.FilterCreatorID] = s
	}
	return true
}

func repairCreatorID(d Draft, text string) bool {
	id, introduced := ExtractCreatorID(text)
	if id == "" {
		return false
	}

	// filters 为 null 与缺失同样处理，类型不对交给校验器拒绝
	if raw, present := d["filters"]; present && raw != nil {
		if _, ok := d.Filters(); !ok {
			return false
		}
	}

	current, has := d.filtersValue(catalog.FilterCreatorID)
	if !has {
		if !introduced || !MentionsCreator(text) {
			return false
		}
		d.ensureFilters()[catalog.FilterCreatorID] = id
		return true
	}

	// 归一化后相同也以原文写法为准，模型常改大小写或补连字符
	if s, ok := current.(string); ok && s == id {
		return false
	}
	d.ensureFilters()[catalog.FilterCreatorID] = id
	return true
}

func (d Draft) filtersValue(key string) (any, bool) {
	filters, ok := d.Filters()
	if !ok {
		return nil, false
	}
	v, ok := filters[key]
	return v, ok
}
