package translator

// Draft 模型返回并解析出的原始对象，尚未经过校验，不可信
type Draft map[string]any

// Clone 深拷贝 Draft，修复流程不修改调用方持有的对象
func (d Draft) Clone() Draft {
	if d == nil {
		return nil
	}
	return Draft(cloneMap(d))
}

// Filters 返回 filters 对象；不存在或类型不对时返回 nil, false
func (d Draft) Filters() (map[string]any, bool) {
	raw, ok := d["filters"]
	if !ok || raw == nil {
		return nil, false
	}
	m, ok := raw.(map[string]any)
	return m, ok
}

// ensureFilters 返回可写的 filters；filters 存在但不是对象时返回 nil
func (d Draft) ensureFilters() map[string]any {
	raw, ok := d["filters"]
	if !ok || raw == nil {
		m := make(map[string]any)
		d["filters"] = m
		return m
	}
	m, _ := raw.(map[string]any)
	return m
}

func (d Draft) str(key string) string {
	s, _ := d[key].(string)
	return s
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
