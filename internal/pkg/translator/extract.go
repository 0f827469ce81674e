package translator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/apperrors"
)

var (
	leadingFence  = regexp.MustCompile("^```[A-Za-z0-9_+-]*[ \t]*\r?\n?")
	trailingFence = regexp.MustCompile("\r?\n?[ \t]*```$")
)

// Extract 从模型原始输出中取出唯一的 JSON 对象
func Extract(raw string) (Draft, error) {
	cleaned := StripFences(raw)
	candidate, ok := IsolateObject(cleaned)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in model output", apperrors.ErrMalformedResponse)
	}
	return ParseObject(RemoveTrailingCommas(candidate))
}

// StripFences 去掉首尾的代码块标记（```json 与裸 ```）
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// IsolateObject 取第一个 '{' 到最后一个 '}' 之间的内容，容忍模型在前后附加说明文字
func IsolateObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

// RemoveTrailingCommas 删除 '}' 或 ']' 之前多余的逗号，字符串内部的内容保持不变
func RemoveTrailingCommas(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			sb.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		if c == '"' {
			inString = true
			sb.WriteByte(c)
			continue
		}

		if c == ',' {
			j := i + 1
			for j < len(s) && isJSONSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func isJSONSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// ParseObject 解析为 JSON 对象，顶层不是对象时视为格式错误
func ParseObject(s string) (Draft, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: null object", apperrors.ErrMalformedResponse)
	}
	return Draft(obj), nil
}
