package logger

import (
	"bytes"
	"io"
	log "log/slog"
	"net/http"
	"time"
)

const bodyLogLimit = 1000

// HTTPTransport 记录模型服务等外部 HTTP 调用，请求体与响应体截断后输出
type HTTPTransport struct {
	Transport http.RoundTripper
	// Slow 超过该耗时记为慢调用，为 0 时使用默认值
	Slow time.Duration
}

func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &HTTPTransport{Transport: http.DefaultTransport},
	}
}

func (t *HTTPTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	var reqBody []byte
	if req.Body != nil {
		reqBody, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewBuffer(reqBody))
	}

	next := t.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	resp, err := next.RoundTrip(req)
	elapsed := time.Since(start)

	fields := []any{
		log.String("method", req.Method),
		log.String("url", req.URL.Redacted()),
		log.Duration("latency", elapsed),
		log.String("req_body", truncate(string(reqBody))),
	}

	if err != nil {
		log.ErrorContext(req.Context(), "HTTP_CALL_ERROR", append(fields, log.Any("err", err))...)
		return nil, err
	}

	var resBody []byte
	if resp.Body != nil {
		resBody, _ = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewBuffer(resBody))
	}
	fields = append(fields, log.Int("status", resp.StatusCode), log.String("res_body", truncate(string(resBody))))

	slow := t.Slow
	if slow == 0 {
		slow = 10 * time.Second
	}
	switch {
	case resp.StatusCode >= http.StatusBadRequest:
		log.WarnContext(req.Context(), "HTTP_CALL_FAILED", fields...)
	case elapsed > slow:
		log.WarnContext(req.Context(), "HTTP_CALL_SLOW", fields...)
	default:
		log.InfoContext(req.Context(), "HTTP_CALL", fields...)
	}

	return resp, nil
}

func truncate(s string) string {
	if len(s) > bodyLogLimit {
		return s[:bodyLogLimit] + "...[truncated]"
	}
	return s
}
