package logger

import (
	"io"
	log "log/slog"
	"net"
	"os"
	"time"

	"github.com/mm-shkurin/rlt-test-bot/internal/api/config"
)

var LogWriter io.Writer = os.Stdout

// accessIndex gin 访问日志写入的索引名
var accessIndex string

// InitLogger 初始化全局 slog，开启 Logstash 时同时上报带 trace_id 的日志
func InitLogger(cfg config.LogstashConfig) {
	hStdout := log.NewJSONHandler(os.Stdout, &log.HandlerOptions{Level: log.LevelInfo})

	var finalHandler log.Handler = hStdout
	LogWriter = os.Stdout
	accessIndex = cfg.Index

	if cfg.Enable {
		conn, err := net.DialTimeout("tcp", cfg.Addr, 3*time.Second)
		if err == nil {
			hRemote := log.NewJSONHandler(conn, &log.HandlerOptions{Level: log.LevelInfo}).
				WithAttrs([]log.Attr{log.String("target_index", cfg.Index)})

			finalHandler = NewTeeHandler(hStdout, &RemoteFilterHandler{next: hRemote})
			LogWriter = conn
		} else {
			log.Warn("Failed to connect to Logstash, logging to stdout only", "err", err)
		}
	}

	log.SetDefault(log.New(&ContextHandler{finalHandler}))
}
