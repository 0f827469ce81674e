package logger

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisSlow = 100 * time.Millisecond

// blockingCommands 队列使用的阻塞命令，耗时取决于等待时长，不计入慢命令
var blockingCommands = map[string]struct{}{
	"blmove": {},
	"blpop":  {},
}

type RedisLoggerHook struct{}

func NewRedisLogger() *RedisLoggerHook {
	return &RedisLoggerHook{}
}

// DialHook 记录建立连接失败的事件
func (s *RedisLoggerHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		start := time.Now()
		conn, err := next(ctx, network, addr)
		if err != nil {
			log.ErrorContext(ctx, "Redis Dial Error",
				log.String("addr", addr),
				log.Duration("latency", time.Since(start)),
				log.Any("err", err),
			)
		}
		return conn, err
	}
}

// ProcessHook 记录单条命令的错误与慢命令
func (s *RedisLoggerHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		elapsed := time.Since(start)

		cmdName := cmd.Name()
		_, blocking := blockingCommands[cmdName]

		if err != nil {
			// 阻塞命令超时返回 redis.Nil 属于正常情况
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				return err
			}
			if cmdName == "client" && strings.Contains(err.Error(), "setinfo") {
				return err
			}
			log.ErrorContext(ctx, "Redis Error", append(redisFields(cmd, elapsed), log.Any("err", err))...)
			return err
		}

		if !blocking && elapsed > redisSlow {
			log.WarnContext(ctx, "Redis Slow", redisFields(cmd, elapsed)...)
		}
		return nil
	}
}

// ProcessPipelineHook 记录事务/管道命令的错误与慢执行
func (s *RedisLoggerHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		elapsed := time.Since(start)

		switch {
		case err != nil:
			log.ErrorContext(ctx, "Redis Pipeline Error",
				log.Int("cmd_count", len(cmds)),
				log.Duration("latency", elapsed),
				log.Any("err", err))
		case elapsed > redisSlow:
			log.WarnContext(ctx, "Redis Pipeline Slow",
				log.Int("cmd_count", len(cmds)),
				log.Duration("latency", elapsed))
		}
		return err
	}
}

func redisFields(cmd redis.Cmder, elapsed time.Duration) []any {
	args := "[PROTECTED]"
	if name := cmd.Name(); name != "auth" && name != "hello" {
		args = truncate(fmt.Sprint(cmd.Args()))
	}
	return []any{
		log.String("command", cmd.Name()),
		log.String("args", args),
		log.Duration("latency", elapsed),
	}
}
