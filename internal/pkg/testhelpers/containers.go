// Package testhelpers 集成测试用的 MySQL / Redis 容器，同一次测试运行内共享。
package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mm-shkurin/rlt-test-bot/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	MySQLImage = "mysql:8.0"
	RedisImage = "redis:7-alpine"
)

type TestMySQL struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

type TestRedis struct {
	Container testcontainers.Container
	Client    *redis.Client
	Addr      string
}

var (
	sharedMySQL     *TestMySQL
	sharedMySQLOnce sync.Once
	sharedMySQLErr  error

	sharedRedis     *TestRedis
	sharedRedisOnce sync.Once
	sharedRedisErr  error
)

// GetTestMySQL 返回共享的 MySQL 容器，表结构已按模型迁移。-short 或 Docker 不可用时跳过
func GetTestMySQL(t *testing.T) *TestMySQL {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedMySQLOnce.Do(func() {
		sharedMySQL, sharedMySQLErr = setupMySQL()
	})
	if sharedMySQLErr != nil {
		t.Skipf("MySQL container unavailable: %v", sharedMySQLErr)
	}
	return sharedMySQL
}

func setupMySQL() (*TestMySQL, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        MySQLImage,
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "test_password",
			"MYSQL_DATABASE":      "stats_test",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("3306/tcp"),
			wait.ForLog("port: 3306  MySQL Community Server"),
		).WithDeadline(120 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start mysql container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "3306")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	dsn := fmt.Sprintf("root:test_password@tcp(%s:%s)/stats_test?parseTime=true&loc=UTC", host, port.Port())

	var db *gorm.DB
	for i := 0; i < 20; i++ {
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
		if err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect mysql: %w", err)
	}

	if err = db.AutoMigrate(&model.Video{}, &model.VideoSnapshot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return &TestMySQL{Container: container, DB: db, DSN: dsn}, nil
}

// Reset 清空两张表
func (m *TestMySQL) Reset(t *testing.T) {
	t.Helper()
	for _, table := range []string{"video_snapshots", "videos"} {
		if err := m.DB.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("failed to reset %s: %v", table, err)
		}
	}
}

// GetTestRedis 返回共享的 Redis 容器，-short 或 Docker 不可用时跳过
func GetTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedRedisOnce.Do(func() {
		sharedRedis, sharedRedisErr = setupRedis()
	})
	if sharedRedisErr != nil {
		t.Skipf("Redis container unavailable: %v", sharedRedisErr)
	}
	return sharedRedis
}

func setupRedis() (*TestRedis, error) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        RedisImage,
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start redis container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	addr := fmt.Sprintf("%s:%s", host, port.Port())
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err = client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &TestRedis{Container: container, Client: client, Addr: addr}, nil
}

// Flush 清空当前库
func (r *TestRedis) Flush(t *testing.T) {
	t.Helper()
	if err := r.Client.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}
}
