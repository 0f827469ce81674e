package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/util"
	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例，仅供进程入口使用
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg，环境变量 APP_<SECTION>_<KEY> 覆盖文件中的值
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	Cfg = cfg
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := util.ValidateDTO(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.max_idle", 10)
	v.SetDefault("database.max_open", 50)
	v.SetDefault("database.max_lifetime", 30)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.concurrency", 4)
	v.SetDefault("llm.gigachat.auth_url", "https://ngw.devices.sberbank.ru:9443/api/v2/oauth")
	v.SetDefault("llm.gigachat.chat_url", "https://gigachat.devices.sberbank.ru/api/v1/chat/completions")
	v.SetDefault("llm.gigachat.scope", "GIGACHAT_API_PERS")
	v.SetDefault("query.languages", []string{"ru"})
	v.SetDefault("query.timezone", "UTC")
	v.SetDefault("query.translate_timeout", 30)
	v.SetDefault("query.execute_timeout", 10)
	v.SetDefault("queue.prefix", "query")
	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.job_timeout", 60)
	v.SetDefault("queue.wait_timeout", 60)
	v.SetDefault("queue.result_ttl", 300)
	v.SetDefault("queue.max_pending", 1000)
	v.SetDefault("queue.reaper_spec", "@every 1m")
	v.SetDefault("logstash.index", "logstash-rlt-stats")
}
