package config

// Config 配置主体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	DB       DBConfig       `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Query    QueryConfig    `mapstructure:"query"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Logstash LogstashConfig `mapstructure:"logstash"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn" validate:"required"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// LLMConfig 模型配置，provider 为 openai 时走 OpenAI 兼容接口，gigachat 时走 GigaChat
type LLMConfig struct {
	Provider    string         `mapstructure:"provider" validate:"required,oneof=openai gigachat"`
	URL         string         `mapstructure:"url"`
	Model       string         `mapstructure:"model" validate:"required"`
	ApiKey      string         `mapstructure:"api_key"`
	Temperature float64        `mapstructure:"temperature" validate:"min=0,max=2"`
	Concurrency int64          `mapstructure:"concurrency" validate:"min=1"`
	GigaChat    GigaChatConfig `mapstructure:"gigachat"`
}

type GigaChatConfig struct {
	AuthURL      string `mapstructure:"auth_url"`
	ChatURL      string `mapstructure:"chat_url"`
	Credentials  string `mapstructure:"credentials"`
	Scope        string `mapstructure:"scope"`
	InsecureSkip bool   `mapstructure:"insecure_skip_verify"`
}

// QueryConfig 查询链路配置，超时单位为秒
type QueryConfig struct {
	Languages        []string `mapstructure:"languages" validate:"required,min=1"`
	Timezone         string   `mapstructure:"timezone"`
	TranslateTimeout int      `mapstructure:"translate_timeout" validate:"min=1"`
	ExecuteTimeout   int      `mapstructure:"execute_timeout" validate:"min=1"`
}

// QueueConfig 任务队列配置，超时单位为秒
type QueueConfig struct {
	Prefix      string `mapstructure:"prefix" validate:"required"`
	Workers     int    `mapstructure:"workers" validate:"min=1"`
	JobTimeout  int    `mapstructure:"job_timeout" validate:"min=1"`
	WaitTimeout int    `mapstructure:"wait_timeout" validate:"min=1"`
	ResultTTL   int    `mapstructure:"result_ttl" validate:"min=1"`
	MaxPending  int64  `mapstructure:"max_pending" validate:"min=0"`
	ReaperSpec  string `mapstructure:"reaper_spec"`
}

// LogstashConfig 远程日志
type LogstashConfig struct {
	Enable bool   `mapstructure:"enable"`
	Addr   string `mapstructure:"addr" validate:"required_if=Enable true"`
	Index  string `mapstructure:"index"`
}
