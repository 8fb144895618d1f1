package config

// Config 配置主体
type Config struct {
	Server              ServerConfig        `mapstructure:"server"`
	DB                  DBConfig            `mapstructure:"database"`
	Redis               RedisConfig         `mapstructure:"redis"`
	Mongo               MongoConfig         `mapstructure:"mongo"`
	MinIO               MinIOConfig         `mapstructure:"minio"`
	Kafka               KafkaConfig         `mapstructure:"kafka"`
	KafkaNoticeConsumer KafkaNoticeConsumer `mapstructure:"kafka_notice_consumer"`
	SMS                 SMSConfig           `mapstructure:"sms"`
	Mailgun             MailgunConfig       `mapstructure:"mailgun"`
	OTP                 OTPConfig           `mapstructure:"otp"`
	Chat                ChatConfig          `mapstructure:"chat"`
	User                UserConfig          `mapstructure:"user"`
	JWT                 JWTConfig           `mapstructure:"jwt"`
	Logstash            LogstashConfig      `mapstructure:"logstash"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	InternalEndpoint string `mapstructure:"internal_endpoint"`
	ExternalEndpoint string `mapstructure:"external_endpoint"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	MainBucket       string `mapstructure:"main_bucket"`
	InternalUseSSL   bool   `mapstructure:"internal_use_ssl"`
}

type KafkaConfig struct {
	Brokers     []string       `mapstructure:"brokers"`
	Sasl        SaslConfig     `mapstructure:"sasl"`
	Consumer    ConsumerConfig `mapstructure:"consumer"`
	NoticeTopic string         `mapstructure:"notice_topic"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

type KafkaNoticeConsumer struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

type SMSConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	ApiKey   string `mapstructure:"api_key"`
}

// MailgunConfig 邮件验证码通道
type MailgunConfig struct {
	Domain string `mapstructure:"domain"`
	ApiKey string `mapstructure:"api_key"`
	Sender string `mapstructure:"sender"`
}

// OTPConfig 验证码配置
// provider=static 时使用全局测试验证码，仅用于开发环境
type OTPConfig struct {
	Provider           string `mapstructure:"provider"`
	TestCode           string `mapstructure:"test_code"`
	SimulatedLatencyMs int    `mapstructure:"simulated_latency_ms"`
	CooldownSeconds    int    `mapstructure:"cooldown_seconds"`
	MaxAttempts        int    `mapstructure:"max_attempts"`
	CodeTTLMinutes     int    `mapstructure:"code_ttl_minutes"`
	SessionTTLMinutes  int    `mapstructure:"session_ttl_minutes"`
}

// ChatConfig 会话存储配置，persistence 可选 redis / mongo / memory
type ChatConfig struct {
	Persistence       string `mapstructure:"persistence"`
	SessionTTLMinutes int    `mapstructure:"session_ttl_minutes"`
}

// UserConfig directory=kv 时用户列表读取演示数据，默认读数据库
type UserConfig struct {
	Directory string `mapstructure:"directory"`
}

// JWTConfig 登录令牌
type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// LogstashConfig 日志配置，address 为空时只输出到标准输出
type LogstashConfig struct {
	Level   string `mapstructure:"level"`
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}
