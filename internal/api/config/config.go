package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg，环境变量 EDVIX_* 可覆盖文件配置
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")

	viper.SetEnvPrefix("EDVIX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file not found: %w", err)
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg

	return nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("kafka.notice_topic", "edvix.notice")
	viper.SetDefault("otp.provider", "sms")
	viper.SetDefault("otp.cooldown_seconds", 30)
	viper.SetDefault("otp.max_attempts", 5)
	viper.SetDefault("otp.code_ttl_minutes", 10)
	viper.SetDefault("otp.session_ttl_minutes", 30)
	viper.SetDefault("chat.persistence", "redis")
	viper.SetDefault("chat.session_ttl_minutes", 60)
	viper.SetDefault("user.directory", "db")
	viper.SetDefault("jwt.issuer", "EdVix")
	viper.SetDefault("jwt.expire_hours", 24)
}
