package config

import (
	"Marketplace/internal/pkg/consts"
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从 ./configs/config.yaml 加载配置并填充到 Cfg
func LoadConfig() error {
	cfg, err := Load("./configs")
	if err != nil {
		return err
	}
	Cfg = cfg
	return nil
}

// Load 从指定目录读取 config.yaml，环境变量优先（JWT_SECRET 覆盖 jwt.secret）
func Load(paths ...string) (*Config, error) {
	// .env 只是开发便利，不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.slow_query_ms", 200)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "Marketplace")
	v.SetDefault("jwt.expire_hour", 24)
	v.SetDefault("notifier.resync_spec", "@every 5m")
	v.SetDefault("notifier.participant_cache_ttl", 300)
	v.SetDefault("notifier.archive_enable", true)
	v.SetDefault("notifier.change_channel", consts.DefaultChangeChannel)
	v.SetDefault("kafka_message_consumer.topic", "canal-marketplace-messages")
	v.SetDefault("kafka_message_consumer.group_id", "marketplace-im-relay")
	v.SetDefault("kafka.consumer.session_timeout", 10)
	v.SetDefault("kafka.consumer.heartbeat_interval", 3)
	v.SetDefault("kafka.consumer.rebalance_timeout", 60)
	v.SetDefault("kafka.consumer.max_processing_time", 1)
}
