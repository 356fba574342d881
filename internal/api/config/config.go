package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg
// 口令可通过环境变量 CHAT_ENCRYPTION_KEY 覆盖
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")

	viper.SetDefault("server.port", 3001)
	viper.SetDefault("storage.dir", "./chat_data")
	viper.SetDefault("auth.token_ttl_hours", 24)

	_ = viper.BindEnv("storage.passphrase", "CHAT_ENCRYPTION_KEY")

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("read config file: %w", err)
		}
		// 配置文件缺失时按默认值运行
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg
	return nil
}
