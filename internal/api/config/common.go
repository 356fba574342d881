package config

// Config 配置主体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logstash LogstashConfig `mapstructure:"logstash"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// StorageConfig 加密存储配置
// Passphrase 为空时启动期生成随机口令且不会持久化，重启后历史不可解密
type StorageConfig struct {
	Dir        string `mapstructure:"dir"`
	Passphrase string `mapstructure:"passphrase"`
}

// AuthConfig 连接令牌配置
type AuthConfig struct {
	Secret        string `mapstructure:"secret"`
	TokenTTLHours int    `mapstructure:"token_ttl_hours"`
}

// LogstashConfig 远程日志上报配置，Address 为空时仅输出到 stdout
type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}
