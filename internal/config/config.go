// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
// 只有 cmd/server 读取它；各组件在构造时显式接收自己的配置段。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Log           LogConfig           `mapstructure:"log"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Coze          CozeConfig          `mapstructure:"coze"`
	Advice        AdviceConfig        `mapstructure:"advice"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储 JWT 校验相关的配置。令牌由外部认证服务签发，本服务只负责校验。
type JWTConfig struct {
	Secret                 string `mapstructure:"secret"`
	AccessTokenExpireHours int    `mapstructure:"access_token_expire_hours"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// CozeConfig 存储外部 AI 工作流（试卷解析、出题、学习建议）的配置。
type CozeConfig struct {
	BaseURL            string `mapstructure:"base_url"`
	APIKey             string `mapstructure:"api_key"`
	WorkflowIDParse    string `mapstructure:"workflow_id_parse"`
	WorkflowIDGenerate string `mapstructure:"workflow_id_generate"`
	WorkflowIDAdvice   string `mapstructure:"workflow_id_advice"`
	TimeoutSeconds     int    `mapstructure:"timeout_seconds"`
}

// Timeout 返回工作流调用的客户端超时时间，未配置时默认 120 秒。
func (c CozeConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AdviceConfig 存储学习建议生成流程的配置。
type AdviceConfig struct {
	StatLimit          int `mapstructure:"stat_limit"`
	ErrorAnalysisLimit int `mapstructure:"error_analysis_limit"`
	HotCacheTTLMinutes int `mapstructure:"hot_cache_ttl_minutes"`
}

// WithDefaults 为未配置的字段填充默认值。
func (c AdviceConfig) WithDefaults() AdviceConfig {
	if c.StatLimit <= 0 {
		c.StatLimit = 10
	}
	if c.ErrorAnalysisLimit <= 0 {
		c.ErrorAnalysisLimit = 5
	}
	if c.HotCacheTTLMinutes <= 0 {
		c.HotCacheTTLMinutes = 24 * 60
	}
	return c
}

// HotCacheTTL 返回 Redis 热缓存的过期时间。
func (c AdviceConfig) HotCacheTTL() time.Duration {
	return time.Duration(c.WithDefaults().HotCacheTTLMinutes) * time.Minute
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}
}
