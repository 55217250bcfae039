package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	YouTube       YouTubeConfig       `mapstructure:"youtube"`
	Batch         BatchConfig         `mapstructure:"batch"`
	Log           LogConfig           `mapstructure:"log"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Mode    string `mapstructure:"mode"`
	Port    int    `mapstructure:"port"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 秒
}

// DSN 返回PostgreSQL连接字符串
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	PoolSize   int    `mapstructure:"pool_size"`
	CacheTTL   int    `mapstructure:"cache_ttl"` // 秒
}

// Addr 返回Redis地址
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CacheTTLDuration 返回读缓存过期时间
func (r *RedisConfig) CacheTTLDuration() time.Duration {
	if r.CacheTTL <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(r.CacheTTL) * time.Second
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	Brokers []string          `mapstructure:"brokers"`
	Topics  map[string]string `mapstructure:"topics"`
}

// ElasticsearchConfig Elasticsearch配置
type ElasticsearchConfig struct {
	Hosts []string          `mapstructure:"hosts"`
	Index map[string]string `mapstructure:"index"`
}

// YouTubeConfig 上游视频平台配置
type YouTubeConfig struct {
	APIKey   string `mapstructure:"api_key"`
	MaxPages int    `mapstructure:"max_pages"` // 每个分类最多翻页数，限制配额消耗
	PageSize int    `mapstructure:"page_size"`
	Timeout  int    `mapstructure:"timeout"` // 秒
}

// TimeoutDuration 返回上游调用超时时间
func (y *YouTubeConfig) TimeoutDuration() time.Duration {
	if y.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(y.Timeout) * time.Second
}

// BatchConfig 批处理管道配置
type BatchConfig struct {
	Categories       []string `mapstructure:"categories"`
	Regions          []string `mapstructure:"regions"`
	Timezone         string   `mapstructure:"timezone"`
	ShortsMaxSec     int      `mapstructure:"shorts_max_sec"`
	PaceMs           int      `mapstructure:"pace_ms"` // 分类间隔，限流用
	MinPoolSize      int      `mapstructure:"min_pool_size"`
	MinKeywordVideos int      `mapstructure:"min_keyword_videos"`
	TopKeywords      int      `mapstructure:"top_keywords"`
	TestMode         bool     `mapstructure:"test_mode"`
	CollectionCron   string   `mapstructure:"collection_cron"`
	AnalysisCron     string   `mapstructure:"analysis_cron"`
	AdminToken       string   `mapstructure:"admin_token"`
}

// PaceDuration 返回分类/地区迭代之间的固定停顿
func (b *BatchConfig) PaceDuration() time.Duration {
	if b.PaceMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(b.PaceMs) * time.Millisecond
}

// Location 返回管道运行时区（决定 snapshot_date 的自然日）
func (b *BatchConfig) Location() *time.Location {
	if b.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

// 全局配置实例
var globalConfig *Config

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// 读取环境变量
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	// 保存到全局变量
	globalConfig = &cfg

	return &cfg, nil
}

// applyDefaults 填充批处理的兜底默认值
func applyDefaults(cfg *Config) {
	if cfg.YouTube.MaxPages <= 0 {
		cfg.YouTube.MaxPages = 2
	}
	if cfg.YouTube.PageSize <= 0 {
		cfg.YouTube.PageSize = 50
	}
	if cfg.Batch.ShortsMaxSec <= 0 {
		// 产品口径：61 秒以内算短视频
		cfg.Batch.ShortsMaxSec = 61
	}
	if cfg.Batch.MinPoolSize <= 0 {
		cfg.Batch.MinPoolSize = 5
	}
	if cfg.Batch.MinKeywordVideos <= 0 {
		cfg.Batch.MinKeywordVideos = 2
	}
	if cfg.Batch.TopKeywords <= 0 {
		cfg.Batch.TopKeywords = 50
	}
	if len(cfg.Batch.Regions) == 0 {
		cfg.Batch.Regions = []string{"KR"}
	}
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("config not loaded, please call Load() first")
	}
	return globalConfig
}

// GetDatabase 获取数据库配置
func GetDatabase() *DatabaseConfig {
	return &Get().Database
}

// GetRedis 获取Redis配置
func GetRedis() *RedisConfig {
	return &Get().Redis
}

// GetKafka 获取Kafka配置
func GetKafka() *KafkaConfig {
	return &Get().Kafka
}

// GetElasticsearch 获取Elasticsearch配置
func GetElasticsearch() *ElasticsearchConfig {
	return &Get().Elasticsearch
}

// GetYouTube 获取上游平台配置
func GetYouTube() *YouTubeConfig {
	return &Get().YouTube
}

// GetBatch 获取批处理配置
func GetBatch() *BatchConfig {
	return &Get().Batch
}
