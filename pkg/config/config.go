package config

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server          ServerConfig          `mapstructure:"server"`
	Database        DatabaseConfig        `mapstructure:"database"`
	Redis           RedisConfig           `mapstructure:"redis"`
	Kafka           KafkaConfig           `mapstructure:"kafka"`
	Log             LogConfig             `mapstructure:"log"`
	Minio           MinioConfig           `mapstructure:"minio"`
	Compute         ComputeConfig         `mapstructure:"compute"`
	Webhook         WebhookConfig         `mapstructure:"webhook"`
	Pipeline        PipelineConfig        `mapstructure:"pipeline"`
	Etcd            EtcdConfig            `mapstructure:"etcd"`
	ServiceRegistry ServiceRegistryConfig `mapstructure:"service_registry"`
	GRPCServer      GRPCServerConfig      `mapstructure:"grpc_server"`
	Metrics         MetricsConfig         `mapstructure:"metrics"`
	Profiling       ProfilingConfig       `mapstructure:"profiling"`
	Public          PublicConfig          `mapstructure:"public"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig 数据库配置, driver: mysql | postgres | memory
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	Charset         string        `mapstructure:"charset"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	EnableTLS    bool          `mapstructure:"enable_tls"`
	DedupTTL     time.Duration `mapstructure:"dedup_ttl"`
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	BootstrapServers     []string          `mapstructure:"bootstrap_servers"`
	ClientID             string            `mapstructure:"client_id"`
	GroupID              string            `mapstructure:"group_id"`
	Enabled              bool              `mapstructure:"enabled"`
	Topics               KafkaTopicsConfig `mapstructure:"topics"`
	CommitOnDecodeError  bool              `mapstructure:"commit_on_decode_error"`
	CommitOnProcessError bool              `mapstructure:"commit_on_process_error"`
}

type KafkaTopicsConfig struct {
	PublishRequests string `mapstructure:"publish_requests"`
	PipelineEvents  string `mapstructure:"pipeline_events"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// MinioConfig MinIO配置
type MinioConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKey       string `mapstructure:"access_key"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SecretKey       string `mapstructure:"secret_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
	EnsureBucket    bool   `mapstructure:"ensure_bucket"`
}

// ComputeConfig 外部计算服务配置
type ComputeConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	Timeout       time.Duration `mapstructure:"timeout"`
	SigningSecret string        `mapstructure:"signing_secret"`
	Issuer        string        `mapstructure:"issuer"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
}

// WebhookConfig 回调配置
type WebhookConfig struct {
	// PublicBaseURL is the externally reachable base the compute service calls back.
	PublicBaseURL string `mapstructure:"public_base_url"`
	Secret        string `mapstructure:"secret"`
	Issuer        string `mapstructure:"issuer"`
}

// PipelineConfig 批处理编排配置
type PipelineConfig struct {
	BatchSize         int      `mapstructure:"batch_size"`
	ItemFailurePolicy string   `mapstructure:"item_failure_policy"`
	TranscodePrefix   string   `mapstructure:"transcode_prefix"`
	CaptionPrefix     string   `mapstructure:"caption_prefix"`
	CaptionLanguages  []string `mapstructure:"caption_languages"`
}

// EtcdConfig etcd连接配置
type EtcdConfig struct {
	Endpoints      []string      `mapstructure:"endpoints"`
	DialTimeout    time.Duration `mapstructure:"dial_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
}

// ServiceRegistryConfig registration configuration.
type ServiceRegistryConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	ServiceName     string        `mapstructure:"service_name"`
	ServiceID       string        `mapstructure:"service_id"`
	RegisterHost    string        `mapstructure:"register_host"`
	TTL             time.Duration `mapstructure:"ttl"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// GRPCServerConfig gRPC server configuration.
type GRPCServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type ProfilingConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ServerAddress string `mapstructure:"server_address"`
}

// PublicConfig 对外访问配置
type PublicConfig struct {
	StorageBase string `mapstructure:"storage_base"`
}

var globalConfig atomic.Pointer[Config]

// SetGlobalConfig 设置全局配置
func SetGlobalConfig(cfg *Config) {
	globalConfig.Store(cfg)
}

// GetGlobalConfig 获取全局配置, 未初始化时返回nil
func GetGlobalConfig() *Config {
	return globalConfig.Load()
}

// Load 加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("minio.enabled", true)
	v.SetDefault("kafka.enabled", true)
	v.SetDefault("kafka.client_id", "media-pipeline-service")
	v.SetDefault("kafka.group_id", "media-pipeline-service-group")
	v.SetDefault("kafka.bootstrap_servers", []string{"localhost:29092"})
	v.SetDefault("kafka.topics.publish_requests", "course.publish.requests")
	v.SetDefault("kafka.topics.pipeline_events", "course.pipeline.events")
	v.SetDefault("kafka.commit_on_decode_error", true)
	v.SetDefault("kafka.commit_on_process_error", false)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("grpc_server.enabled", true)

	v.SetEnvPrefix("MEDIA_PIPELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.normalize()

	return &config, nil
}

// Default 返回仅依赖内存存储的配置, 用于本地调试与测试
func Default() *Config {
	cfg := &Config{}
	cfg.Database.Driver = "memory"
	cfg.normalize()
	return cfg
}

// normalize 补全配置的默认值
func (c *Config) normalize() {
	if c.Minio.AccessKeyID == "" {
		c.Minio.AccessKeyID = c.Minio.AccessKey
	}
	if c.Minio.SecretAccessKey == "" {
		c.Minio.SecretAccessKey = c.Minio.SecretKey
	}
	if c.Minio.BucketName == "" {
		c.Minio.BucketName = "course-media"
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8083
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}

	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.Charset == "" {
		c.Database.Charset = "utf8mb4"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.SlowThreshold == 0 {
		c.Database.SlowThreshold = time.Second
	}

	if c.Redis.DedupTTL <= 0 {
		c.Redis.DedupTTL = 24 * time.Hour
	}

	if c.Compute.Timeout <= 0 {
		c.Compute.Timeout = 30 * time.Second
	}
	if c.Compute.TokenTTL <= 0 {
		c.Compute.TokenTTL = 5 * time.Minute
	}
	if c.Compute.Issuer == "" {
		c.Compute.Issuer = "media-pipeline-service"
	}

	if c.Pipeline.BatchSize <= 0 {
		c.Pipeline.BatchSize = 10
	}
	if c.Pipeline.ItemFailurePolicy == "" {
		c.Pipeline.ItemFailurePolicy = "tolerate"
	}
	if c.Pipeline.TranscodePrefix == "" {
		c.Pipeline.TranscodePrefix = "hls"
	}
	if c.Pipeline.CaptionPrefix == "" {
		c.Pipeline.CaptionPrefix = "captions"
	}
	if len(c.Pipeline.CaptionLanguages) == 0 {
		c.Pipeline.CaptionLanguages = []string{"en", "vi"}
	}

	if c.GRPCServer.Host == "" {
		c.GRPCServer.Host = "0.0.0.0"
	}
	if c.GRPCServer.Port == 0 {
		c.GRPCServer.Port = 9092
	}
	if c.ServiceRegistry.ServiceName == "" {
		c.ServiceRegistry.ServiceName = "media-pipeline-service"
	}
	if c.ServiceRegistry.TTL == 0 {
		c.ServiceRegistry.TTL = 30 * time.Second
	}
	if c.ServiceRegistry.RefreshInterval == 0 {
		c.ServiceRegistry.RefreshInterval = 10 * time.Second
	}
	if c.Etcd.DialTimeout == 0 {
		c.Etcd.DialTimeout = 5 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if len(c.Kafka.BootstrapServers) == 0 {
		c.Kafka.BootstrapServers = []string{"localhost:29092"}
	}
	if c.Kafka.ClientID == "" {
		c.Kafka.ClientID = "media-pipeline-service"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "media-pipeline-service-group"
	}
	if c.Kafka.Topics.PublishRequests == "" {
		c.Kafka.Topics.PublishRequests = "course.publish.requests"
	}
	if c.Kafka.Topics.PipelineEvents == "" {
		c.Kafka.Topics.PipelineEvents = "course.pipeline.events"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database, c.Charset)
}

// GetRedisAddr 获取Redis地址
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
