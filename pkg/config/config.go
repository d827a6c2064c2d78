package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Log       LogConfig       `mapstructure:"log"`
	Minio     MinioConfig     `mapstructure:"minio"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Transcode TranscodeConfig `mapstructure:"transcode"`
	Stream    StreamConfig    `mapstructure:"stream"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Lock      LockConfig      `mapstructure:"lock"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Profiling ProfilingConfig `mapstructure:"profiling"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Mode           string        `mapstructure:"mode"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	Charset         string        `mapstructure:"charset"`
	Path            string        `mapstructure:"path"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig Redis配置
type RedisConfig struct {
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
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	Enabled          bool              `mapstructure:"enabled"`
	BootstrapServers []string          `mapstructure:"bootstrap_servers"`
	ClientID         string            `mapstructure:"client_id"`
	GroupID          string            `mapstructure:"group_id"`
	Topics           KafkaTopicsConfig `mapstructure:"topics"`
}

type KafkaTopicsConfig struct {
	VideoEvents       string `mapstructure:"video_events"`
	TranscodeRequests string `mapstructure:"transcode_requests"`
}

// MinioConfig MinIO配置
type MinioConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// StorageConfig defines the two filesystem roots the service owns.
type StorageConfig struct {
	UploadRoot string `mapstructure:"upload_root"`
	HLSRoot    string `mapstructure:"hls_root"`
}

// TranscodeConfig 转码配置
type TranscodeConfig struct {
	FFmpeg          FFmpegConfig `mapstructure:"ffmpeg"`
	SegmentDuration int          `mapstructure:"segment_duration"`
	ArchiveEnabled  bool         `mapstructure:"archive_enabled"`
}

// FFmpegConfig FFmpeg相关配置
type FFmpegConfig struct {
	BinaryPath string        `mapstructure:"binary_path"`
	VideoCodec string        `mapstructure:"video_codec"`
	AudioCodec string        `mapstructure:"audio_codec"`
	Timeout    time.Duration `mapstructure:"timeout"`
	KillDelay  time.Duration `mapstructure:"kill_delay"`
}

// StreamConfig controls range serving.
type StreamConfig struct {
	ChunkSize int64 `mapstructure:"chunk_size"`
}

// WorkerConfig Worker相关配置
type WorkerConfig struct {
	WorkerID            string        `mapstructure:"worker_id"`
	MaxConcurrentTasks  int           `mapstructure:"max_concurrent_tasks"`
	QueueCapacity       int           `mapstructure:"queue_capacity"`
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`
	ResumePending       bool          `mapstructure:"resume_pending"`
}

// LockConfig selects the per-video job guard backend.
type LockConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Prefix  string        `mapstructure:"prefix"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type ProfilingConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ServerAddress string `mapstructure:"server_address"`
}

const (
	DefaultChunkSize       int64 = 1024 * 1024
	DefaultSegmentDuration       = 10
)

// Load 加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("kafka.client_id", "stream-service")
	v.SetDefault("kafka.group_id", "stream-service-group")
	v.SetDefault("kafka.topics.video_events", "video.events")
	v.SetDefault("kafka.topics.transcode_requests", "video.transcode.requests")
	v.SetDefault("worker.resume_pending", true)
	v.SetDefault("metrics.enabled", true)

	// 设置环境变量前缀
	v.SetEnvPrefix("STREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Normalize()

	return &config, nil
}

// Normalize 补全配置的默认值
func (c *Config) Normalize() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = 4 << 30
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "data/stream.db"
	}
	if c.Database.Charset == "" {
		c.Database.Charset = "utf8mb4"
	}

	if c.Storage.UploadRoot == "" {
		c.Storage.UploadRoot = "storage/videos"
	}
	if c.Storage.HLSRoot == "" {
		c.Storage.HLSRoot = "storage/hls"
	}

	if c.Transcode.FFmpeg.BinaryPath == "" {
		c.Transcode.FFmpeg.BinaryPath = "ffmpeg"
	}
	if c.Transcode.FFmpeg.VideoCodec == "" {
		c.Transcode.FFmpeg.VideoCodec = "libx264"
	}
	if c.Transcode.FFmpeg.AudioCodec == "" {
		c.Transcode.FFmpeg.AudioCodec = "aac"
	}
	if c.Transcode.FFmpeg.Timeout == 0 {
		c.Transcode.FFmpeg.Timeout = time.Hour
	}
	if c.Transcode.FFmpeg.KillDelay <= 0 {
		c.Transcode.FFmpeg.KillDelay = 5 * time.Second
	}
	if c.Transcode.SegmentDuration <= 0 {
		c.Transcode.SegmentDuration = DefaultSegmentDuration
	}

	if c.Stream.ChunkSize <= 0 {
		c.Stream.ChunkSize = DefaultChunkSize
	}

	if c.Worker.WorkerID == "" {
		c.Worker.WorkerID = "transcode-worker"
	}
	if c.Worker.MaxConcurrentTasks <= 0 {
		c.Worker.MaxConcurrentTasks = 2
	}
	if c.Worker.QueueCapacity <= 0 {
		c.Worker.QueueCapacity = c.Worker.MaxConcurrentTasks * 50
	}
	if c.Worker.ShutdownGracePeriod == 0 {
		c.Worker.ShutdownGracePeriod = 10 * time.Second
	}

	if c.Lock.Backend == "" {
		c.Lock.Backend = "memory"
	}
	if c.Lock.TTL <= 0 {
		// 锁的有效期需要覆盖一次完整的转码
		c.Lock.TTL = c.Transcode.FFmpeg.Timeout + time.Minute
	}
	if c.Lock.Prefix == "" {
		c.Lock.Prefix = "stream:transcode:lock:"
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	if len(c.Kafka.BootstrapServers) == 0 {
		c.Kafka.BootstrapServers = []string{"localhost:29092"}
	}
	if c.Kafka.ClientID == "" {
		c.Kafka.ClientID = "stream-service"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "stream-service-group"
	}
	if c.Kafka.Topics.VideoEvents == "" {
		c.Kafka.Topics.VideoEvents = "video.events"
	}
	if c.Kafka.Topics.TranscodeRequests == "" {
		c.Kafka.Topics.TranscodeRequests = "video.transcode.requests"
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
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database, c.Charset)
}

// GetRedisAddr 获取Redis地址
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
