// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Queue     QueueConfig     `yaml:"queue"`
	Worker    WorkerConfig    `yaml:"worker"`
	Retention RetentionConfig `yaml:"retention"`
	Auth      AuthConfig      `yaml:"auth"`
	Replicate ReplicateConfig `yaml:"replicate"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Video     VideoConfig     `yaml:"video"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
}

// StorageConfig selects the openings store backend
type StorageConfig struct {
	Openings string         `yaml:"openings"` // memory, leveldb or postgres
	LevelDB  LevelDBConfig  `yaml:"leveldb"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// LevelDBConfig holds LevelDB configuration
type LevelDBConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig holds PostgreSQL configuration
type PostgresConfig struct {
	URL string `yaml:"-"`
}

// QueueConfig selects the job queue backend
type QueueConfig struct {
	Backend string `yaml:"backend"` // memory or nats
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	Buffer  int    `yaml:"buffer"`
}

// WorkerConfig holds pipeline worker configuration
type WorkerConfig struct {
	MaxWorkers      int `yaml:"maxWorkers"`
	ShutdownTimeout int `yaml:"shutdownTimeout"`
}

// RetentionConfig bounds how long task records are kept
type RetentionConfig struct {
	MaxAgeSeconds int `yaml:"maxAgeSeconds"`
	SweepSeconds  int `yaml:"sweepSeconds"`
}

// AuthConfig selects the authenticator implementation
type AuthConfig struct {
	Mode      string `yaml:"mode"` // mock or jwt
	JWTSecret string `yaml:"-"`
}

// ReplicateConfig holds the image-transform service configuration
type ReplicateConfig struct {
	BaseURL     string `yaml:"baseUrl"`
	Token       string `yaml:"-"`
	Model       string `yaml:"model"`
	PollSeconds int    `yaml:"pollSeconds"`
}

// OpenAIConfig holds the narrative service configuration
type OpenAIConfig struct {
	APIKey    string `yaml:"-"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"maxTokens"`
}

// VideoConfig holds video composition configuration
type VideoConfig struct {
	OutputDir string `yaml:"outputDir"`
	TempDir   string `yaml:"tempDir"`
	StaticDir string `yaml:"staticDir"`
	MusicDir  string `yaml:"musicDir"`
	FFmpeg    string `yaml:"ffmpeg"`
}

// Default configuration values
const (
	DefaultServerPort         = "8080"
	DefaultServerReadTimeout  = 30
	DefaultServerWriteTimeout = 30
	DefaultOpeningsBackend    = "memory"
	DefaultLevelDBPath        = "./data/leveldb"
	DefaultQueueBackend       = "memory"
	DefaultQueueSubject       = "openings.jobs"
	DefaultQueueBuffer        = 64
	DefaultMaxWorkers         = 10
	DefaultShutdownTimeout    = 30
	DefaultRetentionMaxAge    = 3600 // retention window: one hour
	DefaultRetentionSweep     = 600
	DefaultAuthMode           = "mock"
	DefaultReplicateBaseURL   = "https://api.replicate.com/v1"
	DefaultReplicateModel     = "cjwbw/animegan2-pytorch"
	DefaultReplicatePoll      = 2
	DefaultOpenAIModel        = "gpt-4-1106-preview"
	DefaultOpenAIMaxTokens    = 1000
	DefaultOutputDir          = "./output_videos"
	DefaultTempDir            = "./temp"
	DefaultStaticDir          = "./static"
	DefaultMusicDir           = "./assets/music"
	DefaultFFmpeg             = "ffmpeg"
)

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as integer or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// Load creates a new configuration from an optional YAML file, with
// environment variables taking precedence over file values
func Load(configPath string) (*Config, error) {
	var config Config

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.Server = ServerConfig{
		Port:         getEnv("OPENING_SERVER_PORT", orDefault(config.Server.Port, DefaultServerPort)),
		ReadTimeout:  getEnvInt("OPENING_SERVER_READ_TIMEOUT", orDefaultInt(config.Server.ReadTimeout, DefaultServerReadTimeout)),
		WriteTimeout: getEnvInt("OPENING_SERVER_WRITE_TIMEOUT", orDefaultInt(config.Server.WriteTimeout, DefaultServerWriteTimeout)),
	}

	config.Storage.Openings = getEnv("OPENING_STORAGE_BACKEND", orDefault(config.Storage.Openings, DefaultOpeningsBackend))
	config.Storage.LevelDB.Path = getEnv("OPENING_LEVELDB_PATH", orDefault(config.Storage.LevelDB.Path, DefaultLevelDBPath))
	config.Storage.Postgres.URL = os.Getenv("OPENING_POSTGRES_URL")
	if config.Storage.Openings == "postgres" && config.Storage.Postgres.URL == "" {
		return nil, fmt.Errorf("OPENING_POSTGRES_URL environment variable is required for the postgres backend")
	}

	config.Queue = QueueConfig{
		Backend: getEnv("OPENING_QUEUE_BACKEND", orDefault(config.Queue.Backend, DefaultQueueBackend)),
		URL:     getEnv("OPENING_NATS_URL", config.Queue.URL),
		Subject: getEnv("OPENING_QUEUE_SUBJECT", orDefault(config.Queue.Subject, DefaultQueueSubject)),
		Buffer:  getEnvInt("OPENING_QUEUE_BUFFER", orDefaultInt(config.Queue.Buffer, DefaultQueueBuffer)),
	}
	if config.Queue.Backend == "nats" && config.Queue.URL == "" {
		return nil, fmt.Errorf("OPENING_NATS_URL environment variable is required for the nats backend")
	}

	config.Worker = WorkerConfig{
		MaxWorkers:      getEnvInt("OPENING_WORKER_MAX_WORKERS", orDefaultInt(config.Worker.MaxWorkers, DefaultMaxWorkers)),
		ShutdownTimeout: getEnvInt("OPENING_WORKER_SHUTDOWN_TIMEOUT", orDefaultInt(config.Worker.ShutdownTimeout, DefaultShutdownTimeout)),
	}

	config.Retention = RetentionConfig{
		MaxAgeSeconds: getEnvInt("OPENING_RETENTION_MAX_AGE", orDefaultInt(config.Retention.MaxAgeSeconds, DefaultRetentionMaxAge)),
		SweepSeconds:  getEnvInt("OPENING_RETENTION_SWEEP_INTERVAL", orDefaultInt(config.Retention.SweepSeconds, DefaultRetentionSweep)),
	}

	config.Auth = AuthConfig{
		Mode:      getEnv("OPENING_AUTH_MODE", orDefault(config.Auth.Mode, DefaultAuthMode)),
		JWTSecret: os.Getenv("OPENING_JWT_SECRET"),
	}
	if config.Auth.Mode == "jwt" && config.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("OPENING_JWT_SECRET environment variable is required for jwt auth")
	}

	config.Replicate = ReplicateConfig{
		BaseURL:     getEnv("REPLICATE_BASE_URL", orDefault(config.Replicate.BaseURL, DefaultReplicateBaseURL)),
		Token:       os.Getenv("REPLICATE_API_TOKEN"),
		Model:       getEnv("REPLICATE_MODEL", orDefault(config.Replicate.Model, DefaultReplicateModel)),
		PollSeconds: getEnvInt("REPLICATE_POLL_SECONDS", orDefaultInt(config.Replicate.PollSeconds, DefaultReplicatePoll)),
	}

	config.OpenAI = OpenAIConfig{
		APIKey:    os.Getenv("OPENAI_API_KEY"),
		Model:     getEnv("OPENAI_MODEL", orDefault(config.OpenAI.Model, DefaultOpenAIModel)),
		MaxTokens: getEnvInt("OPENAI_MAX_TOKENS", orDefaultInt(config.OpenAI.MaxTokens, DefaultOpenAIMaxTokens)),
	}

	config.Video = VideoConfig{
		OutputDir: getEnv("OPENING_OUTPUT_DIR", orDefault(config.Video.OutputDir, DefaultOutputDir)),
		TempDir:   getEnv("OPENING_TEMP_DIR", orDefault(config.Video.TempDir, DefaultTempDir)),
		StaticDir: getEnv("OPENING_STATIC_DIR", orDefault(config.Video.StaticDir, DefaultStaticDir)),
		MusicDir:  getEnv("OPENING_MUSIC_DIR", orDefault(config.Video.MusicDir, DefaultMusicDir)),
		FFmpeg:    getEnv("OPENING_FFMPEG_BIN", orDefault(config.Video.FFmpeg, DefaultFFmpeg)),
	}

	return &config, nil
}

func orDefault(value, defaultValue string) string {
	if value != "" {
		return value
	}
	return defaultValue
}

func orDefaultInt(value, defaultValue int) int {
	if value != 0 {
		return value
	}
	return defaultValue
}
