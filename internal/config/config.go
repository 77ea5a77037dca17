package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/vcpkg-harbor/vcpkg-harbor/internal/storage"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
	Sentry  SentryConfig  `mapstructure:"sentry"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	ReadOnly     bool          `mapstructure:"read_only"`
	WriteOnly    bool          `mapstructure:"write_only"`
}

type StorageConfig struct {
	Type  string             `mapstructure:"type"`
	File  FileStorageConfig  `mapstructure:"file"`
	MinIO MinIOStorageConfig `mapstructure:"minio"`
}

type FileStorageConfig struct {
	Path string `mapstructure:"path"`
}

type MinIOStorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SentryConfig struct {
	Dsn     string `mapstructure:"dsn"`
	Enabled bool   `mapstructure:"enabled"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 15151)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.read_only", false)
	v.SetDefault("server.write_only", false)

	v.SetDefault("storage.type", "file")
	v.SetDefault("storage.file.path", "./cache")
	v.SetDefault("storage.minio.endpoint", "localhost:9000")
	v.SetDefault("storage.minio.bucket", "vcpkg-harbor")
	v.SetDefault("storage.minio.use_ssl", true)

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("sentry.enabled", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read from config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Enable environment variable overrides, e.g. VCPKG_SERVER_READ_ONLY
	v.SetEnvPrefix("VCPKG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind the environment variables clients of the original deployment
	// already use
	v.BindEnv("storage.minio.access_key", "VCPKG_MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio.secret_key", "VCPKG_MINIO_SECRET_KEY")
	v.BindEnv("storage.minio.endpoint", "VCPKG_MINIO_ENDPOINT")
	v.BindEnv("storage.minio.bucket", "VCPKG_MINIO_BUCKET")
	v.BindEnv("storage.file.path", "VCPKG_STORAGE_PATH")
	v.BindEnv("sentry.dsn", "SENTRY_DSN")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.ReadOnly && c.Server.WriteOnly {
		return fmt.Errorf("server.read_only and server.write_only are mutually exclusive")
	}

	switch strings.ToLower(c.Storage.Type) {
	case "file":
		if c.Storage.File.Path == "" {
			return fmt.Errorf("storage.file.path is required")
		}
	case "minio":
		if c.Storage.MinIO.Endpoint == "" {
			return fmt.Errorf("storage.minio.endpoint is required")
		}
		if c.Storage.MinIO.Bucket == "" {
			return fmt.Errorf("storage.minio.bucket is required")
		}
		if c.Storage.MinIO.AccessKey == "" {
			return fmt.Errorf("storage.minio.access_key is required")
		}
		if c.Storage.MinIO.SecretKey == "" {
			return fmt.Errorf("storage.minio.secret_key is required")
		}
	default:
		return fmt.Errorf("storage.type must be \"file\" or \"minio\", got %q", c.Storage.Type)
	}

	return nil
}

// BackendConfig converts the storage section into the backend factory's view.
func (c *Config) BackendConfig() storage.Config {
	return storage.Config{
		Type: c.Storage.Type,
		File: storage.FileConfig{
			Path: c.Storage.File.Path,
		},
		MinIO: storage.MinIOConfig{
			Endpoint:  c.Storage.MinIO.Endpoint,
			AccessKey: c.Storage.MinIO.AccessKey,
			SecretKey: c.Storage.MinIO.SecretKey,
			Bucket:    c.Storage.MinIO.Bucket,
			Prefix:    c.Storage.MinIO.Prefix,
			Region:    c.Storage.MinIO.Region,
			UseSSL:    c.Storage.MinIO.UseSSL,
		},
	}
}
