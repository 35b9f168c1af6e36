package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// Export engines
const (
	ExportEngineCanvas   = "canvas"
	ExportEngineChromedp = "chromedp"
)

// Archive drivers
const (
	ArchiveS3    = "s3"
	ArchiveLocal = "local"
)

// Config holds all application configuration
type Config struct {
	App     AppConfig
	Log     LogConfig
	HTTP    HTTPConfig
	Storage StorageConfig
	Seal    SealConfig
	Export  ExportConfig
	Archive ArchiveConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	TrustedProxies []string
}

// StorageConfig selects and configures the key-value store behind the sheet
type StorageConfig struct {
	Driver     string // memory, sqlite, postgres, redis
	SQLitePath string
	Database   DatabaseConfig
	Redis      RedisConfig
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// SealConfig controls how uploaded seal images are stored
type SealConfig struct {
	StripWhiteBackground bool
	Threshold            int
	MaxUploadBytes       int64
}

// ExportConfig controls PNG export of the sheet
type ExportConfig struct {
	Engine          string // canvas, chromedp
	Scale           float64
	Timeout         time.Duration
	ChromeRemoteURL string // connect to a running browser instead of launching one
	NoSandbox       bool
	FontPath        string // TTF/OTF used by the canvas engine; must cover Hangul
	DefaultFileName string
	RateLimit       int // exports per client per RateWindow; negative disables
	RateWindow      time.Duration
}

// ArchiveConfig configures optional upload of every export to S3-compatible storage
type ArchiveConfig struct {
	Enabled         bool
	Driver          string // s3, local
	LocalPath       string
	RetentionDays   int // local only; 0 keeps exports forever
	Bucket          string
	Prefix          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with ESTIMATE_ prefix (e.g., ESTIMATE_STORAGE_DRIVER)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("ESTIMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans that default to true cannot be told apart from "unset" after the fact
	v.SetDefault("seal.strip_white_background", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(v.GetString("storage.driver")),
			SQLitePath: v.GetString("storage.sqlite_path"),
			Database: DatabaseConfig{
				Host:            v.GetString("storage.database.host"),
				Port:            v.GetInt("storage.database.port"),
				User:            v.GetString("storage.database.user"),
				Password:        v.GetString("storage.database.password"),
				DBName:          v.GetString("storage.database.dbname"),
				SSLMode:         v.GetString("storage.database.sslmode"),
				MaxOpenConns:    v.GetInt("storage.database.max_open_conns"),
				MaxIdleConns:    v.GetInt("storage.database.max_idle_conns"),
				ConnMaxLifetime: v.GetInt("storage.database.conn_max_lifetime"),
				ConnMaxIdleTime: v.GetInt("storage.database.conn_max_idle_time"),
			},
			Redis: RedisConfig{
				Host:      v.GetString("storage.redis.host"),
				Port:      v.GetInt("storage.redis.port"),
				Password:  v.GetString("storage.redis.password"),
				DB:        v.GetInt("storage.redis.db"),
				KeyPrefix: v.GetString("storage.redis.key_prefix"),
			},
		},
		Seal: SealConfig{
			StripWhiteBackground: v.GetBool("seal.strip_white_background"),
			Threshold:            v.GetInt("seal.threshold"),
			MaxUploadBytes:       v.GetInt64("seal.max_upload_bytes"),
		},
		Export: ExportConfig{
			Engine:          strings.ToLower(v.GetString("export.engine")),
			Scale:           v.GetFloat64("export.scale"),
			Timeout:         v.GetDuration("export.timeout"),
			ChromeRemoteURL: v.GetString("export.chrome_remote_url"),
			NoSandbox:       v.GetBool("export.no_sandbox"),
			FontPath:        v.GetString("export.font_path"),
			DefaultFileName: v.GetString("export.default_file_name"),
			RateLimit:       v.GetInt("export.rate_limit"),
			RateWindow:      v.GetDuration("export.rate_window"),
		},
		Archive: ArchiveConfig{
			Enabled:         v.GetBool("archive.enabled"),
			Driver:          strings.ToLower(v.GetString("archive.driver")),
			LocalPath:       v.GetString("archive.local_path"),
			RetentionDays:   v.GetInt("archive.retention_days"),
			Bucket:          v.GetString("archive.bucket"),
			Prefix:          v.GetString("archive.prefix"),
			Endpoint:        v.GetString("archive.endpoint"),
			Region:          v.GetString("archive.region"),
			AccessKeyID:     v.GetString("archive.access_key_id"),
			SecretAccessKey: v.GetString("archive.secret_access_key"),
			UsePathStyle:    v.GetBool("archive.use_path_style"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "estimate-sheet"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 30 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 120 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB, room for a seal upload
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageSQLite
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "data/estimate.db"
	}
	if cfg.Storage.Database.Host == "" {
		cfg.Storage.Database.Host = "localhost"
	}
	if cfg.Storage.Database.Port == 0 {
		cfg.Storage.Database.Port = 5432
	}
	if cfg.Storage.Database.User == "" {
		cfg.Storage.Database.User = "postgres"
	}
	if cfg.Storage.Database.DBName == "" {
		cfg.Storage.Database.DBName = "estimate"
	}
	if cfg.Storage.Database.SSLMode == "" {
		cfg.Storage.Database.SSLMode = "disable"
	}
	if cfg.Storage.Database.MaxOpenConns == 0 {
		cfg.Storage.Database.MaxOpenConns = 10
	}
	if cfg.Storage.Database.MaxIdleConns == 0 {
		cfg.Storage.Database.MaxIdleConns = 2
	}
	if cfg.Storage.Database.ConnMaxLifetime == 0 {
		cfg.Storage.Database.ConnMaxLifetime = 60
	}
	if cfg.Storage.Database.ConnMaxIdleTime == 0 {
		cfg.Storage.Database.ConnMaxIdleTime = 30
	}
	if cfg.Storage.Redis.Host == "" {
		cfg.Storage.Redis.Host = "localhost"
	}
	if cfg.Storage.Redis.Port == 0 {
		cfg.Storage.Redis.Port = 6379
	}
	if cfg.Storage.Redis.KeyPrefix == "" {
		cfg.Storage.Redis.KeyPrefix = "estimate:"
	}
	if cfg.Seal.Threshold == 0 {
		cfg.Seal.Threshold = 240
	}
	if cfg.Seal.MaxUploadBytes == 0 {
		cfg.Seal.MaxUploadBytes = 5 << 20
	}
	if cfg.Export.Engine == "" {
		cfg.Export.Engine = ExportEngineCanvas
	}
	if cfg.Export.Scale == 0 {
		cfg.Export.Scale = 2
	}
	if cfg.Export.Timeout == 0 {
		cfg.Export.Timeout = 30 * time.Second
	}
	if cfg.Export.DefaultFileName == "" {
		cfg.Export.DefaultFileName = "견적서"
	}
	if cfg.Export.RateLimit == 0 {
		cfg.Export.RateLimit = 10
	}
	if cfg.Export.RateWindow == 0 {
		cfg.Export.RateWindow = time.Minute
	}
	if cfg.Archive.Driver == "" {
		cfg.Archive.Driver = ArchiveS3
	}
	if cfg.Archive.LocalPath == "" {
		cfg.Archive.LocalPath = "data/exports"
	}
	if cfg.Archive.Region == "" {
		cfg.Archive.Region = "us-east-1"
	}
	if cfg.Archive.Prefix == "" {
		cfg.Archive.Prefix = "exports/"
	}
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageSQLite, StoragePostgres, StorageRedis:
	default:
		return fmt.Errorf("storage.driver must be one of memory, sqlite, postgres, redis; got %q", c.Storage.Driver)
	}

	if c.Storage.Driver == StoragePostgres {
		if c.Storage.Database.MaxOpenConns <= 0 {
			return fmt.Errorf("storage.database.max_open_conns must be positive")
		}
		if c.Storage.Database.MaxIdleConns < 0 {
			return fmt.Errorf("storage.database.max_idle_conns cannot be negative")
		}
		if c.Storage.Database.MaxIdleConns > c.Storage.Database.MaxOpenConns {
			return fmt.Errorf("storage.database.max_idle_conns (%d) cannot exceed storage.database.max_open_conns (%d)",
				c.Storage.Database.MaxIdleConns, c.Storage.Database.MaxOpenConns)
		}
	}

	if c.Seal.Threshold < 0 || c.Seal.Threshold > 255 {
		return fmt.Errorf("seal.threshold must be between 0 and 255, got %d", c.Seal.Threshold)
	}
	if c.Seal.MaxUploadBytes < 0 {
		return fmt.Errorf("seal.max_upload_bytes cannot be negative")
	}
	if c.Seal.MaxUploadBytes > c.HTTP.MaxBodySize {
		return fmt.Errorf("seal.max_upload_bytes (%d) cannot exceed http.max_body_size (%d)",
			c.Seal.MaxUploadBytes, c.HTTP.MaxBodySize)
	}

	switch c.Export.Engine {
	case ExportEngineCanvas, ExportEngineChromedp:
	default:
		return fmt.Errorf("export.engine must be canvas or chromedp, got %q", c.Export.Engine)
	}
	if c.Export.Scale < 1 || c.Export.Scale > 4 {
		return fmt.Errorf("export.scale must be between 1 and 4, got %g", c.Export.Scale)
	}

	switch c.Archive.Driver {
	case ArchiveS3, ArchiveLocal:
	default:
		return fmt.Errorf("archive.driver must be s3 or local, got %q", c.Archive.Driver)
	}
	if c.Archive.Enabled && c.Archive.Driver == ArchiveS3 && c.Archive.Bucket == "" {
		return fmt.Errorf("archive.bucket is required when the s3 archive is enabled")
	}
	if c.Archive.RetentionDays < 0 {
		return fmt.Errorf("archive.retention_days cannot be negative")
	}

	if c.App.Env == "production" {
		if c.Storage.Driver == StorageMemory {
			return fmt.Errorf("storage.driver=memory loses the sheet on restart and is not allowed in production")
		}
		if c.Storage.Driver == StoragePostgres && c.Storage.Database.SSLMode == "disable" {
			return fmt.Errorf("storage.database.sslmode cannot be 'disable' in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the host:port of the Redis server
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
