package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/pelletier/go-toml/v2"

	"file-management-api/internal/shared/telemetry"
)

const (
	defaultConfigFile    = "config.toml"
	defaultMaxUploadSize = "32MB"
	defaultCollection    = "file_metadata"
)

// Config holds application configuration.
type Config struct {
	Port             string       `toml:"port"`
	Env              string       `toml:"env"`
	LogLevel         string       `toml:"log_level"`
	CORSAllowOrigin  []string     `toml:"cors_allow_origins"`
	MaxUploadSize    string       `toml:"max_upload_size"`
	ShutdownTimeout  string       `toml:"shutdown_timeout"`
	ObjectStoreType  string       `toml:"object_store"`
	LocalStoreDir    string       `toml:"local_store_dir"`
	S3               S3Config     `toml:"s3"`
	Minio            MinioConfig  `toml:"minio"`
	MetadataStore    string       `toml:"metadata_store"`
	DatabaseURL      string       `toml:"database_url"`
	DBPool           DBPoolConfig `toml:"db_pool"`
	Mongo            MongoConfig  `toml:"mongo"`
	UploadRate       RateConfig   `toml:"upload_rate"`
	Events           EventConfig  `toml:"events"`
	maxUploadSizeVal int64
}

// S3Config configures the S3 (or S3-compatible) blob store.
type S3Config struct {
	Region          string `toml:"region"`
	Bucket          string `toml:"bucket"`
	Prefix          string `toml:"prefix"`
	Endpoint        string `toml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	UsePathStyle    bool   `toml:"use_path_style"`
	SSEKMSKeyID     string `toml:"sse_kms_key_id"`
}

// MinioConfig configures the MinIO blob store.
type MinioConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	UseSSL    bool   `toml:"use_ssl"`
}

// MongoConfig configures the MongoDB metadata store.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// DBPoolConfig tunes the Postgres connection pool. Zero values keep the
// process defaults.
type DBPoolConfig struct {
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime string `toml:"conn_max_lifetime"`
	ConnMaxIdleTime string `toml:"conn_max_idle_time"`
	PingTimeout     string `toml:"ping_timeout"`
}

// ConnMaxLifetimeDuration returns the parsed lifetime, or zero when unset.
func (p DBPoolConfig) ConnMaxLifetimeDuration() time.Duration {
	return optionalDuration(p.ConnMaxLifetime)
}

// ConnMaxIdleTimeDuration returns the parsed idle time, or zero when unset.
func (p DBPoolConfig) ConnMaxIdleTimeDuration() time.Duration {
	return optionalDuration(p.ConnMaxIdleTime)
}

// PingTimeoutDuration returns the parsed ping timeout, or zero when unset.
func (p DBPoolConfig) PingTimeoutDuration() time.Duration {
	return optionalDuration(p.PingTimeout)
}

// EventConfig configures the optional SQS queue for upload events.
type EventConfig struct {
	SQSQueueURL string `toml:"sqs_queue_url"`
	SQSEndpoint string `toml:"sqs_endpoint"`
}

// RateConfig is a per-user token bucket for uploads. A zero rate disables it.
type RateConfig struct {
	PerSecond float64 `toml:"per_second"`
	Burst     int     `toml:"burst"`
}

// MaxUploadSizeBytes returns the parsed upload limit.
func (c Config) MaxUploadSizeBytes() int64 {
	if c.maxUploadSizeVal > 0 {
		return c.maxUploadSizeVal
	}
	size, err := units.FromHumanSize(c.MaxUploadSize)
	if err != nil || size <= 0 {
		size, _ = units.FromHumanSize(defaultMaxUploadSize)
	}
	return size
}

// ShutdownTimeoutDuration parses the shutdown timeout, defaulting to 15s.
func (c Config) ShutdownTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// Load reads configuration from an optional TOML file and environment variables.
// Environment variables win over file values.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	var cfg Config
	if path := configPath(); path != "" {
		fileCfg, err := loadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = fileCfg
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	if cfg.Env == "production" && cfg.MetadataStore == "memory" {
		telemetry.Warn("config.memory_metadata_in_production", nil)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Port, "PORT")
	setString(&c.Env, "ENV")
	setString(&c.LogLevel, "LOG_LEVEL")
	if v := os.Getenv("CORS_ALLOW_ORIGINS"); v != "" {
		c.CORSAllowOrigin = splitAndTrim(v)
	}
	setString(&c.MaxUploadSize, "MAX_UPLOAD_SIZE")
	setString(&c.ShutdownTimeout, "SHUTDOWN_TIMEOUT")
	setString(&c.ObjectStoreType, "OBJECT_STORE")
	setString(&c.LocalStoreDir, "LOCAL_STORE_DIR")

	setString(&c.S3.Region, "AWS_REGION")
	setString(&c.S3.Bucket, "S3_BUCKET")
	setString(&c.S3.Prefix, "S3_PREFIX")
	setString(&c.S3.Endpoint, "S3_ENDPOINT")
	setString(&c.S3.AccessKeyID, "S3_ACCESS_KEY_ID")
	setString(&c.S3.SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	setBool(&c.S3.UsePathStyle, "S3_USE_PATH_STYLE")
	setString(&c.S3.SSEKMSKeyID, "SSE_KMS_KEY_ID")

	setString(&c.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Minio.Bucket, "MINIO_BUCKET")
	setBool(&c.Minio.UseSSL, "MINIO_USE_SSL")

	setString(&c.MetadataStore, "METADATA_STORE")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setInt(&c.DBPool.MaxOpenConns, "DB_MAX_OPEN_CONNS")
	setInt(&c.DBPool.MaxIdleConns, "DB_MAX_IDLE_CONNS")
	setString(&c.DBPool.ConnMaxLifetime, "DB_CONN_MAX_LIFETIME")
	setString(&c.DBPool.ConnMaxIdleTime, "DB_CONN_MAX_IDLE_TIME")
	setString(&c.DBPool.PingTimeout, "DB_PING_TIMEOUT")
	setString(&c.Mongo.URI, "MONGO_URI")
	setString(&c.Mongo.Database, "MONGO_DATABASE")
	setString(&c.Mongo.Collection, "MONGO_COLLECTION")

	setString(&c.Events.SQSQueueURL, "SQS_QUEUE_URL")
	setString(&c.Events.SQSEndpoint, "SQS_ENDPOINT")

	setFloat(&c.UploadRate.PerSecond, "UPLOAD_RATE_PER_SEC")
	setInt(&c.UploadRate.Burst, "UPLOAD_RATE_BURST")
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "8080"
	}
	c.Env = normalizeEnv(c.Env)
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if len(c.CORSAllowOrigin) == 0 {
		c.CORSAllowOrigin = []string{"http://localhost:5173"}
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = defaultMaxUploadSize
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "15s"
	}
	c.ObjectStoreType = normalizeStoreType(c.ObjectStoreType)
	if c.LocalStoreDir == "" {
		c.LocalStoreDir = "./data"
	}
	c.MetadataStore = normalizeMetadataStore(c.MetadataStore, c.DatabaseURL, c.Mongo.URI)
	if c.Mongo.Database == "" {
		c.Mongo.Database = "files"
	}
	if c.Mongo.Collection == "" {
		c.Mongo.Collection = defaultCollection
	}
	if c.UploadRate.PerSecond > 0 && c.UploadRate.Burst <= 0 {
		c.UploadRate.Burst = int(math.Ceil(c.UploadRate.PerSecond))
	}
}

func (c *Config) validate() error {
	size, err := units.FromHumanSize(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	c.maxUploadSizeVal = size

	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}

	if c.DBPool.MaxOpenConns < 0 || c.DBPool.MaxIdleConns < 0 {
		return fmt.Errorf("db_pool connection counts must not be negative")
	}
	for name, raw := range map[string]string{
		"conn_max_lifetime":  c.DBPool.ConnMaxLifetime,
		"conn_max_idle_time": c.DBPool.ConnMaxIdleTime,
		"ping_timeout":       c.DBPool.PingTimeout,
	} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("invalid db_pool.%s: %w", name, err)
		}
	}

	if c.UploadRate.PerSecond < 0 {
		return fmt.Errorf("upload_rate.per_second must not be negative")
	}

	switch c.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(c.S3.Bucket) == "" {
			return fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
	case "minio":
		if strings.TrimSpace(c.Minio.Endpoint) == "" || strings.TrimSpace(c.Minio.Bucket) == "" {
			return fmt.Errorf("OBJECT_STORE=minio requires MINIO_ENDPOINT and MINIO_BUCKET")
		}
	}

	switch c.MetadataStore {
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("METADATA_STORE=postgres requires DATABASE_URL")
		}
	case "mongo":
		if strings.TrimSpace(c.Mongo.URI) == "" {
			return fmt.Errorf("METADATA_STORE=mongo requires MONGO_URI")
		}
	}
	return nil
}

func loadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func configPath() string {
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	return ""
}

func setString(dst *string, key string) {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		*dst = val
	}
}

func setBool(dst *bool, key string) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		telemetry.Warn("config.env.invalid_bool", map[string]any{"key": key, "value": raw})
		return
	}
	*dst = val
}

func setFloat(dst *float64, key string) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		telemetry.Warn("config.env.invalid_float", map[string]any{"key": key, "value": raw})
		return
	}
	*dst = val
}

func setInt(dst *int, key string) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		telemetry.Warn("config.env.invalid_int", map[string]any{"key": key, "value": raw})
		return
	}
	*dst = val
}

func optionalDuration(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	default:
		return "local"
	}
}

// normalizeMetadataStore picks the metadata backend; an unset value follows
// whichever connection string is configured.
func normalizeMetadataStore(raw, databaseURL, mongoURI string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	case "mongo", "mongodb":
		return "mongo"
	case "memory":
		return "memory"
	}
	switch {
	case strings.TrimSpace(databaseURL) != "":
		return "postgres"
	case strings.TrimSpace(mongoURI) != "":
		return "mongo"
	default:
		return "memory"
	}
}
