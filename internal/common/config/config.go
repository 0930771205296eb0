// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig               `mapstructure:"app"`
	Server       ServerConfig            `mapstructure:"server"`
	Directory    DirectoryConfig         `mapstructure:"directory"`
	Camunda      CamundaConfig           `mapstructure:"camunda"`
	Database     DatabaseConfig          `mapstructure:"database"`
	Integrations IntegrationConfig       `mapstructure:"integrations"`
	Workers      map[string]WorkerConfig `mapstructure:"workers"`
	Logging      LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// DirectoryConfig drives the record fallback chain and the presentation rules.
type DirectoryConfig struct {
	PageSize        int                `mapstructure:"page_size"`
	Sources         []SourceDescriptor `mapstructure:"sources"`
	CacheTTL        int                `mapstructure:"cache_ttl"` // seconds
	CacheKey        string             `mapstructure:"cache_key"`
	ReviewFloor     int                `mapstructure:"review_floor"`
	FallbackToFirst bool               `mapstructure:"fallback_to_first"`
	BasePath        string             `mapstructure:"base_path"`
	BucketsPath     string             `mapstructure:"buckets_path"`
	FetchTimeout    int                `mapstructure:"fetch_timeout"` // milliseconds
}

// SourceDescriptor names one entry of the fallback chain. Kind is http, s3 or elasticsearch.
type SourceDescriptor struct {
	Name   string `mapstructure:"name"`
	Kind   string `mapstructure:"kind"`
	URL    string `mapstructure:"url"`
	Bucket string `mapstructure:"bucket"`
	Key    string `mapstructure:"key"`
	Index  string `mapstructure:"index"`
	Size   int    `mapstructure:"size"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// Enabled reports whether a Postgres host is configured. The directory itself runs without one.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// IntegrationConfig holds the AWS services used for snapshots and complaint notifications.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled         bool   `mapstructure:"enabled"`
			FromEmail       string `mapstructure:"from_email"`
			ModerationEmail string `mapstructure:"moderation_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled  bool   `mapstructure:"enabled"`
			TopicARN string `mapstructure:"topic_arn"`
		} `mapstructure:"sns"`
		S3 struct {
			Enabled  bool   `mapstructure:"enabled"`
			Endpoint string `mapstructure:"endpoint"`
		} `mapstructure:"s3"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
