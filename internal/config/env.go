package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiter (e.g. EMBEDDING_ENDPOINT_BASE_URL).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.semsearch
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the catalog database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/semsearch.db
	DBURL string `envconfig:"DB_URL"`

	// VectorDBURL is the vector store connection URL. When empty the
	// vector store shares the catalog database.
	// Env: VECTOR_DB_URL
	VectorDBURL string `envconfig:"VECTOR_DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// SearchLimit is the default search result limit.
	// Env: SEARCH_LIMIT (default: 20)
	SearchLimit int `envconfig:"SEARCH_LIMIT" default:"20"`

	// SearchThreshold is the default similarity threshold.
	// Env: SEARCH_THRESHOLD (default: 0.1)
	SearchThreshold float64 `envconfig:"SEARCH_THRESHOLD" default:"0.1"`

	// ProbeTimeoutSeconds is the availability probe timeout.
	// Env: PROBE_TIMEOUT_SECONDS (default: 3)
	ProbeTimeoutSeconds float64 `envconfig:"PROBE_TIMEOUT_SECONDS" default:"3"`

	// QueryTimeoutSeconds is the main vector query timeout.
	// Env: QUERY_TIMEOUT_SECONDS (default: 8)
	QueryTimeoutSeconds float64 `envconfig:"QUERY_TIMEOUT_SECONDS" default:"8"`

	// RequestTimeoutSeconds bounds a single HTTP API request.
	// Env: REQUEST_TIMEOUT_SECONDS (default: 60)
	RequestTimeoutSeconds float64 `envconfig:"REQUEST_TIMEOUT_SECONDS" default:"60"`

	// SyncDelayMillis is the inter-product delay during embedding sync.
	// Env: SYNC_DELAY_MILLIS (default: 100)
	SyncDelayMillis int `envconfig:"SYNC_DELAY_MILLIS" default:"100"`

	// ModelID is the Hugging Face identifier of the embedding model.
	// Env: MODEL_ID (default: sentence-transformers/all-MiniLM-L6-v2)
	ModelID string `envconfig:"MODEL_ID" default:"sentence-transformers/all-MiniLM-L6-v2"`

	// EmbeddingEndpoint configures a remote embedding service; when unset
	// the local model cache is used.
	EmbeddingEndpoint EndpointEnv `envconfig:"EMBEDDING_ENDPOINT"`

	// MaxOpenConns bounds the database connection pool.
	// Env: MAX_OPEN_CONNS (default: 10)
	MaxOpenConns int `envconfig:"MAX_OPEN_CONNS" default:"10"`

	// MaxIdleConns bounds the idle connection pool.
	// Env: MAX_IDLE_CONNS (default: 5)
	MaxIdleConns int `envconfig:"MAX_IDLE_CONNS" default:"5"`

	// ConnMaxLifetimeMinutes bounds connection lifetime.
	// Env: CONN_MAX_LIFETIME_MINUTES (default: 30)
	ConnMaxLifetimeMinutes int `envconfig:"CONN_MAX_LIFETIME_MINUTES" default:"30"`
}

// EndpointEnv holds environment configuration for a remote embedding endpoint.
type EndpointEnv struct {
	// BaseURL is the base URL for the endpoint.
	// Env: EMBEDDING_ENDPOINT_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the model identifier (e.g. text-embedding-3-small).
	// Env: EMBEDDING_ENDPOINT_MODEL
	Model string `envconfig:"MODEL"`

	// APIKey is the API key for authentication.
	// Env: EMBEDDING_ENDPOINT_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// TimeoutSeconds is the request timeout in seconds.
	// Env: EMBEDDING_ENDPOINT_TIMEOUT_SECONDS (default: 60)
	TimeoutSeconds float64 `envconfig:"TIMEOUT_SECONDS" default:"60"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.DataDir != "" {
		cfg = cfg.Apply(WithDataDir(e.DataDir))
	}
	if e.Host != "" {
		cfg = cfg.Apply(WithHost(e.Host))
	}
	if e.Port > 0 {
		cfg = cfg.Apply(WithPort(e.Port))
	}
	if e.DBURL != "" {
		cfg = cfg.Apply(WithDBURL(e.DBURL))
	}
	if e.VectorDBURL != "" {
		cfg = cfg.Apply(WithVectorDBURL(e.VectorDBURL))
	}
	if e.LogLevel != "" {
		cfg = cfg.Apply(WithLogLevel(e.LogLevel))
	}
	if e.LogFormat == string(LogFormatJSON) {
		cfg = cfg.Apply(WithLogFormat(LogFormatJSON))
	}

	cfg = cfg.Apply(
		WithSearchLimit(e.SearchLimit),
		WithSearchThreshold(e.SearchThreshold),
		WithProbeTimeout(secondsToDuration(e.ProbeTimeoutSeconds)),
		WithQueryTimeout(secondsToDuration(e.QueryTimeoutSeconds)),
		WithRequestTimeout(secondsToDuration(e.RequestTimeoutSeconds)),
		WithSyncDelay(time.Duration(e.SyncDelayMillis)*time.Millisecond),
		WithModelID(e.ModelID),
		WithPool(e.MaxOpenConns, e.MaxIdleConns, time.Duration(e.ConnMaxLifetimeMinutes)*time.Minute),
	)

	if e.EmbeddingEndpoint.APIKey != "" && e.EmbeddingEndpoint.Model != "" {
		cfg = cfg.Apply(WithEmbeddingEndpoint(NewEndpoint(
			e.EmbeddingEndpoint.BaseURL,
			e.EmbeddingEndpoint.Model,
			e.EmbeddingEndpoint.APIKey,
			secondsToDuration(e.EmbeddingEndpoint.TimeoutSeconds),
		)))
	}

	return cfg
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
