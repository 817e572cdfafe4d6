// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8080
	DefaultLogLevel        = "INFO"
	DefaultSearchLimit     = 20
	DefaultSearchThreshold = 0.1
	DefaultProbeTimeout    = 3 * time.Second
	DefaultQueryTimeout    = 8 * time.Second
	DefaultRequestTimeout  = 60 * time.Second
	DefaultSyncDelay       = 100 * time.Millisecond
	DefaultModelID         = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultMaxOpenConns    = 10
	DefaultMaxIdleConns    = 5
	DefaultConnMaxLifetime = 30 * time.Minute
	DefaultModelSubdir     = "models"
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Endpoint configures a remote embedding service. When unset, embeddings
// are generated in process by the local model cache.
type Endpoint struct {
	baseURL string
	model   string
	apiKey  string
	timeout time.Duration
}

// NewEndpoint creates an Endpoint.
func NewEndpoint(baseURL, model, apiKey string, timeout time.Duration) Endpoint {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return Endpoint{
		baseURL: baseURL,
		model:   model,
		apiKey:  apiKey,
		timeout: timeout,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// IsConfigured returns true if the endpoint has required configuration.
func (e Endpoint) IsConfigured() bool {
	return e.apiKey != "" && e.model != ""
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host              string
	port              int
	dataDir           string
	dbURL             string
	vectorDBURL       string
	logLevel          string
	logFormat         LogFormat
	searchLimit       int
	searchThreshold   float64
	probeTimeout      time.Duration
	queryTimeout      time.Duration
	requestTimeout    time.Duration
	syncDelay         time.Duration
	modelID           string
	embeddingEndpoint *Endpoint
	maxOpenConns      int
	maxIdleConns      int
	connMaxLifetime   time.Duration
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".semsearch"
	}
	return filepath.Join(home, ".semsearch")
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:            DefaultHost,
		port:            DefaultPort,
		dataDir:         dataDir,
		dbURL:           "sqlite:///" + filepath.Join(dataDir, "semsearch.db"),
		logLevel:        DefaultLogLevel,
		logFormat:       LogFormatPretty,
		searchLimit:     DefaultSearchLimit,
		searchThreshold: DefaultSearchThreshold,
		probeTimeout:    DefaultProbeTimeout,
		queryTimeout:    DefaultQueryTimeout,
		requestTimeout:  DefaultRequestTimeout,
		syncDelay:       DefaultSyncDelay,
		modelID:         DefaultModelID,
		maxOpenConns:    DefaultMaxOpenConns,
		maxIdleConns:    DefaultMaxIdleConns,
		connMaxLifetime: DefaultConnMaxLifetime,
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the catalog database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// VectorDBURL returns the vector store connection URL. When empty, the
// vector store shares the catalog database connection.
func (c AppConfig) VectorDBURL() string {
	if c.vectorDBURL == "" {
		return c.dbURL
	}
	return c.vectorDBURL
}

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// SearchLimit returns the default search result limit.
func (c AppConfig) SearchLimit() int { return c.searchLimit }

// SearchThreshold returns the default similarity threshold.
func (c AppConfig) SearchThreshold() float64 { return c.searchThreshold }

// ProbeTimeout returns the vector store availability probe timeout.
func (c AppConfig) ProbeTimeout() time.Duration { return c.probeTimeout }

// QueryTimeout returns the main vector query timeout.
func (c AppConfig) QueryTimeout() time.Duration { return c.queryTimeout }

// RequestTimeout returns the bound on a single HTTP request.
func (c AppConfig) RequestTimeout() time.Duration { return c.requestTimeout }

// SyncDelay returns the inter-product delay during embedding sync.
func (c AppConfig) SyncDelay() time.Duration { return c.syncDelay }

// ModelID returns the Hugging Face identifier of the embedding model.
func (c AppConfig) ModelID() string { return c.modelID }

// EmbeddingEndpoint returns the remote embedding endpoint config, or nil
// when embeddings run in process.
func (c AppConfig) EmbeddingEndpoint() *Endpoint { return c.embeddingEndpoint }

// MaxOpenConns returns the connection pool upper bound.
func (c AppConfig) MaxOpenConns() int { return c.maxOpenConns }

// MaxIdleConns returns the idle connection pool bound.
func (c AppConfig) MaxIdleConns() int { return c.maxIdleConns }

// ConnMaxLifetime returns the maximum connection lifetime.
func (c AppConfig) ConnMaxLifetime() time.Duration { return c.connMaxLifetime }

// ModelDir returns the on-disk model cache directory. Presence of model
// files under this path is the sole signal used to skip network fetch.
func (c AppConfig) ModelDir() string {
	return filepath.Join(c.dataDir, DefaultModelSubdir)
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error {
	return os.MkdirAll(c.dataDir, 0o755)
}

// EnsureModelDir creates the model cache directory if it doesn't exist.
func (c AppConfig) EnsureModelDir() error {
	return os.MkdirAll(c.ModelDir(), 0o755)
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		c.dataDir = dir
		if c.dbURL == "" || strings.Contains(c.dbURL, "semsearch.db") {
			c.dbURL = "sqlite:///" + filepath.Join(dir, "semsearch.db")
		}
	}
}

// WithDBURL sets the catalog database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithVectorDBURL sets the vector store URL.
func WithVectorDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.vectorDBURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithSearchLimit sets the default search result limit.
func WithSearchLimit(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.searchLimit = n
		}
	}
}

// WithSearchThreshold sets the default similarity threshold.
func WithSearchThreshold(t float64) AppConfigOption {
	return func(c *AppConfig) {
		if t >= 0 && t <= 1 {
			c.searchThreshold = t
		}
	}
}

// WithProbeTimeout sets the availability probe timeout.
func WithProbeTimeout(d time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if d > 0 {
			c.probeTimeout = d
		}
	}
}

// WithQueryTimeout sets the main vector query timeout.
func WithQueryTimeout(d time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if d > 0 {
			c.queryTimeout = d
		}
	}
}

// WithRequestTimeout sets the bound on a single HTTP request.
func WithRequestTimeout(d time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithSyncDelay sets the inter-product sync delay.
func WithSyncDelay(d time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if d >= 0 {
			c.syncDelay = d
		}
	}
}

// WithModelID sets the embedding model identifier.
func WithModelID(id string) AppConfigOption {
	return func(c *AppConfig) {
		if id != "" {
			c.modelID = id
		}
	}
}

// WithEmbeddingEndpoint sets the remote embedding endpoint.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embeddingEndpoint = &e }
}

// WithPool sets connection pool bounds.
func WithPool(maxOpen, maxIdle int, lifetime time.Duration) AppConfigOption {
	return func(c *AppConfig) {
		if maxOpen > 0 {
			c.maxOpenConns = maxOpen
		}
		if maxIdle > 0 {
			c.maxIdleConns = maxIdle
		}
		if lifetime > 0 {
			c.connMaxLifetime = lifetime
		}
	}
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// Credentials are masked.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("data_dir", c.dataDir),
		slog.String("model_dir", c.ModelDir()),
		slog.String("model_id", c.modelID),
		slog.String("log_level", c.logLevel),
		slog.String("db_url", maskDBURL(c.dbURL)),
		slog.String("vector_db_url", maskDBURL(c.VectorDBURL())),
		slog.Int("search_limit", c.searchLimit),
		slog.Float64("search_threshold", c.searchThreshold),
		slog.Duration("probe_timeout", c.probeTimeout),
		slog.Duration("query_timeout", c.queryTimeout),
		slog.Bool("remote_embeddings", c.embeddingEndpoint != nil && c.embeddingEndpoint.IsConfigured()),
	}
}

func maskDBURL(url string) string {
	if url == "" {
		return "(default)"
	}
	if strings.HasPrefix(url, "sqlite:") {
		return url
	}
	return "postgres://***@***"
}
