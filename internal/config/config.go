// Package config provides the configuration schema, loader, and file watcher
// for the readalign scoring service.
package config

// LogLevel controls log verbosity for the readalign server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// DefaultListenAddr is used when server.listen_addr is not set.
const DefaultListenAddr = ":8080"

// Config is the root configuration structure for readalign.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	History    HistoryConfig    `yaml:"history"`
	Comparison ComparisonConfig `yaml:"comparison"`
}

// ServerConfig holds network and logging settings for the readalign server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// HistoryConfig configures the practice-session history store.
type HistoryConfig struct {
	// PostgresDSN is the connection string for the history database. When
	// empty, the server falls back to a process-local in-memory store and
	// session history does not survive restarts.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// ComparisonConfig tunes the phonetic-closeness rules of the comparison
// engine. Zero values fall back to the engine defaults.
type ComparisonConfig struct {
	// MaxEditDistance is the Levenshtein limit for the mispronunciation
	// heuristic. Nil keeps the engine default (1); 0 disables the rule.
	MaxEditDistance *int `yaml:"max_edit_distance"`

	// SimilarityThreshold is the Jaro-Winkler cutoff for the mispronunciation
	// heuristic. Nil keeps the engine default (0.92); a value above 1
	// disables the rule.
	SimilarityThreshold *float64 `yaml:"similarity_threshold"`

	// ConfusionPairs extends the built-in confusable cluster table.
	ConfusionPairs []ConfusionPair `yaml:"confusion_pairs"`
}

// ConfusionPair is one extra confusable cluster pair, applied in both
// directions.
type ConfusionPair struct {
	A string `yaml:"a"`
	B string `yaml:"b"`
}

// ApplyDefaults fills unset fields with their defaults. Called by the loader
// before validation.
func (c *Config) ApplyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = LogInfo
	}
}
