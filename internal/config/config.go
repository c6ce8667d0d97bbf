package config

// Defaults for every tunable limit. These are hoisted to named values so the
// parsing and orchestration logic never carries inline literals.
const (
	// DefaultConfidenceThreshold is the minimum model-reported confidence an
	// extracted idea needs to survive filtering. The boundary value itself is
	// accepted.
	DefaultConfidenceThreshold = 0.6

	// DefaultMaxRecordSeconds bounds a voice recording. Reaching it forces
	// the transition into processing; it is a hard timeout.
	DefaultMaxRecordSeconds = 60

	// DefaultMinAudioBytes is the smallest audio blob worth uploading.
	// Anything below it is rejected before any network call.
	DefaultMinAudioBytes = 1024

	// DefaultMaxAudioBytes matches the transcription service's upload cap.
	DefaultMaxAudioBytes = 25 << 20

	// DefaultMinAnswerChars gates follow-up question generation.
	DefaultMinAnswerChars = 10

	// DefaultMinNotesChars gates description improvement.
	DefaultMinNotesChars = 5

	// DefaultMinTranscriptChars and DefaultMaxTranscriptChars bound the
	// transcript accepted by idea generation.
	DefaultMinTranscriptChars = 10
	DefaultMaxTranscriptChars = 8000
)

// Config represents the full application configuration.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Anthropic     AnthropicConfig     `mapstructure:"anthropic"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Limits        LimitsConfig        `mapstructure:"limits"`
	RateLimit     RateLimitConfig     `mapstructure:"ratelimit"`
	Store         StoreConfig         `mapstructure:"store"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// AuthConfig configures the bearer-token authenticator. Session management
// lives outside this module; tokens are the narrowest workable stand-in.
type AuthConfig struct {
	Token      string `mapstructure:"token"`
	AdminToken string `mapstructure:"adminToken"`
}

// AnthropicConfig configures the model client.
type AnthropicConfig struct {
	APIKey    string `mapstructure:"apiKey"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"maxTokens"`
	Timeout   string `mapstructure:"timeout"`
}

// TranscriptionConfig configures the speech-to-text client.
type TranscriptionConfig struct {
	APIKey  string `mapstructure:"apiKey"`
	Model   string `mapstructure:"model"`
	Timeout string `mapstructure:"timeout"`
}

// LimitsConfig overrides the default limit constants.
type LimitsConfig struct {
	ConfidenceThreshold float64 `mapstructure:"confidenceThreshold"`
	MaxRecordSeconds    int     `mapstructure:"maxRecordSeconds"`
	MinAudioBytes       int64   `mapstructure:"minAudioBytes"`
	MaxAudioBytes       int64   `mapstructure:"maxAudioBytes"`
	MinAnswerChars      int     `mapstructure:"minAnswerChars"`
	MinNotesChars       int     `mapstructure:"minNotesChars"`
	MinTranscriptChars  int     `mapstructure:"minTranscriptChars"`
	MaxTranscriptChars  int     `mapstructure:"maxTranscriptChars"`
}

// RateLimitConfig configures the sliding-window limiter consulted by the
// public submission endpoint. The limiter service itself is external; this
// is only the knobs the adapter needs.
type RateLimitConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	RedisAddr   string `mapstructure:"redisAddr"`
	RedisDB     int    `mapstructure:"redisDB"`
	Window      string `mapstructure:"window"`
	MaxRequests int64  `mapstructure:"maxRequests"`
}

// StoreConfig configures the persistence adapter.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, human
}
