package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Supported transcription providers
const (
	ProviderDeepgram = "deepgram"
	ProviderOpenAI   = "openai"
	ProviderGRPC     = "grpc"
)

// Config holds all configuration for the redaction gateway
type Config struct {
	// Server configuration
	Port   string `envconfig:"PORT" default:"8080"`
	WSPath string `envconfig:"WS_PATH" default:"/ws/meeting"`
	AppEnv string `envconfig:"APP_ENV" default:"local"`

	// Audio pipeline configuration
	SampleRate   int `envconfig:"SAMPLE_RATE" default:"16000"`  // Hz, PCM16 mono
	ChunkMS      int `envconfig:"CHUNK_MS" default:"1000"`      // Emission unit
	HoldbackMS   int `envconfig:"HOLDBACK_MS" default:"2000"`   // Fixed output delay
	STTWindowMS  int `envconfig:"STT_WINDOW_MS" default:"4000"` // Transcription context window
	MergeGapMS   int `envconfig:"MERGE_GAP_MS" default:"250"`   // Regions closer than this are merged
	HysteresisMS int `envconfig:"HYSTERESIS_MS" default:"200"`  // Redaction tail past the last detection

	// Masking tone
	ToneFreqHz     float64 `envconfig:"TONE_FREQ_HZ" default:"1000"`
	ToneAmplitude  float64 `envconfig:"TONE_AMPLITUDE" default:"0.2"` // Fraction of full scale
	SafeTextMarker string  `envconfig:"SAFE_TEXT_MARKER" default:"[REDACTED]"`

	// Windows whose RMS is below this are not sent to the transcriber (0 disables)
	SilenceRMSThreshold float64 `envconfig:"SILENCE_RMS_THRESHOLD" default:"0"`

	// Transcription configuration
	STTProvider       string `envconfig:"STT_PROVIDER" default:"deepgram"` // deepgram, openai, grpc
	STTLanguage       string `envconfig:"STT_LANGUAGE" default:"ko"`
	TranscribeTimeout int    `envconfig:"TRANSCRIBE_TIMEOUT" default:"30"` // seconds
	TranscribeWorkers int    `envconfig:"TRANSCRIBE_WORKERS" default:"4"`  // Concurrent transcription calls

	DeepgramAPIKey string `envconfig:"DEEPGRAM_API_KEY" default:""`
	DeepgramModel  string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"`

	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY" default:""`
	OpenAIModel   string `envconfig:"OPENAI_MODEL" default:"whisper-1"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL" default:""`

	STTGRPCAddr    string `envconfig:"STT_GRPC_ADDR" default:"localhost:50051"`
	STTGRPCTimeout int    `envconfig:"STT_GRPC_TIMEOUT" default:"10"` // seconds, connection probe

	// Detection configuration
	RulesFile      string   `envconfig:"RULES_FILE" default:""`
	BannedWords    []string `envconfig:"BANNED_WORDS" default:""`
	FuzzyThreshold int      `envconfig:"FUZZY_THRESHOLD" default:"92"` // 0-100

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`             // Connection probe attempts
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"`        // Initial backoff in milliseconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks value ranges and provider credentials
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("SAMPLE_RATE must be positive, got %d", c.SampleRate)
	}
	if c.ChunkMS <= 0 || c.HoldbackMS <= 0 || c.STTWindowMS <= 0 {
		return fmt.Errorf("CHUNK_MS, HOLDBACK_MS and STT_WINDOW_MS must be positive")
	}
	if c.MergeGapMS < 0 || c.HysteresisMS < 0 {
		return fmt.Errorf("MERGE_GAP_MS and HYSTERESIS_MS must not be negative")
	}
	// A window shorter than holdback+chunk can never place the released chunk,
	// so every emission would go out as warm-up audio.
	if c.STTWindowMS < c.HoldbackMS+c.ChunkMS {
		return fmt.Errorf("STT_WINDOW_MS (%d) must be at least HOLDBACK_MS + CHUNK_MS (%d)",
			c.STTWindowMS, c.HoldbackMS+c.ChunkMS)
	}
	if c.ToneAmplitude <= 0 || c.ToneAmplitude > 1 {
		return fmt.Errorf("TONE_AMPLITUDE must be in (0, 1], got %f", c.ToneAmplitude)
	}
	if c.ToneFreqHz <= 0 {
		return fmt.Errorf("TONE_FREQ_HZ must be positive")
	}
	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 100 {
		return fmt.Errorf("FUZZY_THRESHOLD must be in [0, 100], got %d", c.FuzzyThreshold)
	}
	if c.TranscribeTimeout <= 0 || c.TranscribeWorkers <= 0 {
		return fmt.Errorf("TRANSCRIBE_TIMEOUT and TRANSCRIBE_WORKERS must be positive")
	}

	switch strings.ToLower(c.STTProvider) {
	case ProviderDeepgram:
		if c.DeepgramAPIKey == "" {
			return fmt.Errorf("DEEPGRAM_API_KEY is required")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
	case ProviderGRPC:
		if c.STTGRPCAddr == "" {
			return fmt.Errorf("STT_GRPC_ADDR is required")
		}
	default:
		return fmt.Errorf("unknown STT_PROVIDER %q", c.STTProvider)
	}

	return nil
}

// ChunkDuration returns the nominal chunk duration
func (c *Config) ChunkDuration() time.Duration {
	return time.Duration(c.ChunkMS) * time.Millisecond
}

// HoldbackDuration returns the fixed output delay
func (c *Config) HoldbackDuration() time.Duration {
	return time.Duration(c.HoldbackMS) * time.Millisecond
}

// WindowDuration returns the transcription context window
func (c *Config) WindowDuration() time.Duration {
	return time.Duration(c.STTWindowMS) * time.Millisecond
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
