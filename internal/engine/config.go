package engine

import (
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	BackendURL           string
	DatabaseURL          string
	RedisURL             string
	SessionDBPath        string
	SessionTTL           time.Duration
	PreferredLang        string
	FetchTimeout         time.Duration
	CaptionRPS           float64
	CaptionBurst         int
	MaxPageBytes         int64
	LLMAPIKey            string
	LLMAPIKeyFallbacks   []string
	LLMAPIBase           string
	LLMModel             string
	LLMTemperature       float64
	LLMMaxTokens         int
	CacheTTL             time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	HTTPClient           *http.Client
	LLMClient            *llm.Client // nil = moment_explain disabled
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (captions, transcript, backend).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
// Zero values fall back to defaults so tests can call Init(Config{}).
func Init(c Config) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.PreferredLang == "" {
		c.PreferredLang = "en"
	}
	if c.MaxPageBytes <= 0 {
		c.MaxPageBytes = 6 * 1024 * 1024
	}
	cfg = c
	Cfg = &cfg
}
