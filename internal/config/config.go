// Package config loads service configuration from environment variables.
package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates configuration for the whole service.
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Model  ModelServiceConfig
	Mongo  MongoConfig
	CMS    CMSConfig
	Auth   AuthConfig
	Stream StreamConfig
	Log    LogConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	modelSvc, err := loadModelServiceConfig()
	if err != nil {
		return nil, err
	}

	stream, err := loadStreamConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		AI:     ai,
		Model:  modelSvc,
		Mongo:  loadMongoConfig(),
		CMS:    loadCMSConfig(),
		Auth:   loadAuthConfig(),
		Stream: stream,
		Log:    loadLogConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig carries the chat model credentials.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds a tool-calling chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ToolCallingChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("missing model credentials: set ARK_API_KEY and ARK_MODEL, or the AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	})
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// ModelServiceConfig points at the text classification model service.
type ModelServiceConfig struct {
	BaseURL string
	Timeout time.Duration
}

func loadModelServiceConfig() (ModelServiceConfig, error) {
	timeout := 30 * time.Second
	if override, err := parseOptionalIntEnv("MODEL_SERVICE_TIMEOUT_SECONDS"); err != nil {
		return ModelServiceConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return ModelServiceConfig{}, fmt.Errorf("MODEL_SERVICE_TIMEOUT_SECONDS must be positive, got %d", *override)
		}
		timeout = time.Duration(*override) * time.Second
	}

	return ModelServiceConfig{
		BaseURL: getEnvOrDefault("MODEL_SERVICE_URL", "http://localhost:8000"),
		Timeout: timeout,
	}, nil
}

// MongoConfig describes the document store. An empty URI selects the
// in-memory store.
type MongoConfig struct {
	URI      string
	Database string
}

// Enabled reports whether a MongoDB URI was configured.
func (c MongoConfig) Enabled() bool {
	return c.URI != ""
}

func loadMongoConfig() MongoConfig {
	return MongoConfig{
		URI:      strings.TrimSpace(os.Getenv("MONGODB_URI")),
		Database: getEnvOrDefault("MONGODB_DATABASE", "textclassify"),
	}
}

// CMSConfig holds the headless CMS credentials for profile mirroring.
type CMSConfig struct {
	ProjectID     string
	Dataset       string
	Token         string
	APIVersion    string
	BaseURL       string
	WebhookSecret string
}

// Enabled reports whether the CMS credentials are present.
func (c CMSConfig) Enabled() bool {
	return c.ProjectID != "" && c.Token != ""
}

func loadCMSConfig() CMSConfig {
	return CMSConfig{
		ProjectID:     strings.TrimSpace(os.Getenv("SANITY_PROJECT_ID")),
		Dataset:       getEnvOrDefault("SANITY_DATASET", "production"),
		Token:         strings.TrimSpace(os.Getenv("SANITY_API_TOKEN")),
		APIVersion:    strings.TrimSpace(os.Getenv("SANITY_API_VERSION")),
		BaseURL:       strings.TrimSpace(os.Getenv("SANITY_BASE_URL")),
		WebhookSecret: strings.TrimSpace(os.Getenv("USER_WEBHOOK_SECRET")),
	}
}

// AuthConfig selects how bearer tokens are verified. StaticTokens maps
// "token:user" pairs; SessionSecret enables signed session tokens.
type AuthConfig struct {
	StaticTokens  map[string]string
	SessionSecret string
}

func loadAuthConfig() AuthConfig {
	cfg := AuthConfig{
		SessionSecret: strings.TrimSpace(os.Getenv("AUTH_SESSION_SECRET")),
	}

	raw := strings.TrimSpace(os.Getenv("AUTH_STATIC_TOKENS"))
	if raw == "" {
		return cfg
	}

	tokens := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		token, user, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || token == "" || user == "" {
			continue
		}
		tokens[token] = user
	}
	if len(tokens) > 0 {
		cfg.StaticTokens = tokens
	}
	return cfg
}

// StreamConfig tunes the SSE token stream.
type StreamConfig struct {
	TypingDelay bool
}

func loadStreamConfig() (StreamConfig, error) {
	delay, err := parseBoolEnv("STREAM_TYPING_DELAY", true)
	if err != nil {
		return StreamConfig{}, err
	}
	return StreamConfig{TypingDelay: delay}, nil
}

// LogConfig selects the log level.
type LogConfig struct {
	Level string
}

func loadLogConfig() LogConfig {
	return LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "info")}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
