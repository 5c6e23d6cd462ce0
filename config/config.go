// Package config loads and validates the run configuration, including the
// intent taxonomy, from YAML with environment-variable overrides for
// credentials.
package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/Mathanleo/Mashreq/taxonomy"
)

type BatchConfig struct {
	ChunkSize  int `yaml:"chunk_size"`
	MaxThreads int `yaml:"max_threads"`
}

type RoutingConfig struct {
	MinConf       float64 `yaml:"min_conf"`
	TieDelta      float64 `yaml:"tie_delta"`
	TopK          int     `yaml:"top_k"`
	IntentMinConf float64 `yaml:"intent_min_conf"`
}

type ServiceConfig struct {
	Endpoint           string  `yaml:"endpoint"`
	Model              string  `yaml:"model"`
	MaxTokens          int     `yaml:"max_tokens"`
	Temperature        float64 `yaml:"temperature"`
	TimeoutSec         int     `yaml:"timeout_sec"`
	InsecureSkipVerify bool    `yaml:"insecure_skip_verify"`
	XUserID            string  `yaml:"x_user_id"`
}

type AuthConfig struct {
	TokenURL     string `yaml:"token_url"`
	Scope        string `yaml:"scope"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	StaticToken  string `yaml:"static_token"`
	CacheToken   bool   `yaml:"cache_token"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type GroupConfig struct {
	GroupID     string   `yaml:"group_id"`
	GroupName   string   `yaml:"group_name"`
	Description string   `yaml:"description"`
	Intents     []string `yaml:"intents"`
}

type IntentConfig struct {
	IntentID    string `yaml:"intent_id"`
	IntentName  string `yaml:"intent_name"`
	Description string `yaml:"description"`
}

// Config is the full run configuration. It is immutable after Load.
type Config struct {
	Batch   BatchConfig    `yaml:"batch"`
	Routing RoutingConfig  `yaml:"routing"`
	Service ServiceConfig  `yaml:"service"`
	Auth    AuthConfig     `yaml:"auth"`
	Logging LoggingConfig  `yaml:"logging"`
	Groups  []GroupConfig  `yaml:"groups"`
	Intents []IntentConfig `yaml:"intents"`
}

// Load reads the YAML file at path, applies env overrides for secrets, and
// fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	// Env vars override YAML values for credential material
	envOverride(&cfg.Auth.ClientID, "AUTH_CLIENT_ID")
	envOverride(&cfg.Auth.ClientSecret, "AUTH_CLIENT_SECRET")
	envOverride(&cfg.Auth.StaticToken, "AUTH_STATIC_TOKEN")
	envOverride(&cfg.Auth.TokenURL, "AUTH_TOKEN_URL")
	envOverride(&cfg.Service.Endpoint, "SERVICE_ENDPOINT")

	cfg.applyDefaults()

	if cfg.Service.Endpoint == "" {
		return nil, fmt.Errorf("service.endpoint is required")
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Batch.ChunkSize == 0 {
		c.Batch.ChunkSize = 20
	}
	if c.Batch.MaxThreads == 0 {
		c.Batch.MaxThreads = 4
	}
	if c.Routing.MinConf == 0 {
		c.Routing.MinConf = 0.6
	}
	if c.Routing.TieDelta == 0 {
		c.Routing.TieDelta = 0.05
	}
	if c.Routing.TopK == 0 {
		c.Routing.TopK = 3
	}
	if c.Routing.IntentMinConf == 0 {
		c.Routing.IntentMinConf = 0.6
	}
	if c.Service.MaxTokens == 0 {
		c.Service.MaxTokens = 500
	}
	if c.Service.TimeoutSec == 0 {
		c.Service.TimeoutSec = 60
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func envOverride(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

// Timeout returns the per-call HTTP deadline.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Service.TimeoutSec) * time.Second
}

// BuildTaxonomy converts the config's group/intent lists into a validated
// Taxonomy.
func (c *Config) BuildTaxonomy() (*taxonomy.Taxonomy, error) {
	intents := make([]taxonomy.Intent, 0, len(c.Intents))
	for _, in := range c.Intents {
		intents = append(intents, taxonomy.Intent{
			ID:          in.IntentID,
			Name:        in.IntentName,
			Description: in.Description,
		})
	}

	groups := make([]taxonomy.Group, 0, len(c.Groups))
	for _, g := range c.Groups {
		groups = append(groups, taxonomy.Group{
			ID:          g.GroupID,
			Name:        g.GroupName,
			Description: g.Description,
			IntentIDs:   g.Intents,
		})
	}

	return taxonomy.New(groups, intents)
}

// NewLogger builds the run logger from the logging section. With a file
// configured, output goes there; otherwise stderr.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid logging level %q: %w", c.Logging.Level, err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	if c.Logging.File != "" {
		zcfg.OutputPaths = []string{c.Logging.File}
		zcfg.ErrorOutputPaths = []string{c.Logging.File}
	}

	return zcfg.Build()
}
