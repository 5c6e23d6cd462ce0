package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
batch:
  chunk_size: 10
  max_threads: 5
routing:
  min_conf: 0.7
  tie_delta: 0.03
  top_k: 2
  intent_min_conf: 0.65
service:
  endpoint: https://llm.internal.example/v1/chat/completions
  model: gpt-4o-mini
  max_tokens: 300
  temperature: 0.1
  insecure_skip_verify: true
  x_user_id: svc-eval
auth:
  token_url: https://auth.internal.example/oauth2/token
  scope: llm.read
  client_id: yaml-client
  client_secret: yaml-secret
logging:
  level: debug
  file: batch.log
groups:
  - group_id: "3"
    group_name: Cards & Controls
    description: Card management
    intents: ["i1"]
intents:
  - intent_id: i1
    intent_name: Report Lost Card
    description: Report a lost or stolen card
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Batch.ChunkSize)
	assert.Equal(t, 5, cfg.Batch.MaxThreads)
	assert.Equal(t, 0.7, cfg.Routing.MinConf)
	assert.Equal(t, 2, cfg.Routing.TopK)
	assert.True(t, cfg.Service.InsecureSkipVerify)
	assert.Equal(t, "yaml-client", cfg.Auth.ClientID)
	assert.Equal(t, "debug", cfg.Logging.Level)
	require.Len(t, cfg.Groups, 1)
	assert.Equal(t, []string{"i1"}, cfg.Groups[0].Intents)
}

func TestLoad_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("AUTH_CLIENT_SECRET", "env-secret")
	t.Setenv("AUTH_CLIENT_ID", "env-client")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.Auth.ClientSecret)
	assert.Equal(t, "env-client", cfg.Auth.ClientID)
}

func TestLoad_Defaults(t *testing.T) {
	minimal := `
service:
  endpoint: https://llm.example/v1/chat/completions
`
	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Batch.ChunkSize)
	assert.Equal(t, 4, cfg.Batch.MaxThreads)
	assert.Equal(t, 0.6, cfg.Routing.MinConf)
	assert.Equal(t, 0.05, cfg.Routing.TieDelta)
	assert.Equal(t, 3, cfg.Routing.TopK)
	assert.Equal(t, 0.6, cfg.Routing.IntentMinConf)
	assert.Equal(t, 60, cfg.Service.TimeoutSec)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_MissingEndpoint(t *testing.T) {
	_, err := Load(writeConfig(t, "batch:\n  chunk_size: 5\n"))
	assert.Error(t, err)
}

func TestBuildTaxonomy(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	tax, err := cfg.BuildTaxonomy()
	require.NoError(t, err)

	g, ok := tax.GroupByName("cards & controls")
	require.True(t, ok)
	assert.Equal(t, "3", g.ID)

	intents := tax.IntentsForGroup("3")
	require.Len(t, intents, 1)
	assert.Equal(t, "Report Lost Card", intents[0].Name)
}

func TestBuildTaxonomy_InvalidReference(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	cfg.Groups[0].Intents = []string{"i1", "missing"}

	_, err = cfg.BuildTaxonomy()
	assert.Error(t, err)
}
