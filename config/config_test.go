package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, set map[string]any) *Config {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	for k, val := range set {
		v.Set(k, val)
	}
	cfg, err := Load(v)
	require.NoError(t, err)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_ASSISTANT_ID", "")
	cfg := load(t, nil)

	assert.Equal(t, "gpt-4-turbo", cfg.OpenAI.Model)
	assert.Equal(t, "SQL Agent", cfg.Assistant.Name)
	assert.Equal(t, "SQL Agent Knowledge Base", cfg.Assistant.VectorStoreName)
	assert.Equal(t, Poll{Interval: time.Second, MaxAttempts: 20}, cfg.Assistant.IndexPoll)
	assert.Equal(t, Poll{Interval: time.Second, MaxAttempts: 30}, cfg.Assistant.RunPoll)
	assert.True(t, cfg.Assistant.SerializeConversations)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 1000, cfg.Server.MaxQuestionLength)
	assert.Equal(t, int64(100<<20), cfg.Audit.RotateMaxBytes)
	assert.Empty(t, cfg.OpenAI.APIKey)
}

func TestLoad_ProviderEnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", " sk-env ")
	t.Setenv("OPENAI_ASSISTANT_ID", "asst_env")

	cfg := load(t, nil)
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
	assert.Equal(t, "asst_env", cfg.OpenAI.AssistantID)

	cfg = load(t, map[string]any{"openai.api_key": "sk-config"})
	assert.Equal(t, "sk-config", cfg.OpenAI.APIKey, "config wins over the provider env var")
}

func TestValidate(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_ASSISTANT_ID", "")

	tests := []struct {
		name    string
		set     map[string]any
		wantErr string
	}{
		{"ok", map[string]any{"openai.api_key": "sk-1"}, ""},
		{"missing key", nil, "API key"},
		{"placeholder key", map[string]any{"openai.api_key": "Your-Key"}, "API key"},
		{"bad poll", map[string]any{"openai.api_key": "sk-1", "assistant.run_poll.max_attempts": 0}, "max_attempts"},
		{"sqlite without path", map[string]any{"openai.api_key": "sk-1", "database.driver": "sqlite"}, "database.dsn"},
		{"unknown driver", map[string]any{"openai.api_key": "sk-1", "database.driver": "Oracle"}, `unknown database driver "oracle"`},
		{"ssh without user", map[string]any{
			"openai.api_key":       "sk-1",
			"database.ssh.enabled": true,
			"database.ssh.host":    "bastion",
		}, "database.ssh.user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := load(t, tt.set).Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDatabase_DSN(t *testing.T) {
	d := Database{Host: "db", Port: 5432, User: "u", Password: "p", Name: "shop", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=shop sslmode=disable", d.DSN())
	assert.Equal(t, "db:5432", d.Addr())

	d.ConnString = "postgres://x"
	assert.Equal(t, "postgres://x", d.DSN())
}

func TestDatabase_EffectivePort(t *testing.T) {
	tests := []struct {
		driver string
		port   int
		want   string
	}{
		{"postgres", 0, "db:5432"},
		{"mysql", 0, "db:3306"},
		{"sqlserver", 0, "db:1433"},
		{"sqlserver", 14330, "db:14330"},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			assert.Equal(t, tt.want, Database{Driver: tt.driver, Host: "db", Port: tt.port}.Addr())
		})
	}
}

func TestLoad_SQLServerAlias(t *testing.T) {
	cfg := load(t, map[string]any{"openai.api_key": "sk-1", "database.driver": "MSSQL", "database.host": "sql01"})
	assert.Equal(t, "sqlserver", cfg.Database.Driver)
	assert.NoError(t, cfg.Validate())
}
