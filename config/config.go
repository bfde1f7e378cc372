// Package config defines the application configuration structures.
//
// Values come from (lowest to highest precedence) built-in defaults,
// an optional YAML file, a .env file, SQLAGENT_* environment variables
// and command-line flags. Separated from cmd so that other packages
// (db, ssh, server) can depend on config without importing Cobra.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides
// (SQLAGENT_OPENAI_API_KEY, SQLAGENT_DATABASE_DSN, ...).
const EnvPrefix = "SQLAGENT"

// Config holds all application settings.
type Config struct {
	OpenAI    OpenAI    `mapstructure:"openai"`
	Assistant Assistant `mapstructure:"assistant"`
	Database  Database  `mapstructure:"database"`
	Server    Server    `mapstructure:"server"`
	Log       Log       `mapstructure:"log"`
	Audit     Audit     `mapstructure:"audit"`
}

// OpenAI holds the remote AI provider settings.
type OpenAI struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`

	// AssistantID reuses an assistant managed out-of-band. When set, no
	// knowledge base is built and no assistant is created.
	AssistantID string `mapstructure:"assistant_id"`
}

// Assistant tunes the orchestration engine.
type Assistant struct {
	Name                   string `mapstructure:"name"`
	VectorStoreName        string `mapstructure:"vector_store_name"`
	Dialect                string `mapstructure:"dialect"`
	IndexPoll              Poll   `mapstructure:"index_poll"`
	RunPoll                Poll   `mapstructure:"run_poll"`
	SerializeConversations bool   `mapstructure:"serialize_conversations"`
}

// Poll bounds one polling loop.
type Poll struct {
	Interval    time.Duration `mapstructure:"interval"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

// Database describes where the schema is read from.
type Database struct {
	Driver     string `mapstructure:"driver"` // "postgres", "mysql", "sqlserver", "sqlite", "file"
	ConnString string `mapstructure:"dsn"`    // full DSN, or the file path for sqlite/file
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"` // 0 means the driver's default port
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Name       string `mapstructure:"name"`
	SSLMode    string `mapstructure:"sslmode"`

	// Schema restricts Postgres introspection to one namespace.
	Schema string `mapstructure:"schema"`

	SSH SSHConfig `mapstructure:"ssh"`
}

// SSHConfig holds SSH tunnel settings.
type SSHConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	KeyPath       string `mapstructure:"key_path"`
	KeyPassphrase string `mapstructure:"key_passphrase"`

	// KnownHosts verifies the bastion host key. Empty skips verification.
	KnownHosts string `mapstructure:"known_hosts"`
}

// Server configures the HTTP API.
type Server struct {
	Addr              string        `mapstructure:"addr"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
	MaxQuestionLength int           `mapstructure:"max_question_length"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// Log configures application logging.
type Log struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Audit configures the optional question/answer transcript.
type Audit struct {
	Path           string `mapstructure:"path"`
	RotateMaxBytes int64  `mapstructure:"rotate_max_bytes"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4-turbo")
	v.SetDefault("openai.timeout", 60*time.Second)
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.assistant_id", "")

	v.SetDefault("assistant.name", "SQL Agent")
	v.SetDefault("assistant.vector_store_name", "SQL Agent Knowledge Base")
	v.SetDefault("assistant.dialect", "")
	v.SetDefault("assistant.index_poll.interval", time.Second)
	v.SetDefault("assistant.index_poll.max_attempts", 20)
	v.SetDefault("assistant.run_poll.interval", time.Second)
	v.SetDefault("assistant.run_poll.max_attempts", 30)
	v.SetDefault("assistant.serialize_conversations", true)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 0)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.schema", "public")
	v.SetDefault("database.ssh.enabled", false)
	v.SetDefault("database.ssh.host", "")
	v.SetDefault("database.ssh.port", 22)
	v.SetDefault("database.ssh.user", "")
	v.SetDefault("database.ssh.key_path", "")
	v.SetDefault("database.ssh.key_passphrase", "")
	v.SetDefault("database.ssh.known_hosts", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.max_question_length", 1000)
	v.SetDefault("server.request_timeout", 2*time.Minute)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetDefault("audit.path", "")
	v.SetDefault("audit.rotate_max_bytes", 100<<20)
}

// Load decodes v into a Config and applies the well-known provider
// environment variables on top of it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Provider env vars fill in what the config left empty
	if envKey := os.Getenv("OPENAI_API_KEY"); envKey != "" && cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = envKey
	}
	if envID := os.Getenv("OPENAI_ASSISTANT_ID"); envID != "" && cfg.OpenAI.AssistantID == "" {
		cfg.OpenAI.AssistantID = envID
	}

	cfg.OpenAI.APIKey = strings.TrimSpace(cfg.OpenAI.APIKey)
	cfg.OpenAI.AssistantID = strings.TrimSpace(cfg.OpenAI.AssistantID)
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.Database.Driver == "mssql" {
		cfg.Database.Driver = "sqlserver"
	}
	return &cfg, nil
}

// Validate reports settings the engine cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.OpenAI.APIKey == "" || strings.Contains(c.OpenAI.APIKey, "Your-Key") {
		errs = append(errs, errors.New("OpenAI API key is not configured (set openai.api_key or OPENAI_API_KEY)"))
	}
	if c.Assistant.IndexPoll.MaxAttempts <= 0 || c.Assistant.RunPoll.MaxAttempts <= 0 {
		errs = append(errs, errors.New("poll max_attempts must be positive"))
	}
	if err := c.Database.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Validate checks that the schema source is usable.
func (d Database) Validate() error {
	switch d.Driver {
	case "postgres", "mysql", "sqlserver":
		if d.ConnString == "" && d.Host == "" {
			return fmt.Errorf("database.host or database.dsn is required for %s", d.Driver)
		}
	case "sqlite", "file":
		if d.ConnString == "" {
			return fmt.Errorf("database.dsn must name the %s file", d.Driver)
		}
	default:
		return fmt.Errorf("unknown database driver %q. Supported: postgres, mysql, sqlserver, sqlite, file", d.Driver)
	}
	if d.SSH.Enabled && (d.SSH.Host == "" || d.SSH.User == "") {
		return errors.New("database.ssh.host and database.ssh.user are required when the tunnel is enabled")
	}
	return nil
}

// DSN builds a Postgres key=value connection string. An explicit dsn
// wins. MySQL DSNs are built by the db package.
func (d Database) DSN() string {
	if d.ConnString != "" {
		return d.ConnString
	}
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.EffectivePort()) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

// Addr returns host:port of the database server.
func (d Database) Addr() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.EffectivePort()))
}

// EffectivePort returns Port, or the driver's well-known port when unset.
func (d Database) EffectivePort() int {
	if d.Port != 0 {
		return d.Port
	}
	switch d.Driver {
	case "mysql":
		return 3306
	case "sqlserver":
		return 1433
	default:
		return 5432
	}
}
