// Package config loads prodtest settings from prodtest.yaml, PRODTEST_*
// environment variables and command line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/roach88/prodtest/internal/catalog"
	"github.com/roach88/prodtest/internal/engine"
)

// EnvPrefix prefixes environment overrides: engine.server_uri is read from
// PRODTEST_ENGINE_SERVER_URI.
const EnvPrefix = "PRODTEST"

// FileName is the config file name searched for in SearchPaths.
const FileName = "prodtest"

// SearchPaths are the directories searched for the config file.
var SearchPaths = []string{".", "etc/prodtest"}

// Fixture sources.
const (
	SourceEngine = "engine"
	SourceFile   = "file"
)

// Engine configures the Trino connection.
type Engine struct {
	ServerURI         string            `mapstructure:"server_uri"`
	Source            string            `mapstructure:"source"`
	Connector         string            `mapstructure:"connector"`
	TpchCatalog       string            `mapstructure:"tpch_catalog"`
	SessionProperties map[string]string `mapstructure:"session_properties"`
}

// Cassandra configures store sessions.
type Cassandra struct {
	Hosts             []string      `mapstructure:"hosts"`
	Port              int           `mapstructure:"port"`
	Keyspace          string        `mapstructure:"keyspace"`
	Username          string        `mapstructure:"username"`
	Password          string        `mapstructure:"password"`
	Consistency       string        `mapstructure:"consistency"`
	ProtocolVersion   int           `mapstructure:"protocol_version"`
	Timeout           time.Duration `mapstructure:"timeout"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	ReplicationFactor int           `mapstructure:"replication_factor"`
}

// Fixtures configures how fixture rows are generated and loaded.
type Fixtures struct {
	// Source is "engine" (read the engine's tpch catalog) or "file"
	// (dbgen .tbl files in DataDir).
	Source          string `mapstructure:"source"`
	DataDir         string `mapstructure:"data_dir"`
	BatchSize       int    `mapstructure:"batch_size"`
	LoadConcurrency int    `mapstructure:"load_concurrency"`
}

// Harness configures eventually-consistent polling.
type Harness struct {
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	EventuallyTimeout time.Duration `mapstructure:"eventually_timeout"`
}

// Ledger configures the local run ledger.
type Ledger struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Config is the full prodtest configuration.
type Config struct {
	Engine    Engine    `mapstructure:"engine"`
	Cassandra Cassandra `mapstructure:"cassandra"`
	Fixtures  Fixtures  `mapstructure:"fixtures"`
	Harness   Harness   `mapstructure:"harness"`
	Ledger    Ledger    `mapstructure:"ledger"`
}

// SetDefaults registers a default for every key. Keys without a default are
// not picked up from the environment.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("engine.server_uri", "http://test@localhost:8080")
	v.SetDefault("engine.source", "prodtest")
	v.SetDefault("engine.connector", catalog.ConnectorName)
	v.SetDefault("engine.tpch_catalog", "tpch")
	v.SetDefault("engine.session_properties", map[string]string{})

	v.SetDefault("cassandra.hosts", []string{"localhost"})
	v.SetDefault("cassandra.port", 9042)
	v.SetDefault("cassandra.keyspace", catalog.Keyspace)
	v.SetDefault("cassandra.username", "")
	v.SetDefault("cassandra.password", "")
	v.SetDefault("cassandra.consistency", "ONE")
	v.SetDefault("cassandra.protocol_version", 4)
	v.SetDefault("cassandra.timeout", 12*time.Second)
	v.SetDefault("cassandra.connect_timeout", 10*time.Second)
	v.SetDefault("cassandra.replication_factor", 1)

	v.SetDefault("fixtures.source", SourceEngine)
	v.SetDefault("fixtures.data_dir", "")
	v.SetDefault("fixtures.batch_size", 25)
	v.SetDefault("fixtures.load_concurrency", 4)

	v.SetDefault("harness.poll_interval", 500*time.Millisecond)
	v.SetDefault("harness.eventually_timeout", time.Minute)

	v.SetDefault("ledger.enabled", true)
	v.SetDefault("ledger.path", "prodtest.db")
}

// Load reads configuration into v. An explicit path must exist; otherwise
// prodtest.yaml is looked up in SearchPaths and a missing file is fine.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		for _, dir := range SearchPaths {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var consistencyLevels = map[string]bool{
	"ANY": true, "ONE": true, "TWO": true, "THREE": true, "QUORUM": true, "ALL": true,
	"LOCAL_QUORUM": true, "EACH_QUORUM": true, "LOCAL_ONE": true,
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Engine.ServerURI == "" {
		errs = append(errs, errors.New("engine.server_uri is required"))
	}
	if c.Engine.Connector == "" {
		errs = append(errs, errors.New("engine.connector is required"))
	}
	if len(c.Cassandra.Hosts) == 0 {
		errs = append(errs, errors.New("cassandra.hosts must list at least one host"))
	}
	if c.Cassandra.Port <= 0 || c.Cassandra.Port > 65535 {
		errs = append(errs, fmt.Errorf("cassandra.port %d out of range", c.Cassandra.Port))
	}
	if c.Cassandra.Keyspace == "" {
		errs = append(errs, errors.New("cassandra.keyspace is required"))
	}
	if !consistencyLevels[strings.ToUpper(c.Cassandra.Consistency)] {
		errs = append(errs, fmt.Errorf("cassandra.consistency %q is not a consistency level", c.Cassandra.Consistency))
	}
	if c.Cassandra.ReplicationFactor < 1 {
		errs = append(errs, errors.New("cassandra.replication_factor must be at least 1"))
	}
	switch c.Fixtures.Source {
	case SourceEngine:
	case SourceFile:
		if c.Fixtures.DataDir == "" {
			errs = append(errs, errors.New("fixtures.data_dir is required when fixtures.source is file"))
		}
	default:
		errs = append(errs, fmt.Errorf("fixtures.source %q must be %q or %q", c.Fixtures.Source, SourceEngine, SourceFile))
	}
	if c.Fixtures.BatchSize < 1 {
		errs = append(errs, errors.New("fixtures.batch_size must be positive"))
	}
	if c.Fixtures.LoadConcurrency < 1 {
		errs = append(errs, errors.New("fixtures.load_concurrency must be positive"))
	}
	if c.Harness.PollInterval <= 0 {
		errs = append(errs, errors.New("harness.poll_interval must be positive"))
	}
	if c.Harness.EventuallyTimeout < c.Harness.PollInterval {
		errs = append(errs, errors.New("harness.eventually_timeout must not be shorter than harness.poll_interval"))
	}
	if c.Ledger.Enabled && c.Ledger.Path == "" {
		errs = append(errs, errors.New("ledger.path is required when the ledger is enabled"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// EngineOptions returns the engine connection options.
func (c *Config) EngineOptions() engine.Options {
	return engine.Options{
		ServerURI:         c.Engine.ServerURI,
		Source:            c.Engine.Source,
		Catalog:           c.Engine.Connector,
		Schema:            c.Cassandra.Keyspace,
		SessionProperties: c.Engine.SessionProperties,
	}
}
