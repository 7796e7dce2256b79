// Package config loads cyberdna settings from YAML with CYBERDNA_*
// environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cyberdna/pkg/legend"
	"github.com/dd0wney/cyberdna/pkg/spiral"
	"github.com/dd0wney/cyberdna/pkg/validation"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "CYBERDNA_"

// Config is the complete configuration
type Config struct {
	Spiral   SpiralConfig   `yaml:"spiral"`
	Legend   LegendConfig   `yaml:"legend"`
	Router   RouterConfig   `yaml:"router"`
	Parser   ParserConfig   `yaml:"parser"`
	Store    StoreConfig    `yaml:"store"`
	Server   ServerConfig   `yaml:"server"`
	Events   EventsConfig   `yaml:"events"`
	Registry RegistryConfig `yaml:"registry"`
	Audit    AuditConfig    `yaml:"audit"`
	Log      LogConfig      `yaml:"log"`
}

// SpiralConfig sets the helix geometry
type SpiralConfig struct {
	Base   int     `yaml:"base"`
	Radius float64 `yaml:"radius"`
	Rise   float64 `yaml:"rise"`
}

// LegendConfig sets colours and default query radii
type LegendConfig struct {
	Colors       map[string]string `yaml:"colors"`
	DefaultColor string            `yaml:"default_color"`
	Tolerance    float64           `yaml:"tolerance"`
	Radius       float64           `yaml:"radius"`
}

// RouterConfig selects the dependency inference strategy
type RouterConfig struct {
	Strategy string `yaml:"strategy"`
}

// ParserConfig selects the workflow map notation
type ParserConfig struct {
	Notation string `yaml:"notation"` // codemap or arrows
	Strict   bool   `yaml:"strict"`
}

// StoreConfig selects where legend documents are persisted
type StoreConfig struct {
	Backend  string         `yaml:"backend"`
	Path     string         `yaml:"path"`
	S3       S3Config       `yaml:"s3"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// S3Config configures the object storage backend
type S3Config struct {
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Prefix   string `yaml:"prefix"`
	Endpoint string `yaml:"endpoint"`
}

// PostgresConfig configures the database backend
type PostgresConfig struct {
	URL   string `yaml:"url"`
	Table string `yaml:"table"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	JWTSecret       string        `yaml:"jwt_secret"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	TLS             TLSConfig     `yaml:"tls"`
}

// TLSConfig enables HTTPS. Without a certificate pair, AutoGenerate
// creates a self-signed one for Hosts.
type TLSConfig struct {
	Enabled      bool     `yaml:"enabled"`
	CertFile     string   `yaml:"cert_file"`
	KeyFile      string   `yaml:"key_file"`
	CAFile       string   `yaml:"ca_file"`
	AutoGenerate bool     `yaml:"auto_generate"`
	Hosts        []string `yaml:"hosts"`
}

// EventsConfig configures the rebuild event publisher. An empty URL keeps
// events in process.
type EventsConfig struct {
	Transport string `yaml:"transport"` // mangos or zmq
	URL       string `yaml:"url"`
}

// RegistryConfig locates the function registry file
type RegistryConfig struct {
	Path string `yaml:"path"`
}

// AuditConfig sizes the in-memory audit trail. A non-empty Path also
// appends hash-chained records to that file.
type AuditConfig struct {
	Path   string `yaml:"path"`
	Buffer int    `yaml:"buffer"`
}

// LogConfig sets the log level
type LogConfig struct {
	Level string `yaml:"level"`
}

var (
	Strategies = []string{"substring", "token"}
	Notations  = []string{"codemap", "arrows"}
	Backends   = []string{"file", "snappy", "s3", "postgres"}
	Transports = []string{"mangos", "zmq"}
	LogLevels  = []string{"debug", "info", "warn", "error"}
)

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Spiral: SpiralConfig{Base: spiral.DefaultBase, Radius: spiral.DefaultRadius, Rise: spiral.DefaultRise},
		Legend: LegendConfig{
			Colors:       legend.DefaultColorTable().Colors,
			DefaultColor: legend.DefaultColor,
			Tolerance:    0.1,
			Radius:       2.0,
		},
		Router:   RouterConfig{Strategy: "substring"},
		Parser:   ParserConfig{Notation: "codemap"},
		Store:    StoreConfig{Backend: "file", Path: "legends", Postgres: PostgresConfig{Table: "legends"}},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			TLS:             TLSConfig{AutoGenerate: true, Hosts: []string{"localhost", "127.0.0.1"}},
		},
		Events:   EventsConfig{Transport: "mangos"},
		Registry: RegistryConfig{Path: "function_registry.json"},
		Audit:    AuditConfig{Buffer: 1000},
		Log:      LogConfig{Level: "info"},
	}
}

// Load reads path on top of the defaults, applies environment overrides
// and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := cfg.Decode(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode merges YAML from r into c. Unknown keys are rejected.
func (c *Config) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from CYBERDNA_* variables, e.g.
// CYBERDNA_STORE_BACKEND or CYBERDNA_SPIRAL_BASE.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *float64) {
		if v, ok := lookup(EnvPrefix + key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = f
		}
	}

	if v, ok := lookup(EnvPrefix + "SPIRAL_BASE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSPIRAL_BASE: %w", EnvPrefix, err))
		} else {
			c.Spiral.Base = n
		}
	}
	num("SPIRAL_RADIUS", &c.Spiral.Radius)
	num("SPIRAL_RISE", &c.Spiral.Rise)
	num("LEGEND_TOLERANCE", &c.Legend.Tolerance)
	num("LEGEND_RADIUS", &c.Legend.Radius)
	str("LEGEND_DEFAULT_COLOR", &c.Legend.DefaultColor)
	str("ROUTER_STRATEGY", &c.Router.Strategy)
	str("PARSER_NOTATION", &c.Parser.Notation)
	if v, ok := lookup(EnvPrefix + "PARSER_STRICT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sPARSER_STRICT: %w", EnvPrefix, err))
		} else {
			c.Parser.Strict = b
		}
	}
	str("STORE_BACKEND", &c.Store.Backend)
	str("STORE_PATH", &c.Store.Path)
	str("STORE_S3_BUCKET", &c.Store.S3.Bucket)
	str("STORE_S3_REGION", &c.Store.S3.Region)
	str("STORE_S3_PREFIX", &c.Store.S3.Prefix)
	str("STORE_S3_ENDPOINT", &c.Store.S3.Endpoint)
	str("STORE_POSTGRES_URL", &c.Store.Postgres.URL)
	str("STORE_POSTGRES_TABLE", &c.Store.Postgres.Table)
	str("SERVER_ADDR", &c.Server.Addr)
	str("SERVER_JWT_SECRET", &c.Server.JWTSecret)
	if v, ok := lookup(EnvPrefix + "SERVER_SHUTDOWN_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSERVER_SHUTDOWN_TIMEOUT: %w", EnvPrefix, err))
		} else {
			c.Server.ShutdownTimeout = d
		}
	}
	str("EVENTS_TRANSPORT", &c.Events.Transport)
	str("EVENTS_URL", &c.Events.URL)
	str("REGISTRY_PATH", &c.Registry.Path)
	str("AUDIT_PATH", &c.Audit.Path)
	str("SERVER_TLS_CERT_FILE", &c.Server.TLS.CertFile)
	str("SERVER_TLS_KEY_FILE", &c.Server.TLS.KeyFile)
	if v, ok := lookup(EnvPrefix + "SERVER_TLS_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSERVER_TLS_ENABLED: %w", EnvPrefix, err))
		} else {
			c.Server.TLS.Enabled = b
		}
	}
	str("LOG_LEVEL", &c.Log.Level)

	c.Router.Strategy = strings.ToLower(c.Router.Strategy)
	c.Log.Level = strings.ToLower(c.Log.Level)
	return errors.Join(errs...)
}

// Validate checks every section and reports all problems at once
func (c *Config) Validate() error {
	return validation.NewConfigValidator("config").
		RangeInt("spiral.base", c.Spiral.Base, 1, 360).
		PositiveFloat("spiral.radius", c.Spiral.Radius).
		PositiveFloat("spiral.rise", c.Spiral.Rise).
		NonNegativeFloat("legend.tolerance", c.Legend.Tolerance).
		NonNegativeFloat("legend.radius", c.Legend.Radius).
		OneOf("router.strategy", c.Router.Strategy, Strategies).
		OneOf("parser.notation", c.Parser.Notation, Notations).
		OneOf("store.backend", c.Store.Backend, Backends).
		When(c.Store.Backend == "file" || c.Store.Backend == "snappy", func(cv *validation.ConfigValidator) {
			cv.Required("store.path", c.Store.Path)
		}).
		When(c.Store.Backend == "s3", func(cv *validation.ConfigValidator) {
			cv.Required("store.s3.bucket", c.Store.S3.Bucket)
		}).
		When(c.Store.Backend == "postgres", func(cv *validation.ConfigValidator) {
			cv.Required("store.postgres.url", c.Store.Postgres.URL).
				Required("store.postgres.table", c.Store.Postgres.Table)
		}).
		Required("server.addr", c.Server.Addr).
		MinDuration("server.shutdown_timeout", c.Server.ShutdownTimeout, time.Second).
		When(c.Server.TLS.Enabled && !c.Server.TLS.AutoGenerate, func(cv *validation.ConfigValidator) {
			cv.Required("server.tls.cert_file", c.Server.TLS.CertFile).
				Required("server.tls.key_file", c.Server.TLS.KeyFile)
		}).
		RangeInt("audit.buffer", c.Audit.Buffer, 1, 1_000_000).
		When(c.Events.URL != "", func(cv *validation.ConfigValidator) {
			cv.OneOf("events.transport", c.Events.Transport, Transports)
		}).
		OneOf("log.level", c.Log.Level, LogLevels).
		Validate()
}

// ColorTable returns the configured legend palette
func (c *Config) ColorTable() legend.ColorTable {
	table := legend.ColorTable{Default: validation.DefaultOr(c.Legend.DefaultColor, legend.DefaultColor)}
	return table.Merge(legend.DefaultColorTable().Merge(c.Legend.Colors).Colors)
}

// SpiralGenerator returns the configured helix generator
func (c *Config) SpiralGenerator() spiral.Generator {
	return spiral.Generator{Base: c.Spiral.Base, Radius: c.Spiral.Radius, Rise: c.Spiral.Rise}
}
