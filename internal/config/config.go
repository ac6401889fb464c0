// Package config provides unified configuration loading for synapse.
// It supports loading from YAML files and SYNAPSE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/aretw0/synapse/pkg/domain"
	"github.com/aretw0/synapse/pkg/generator"
	"github.com/aretw0/synapse/pkg/propagation"
	"github.com/aretw0/synapse/pkg/stimulus"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config contains all synapse configuration settings.
type Config struct {
	// Seed makes graph generation reproducible. Nil draws from process entropy.
	Seed *uint64 `json:"seed,omitempty" yaml:"seed,omitempty" mapstructure:"seed"`

	Generator   generator.Config   `json:"generator" yaml:"generator" mapstructure:"generator"`
	Propagation propagation.Config `json:"propagation" yaml:"propagation" mapstructure:"propagation"`
	Stimulus    StimulusConfig     `json:"stimulus" yaml:"stimulus" mapstructure:"stimulus"`
	Server      ServerConfig       `json:"server" yaml:"server" mapstructure:"server"`
	Cache       CacheConfig        `json:"cache" yaml:"cache" mapstructure:"cache"`
	Logging     LoggingConfig      `json:"logging" yaml:"logging" mapstructure:"logging"`
}

// StimulusConfig bounds untrusted input on every frontend.
type StimulusConfig struct {
	// MaxSize is the largest accepted stimulus in bytes. Default: 4096.
	MaxSize int `json:"max_size" yaml:"max_size" mapstructure:"max_size" validate:"gte=1"`
}

// ServerConfig configures the HTTP shell.
type ServerConfig struct {
	// Addr is the listen address. Default: ":8080".
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr" validate:"required"`

	// StaticDir is served under /static/ when set.
	StaticDir string `json:"static_dir,omitempty" yaml:"static_dir,omitempty" mapstructure:"static_dir"`

	// Metrics exposes Prometheus metrics on /metrics.
	Metrics bool `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
}

// CacheConfig configures the trace cache.
type CacheConfig struct {
	// Backend is "none", "memory" (default) or "redis".
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend" validate:"oneof=none memory redis"`

	// Size bounds the in-memory cache.
	Size int `json:"size" yaml:"size" mapstructure:"size" validate:"gte=0"`

	// TTL bounds the lifetime of Redis entries.
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`

	Redis RedisConfig `json:"redis" yaml:"redis" mapstructure:"redis"`
}

// RedisConfig holds connection settings for the Redis cache.
type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr" mapstructure:"addr"`
	Password string `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`
	DB       int    `json:"db" yaml:"db" mapstructure:"db" validate:"gte=0"`
}

// LoggingConfig configures operational logging.
type LoggingConfig struct {
	// Level sets the log verbosity: "trace", "debug", "info" (default), "warn" or "error".
	Level string `json:"level" yaml:"level" mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error"`
}

// Default returns the reference configuration.
func Default() *Config {
	return &Config{
		Generator:   generator.DefaultConfig(),
		Propagation: propagation.DefaultConfig(),
		Stimulus:    StimulusConfig{MaxSize: stimulus.DefaultMaxSize},
		Server: ServerConfig{
			Addr:    ":8080",
			Metrics: true,
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
			Size:    256,
			TTL:     10 * time.Minute,
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// envKeys maps environment variables to dotted config paths.
var envKeys = map[string]string{
	"SYNAPSE_SEED":                      "seed",
	"SYNAPSE_GENERATOR_NODES":           "generator.nodes",
	"SYNAPSE_GENERATOR_LAYERS":          "generator.layers",
	"SYNAPSE_GENERATOR_CONNECTION_PROB": "generator.connection_prob",
	"SYNAPSE_GENERATOR_LONG_RANGE_PROB": "generator.long_range_prob",
	"SYNAPSE_GENERATOR_LAYER_POLICY":    "generator.layer_policy",
	"SYNAPSE_PROPAGATION_STEPS":         "propagation.steps",
	"SYNAPSE_STIMULUS_MAX_SIZE":         "stimulus.max_size",
	"SYNAPSE_SERVER_ADDR":               "server.addr",
	"SYNAPSE_SERVER_STATIC_DIR":         "server.static_dir",
	"SYNAPSE_SERVER_METRICS":            "server.metrics",
	"SYNAPSE_CACHE_BACKEND":             "cache.backend",
	"SYNAPSE_CACHE_SIZE":                "cache.size",
	"SYNAPSE_CACHE_TTL":                 "cache.ttl",
	"SYNAPSE_CACHE_REDIS_ADDR":          "cache.redis.addr",
	"SYNAPSE_CACHE_REDIS_PASSWORD":      "cache.redis.password",
	"SYNAPSE_CACHE_REDIS_DB":            "cache.redis.db",
	"SYNAPSE_LOG_LEVEL":                 "logging.level",
}

// Load reads the YAML file at path (if non-empty) over the defaults,
// applies environment overrides and validates the result.
func Load(path string, environ []string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(environ); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv decodes SYNAPSE_* variables from environ ("KEY=value" pairs) onto c.
func (c *Config) ApplyEnv(environ []string) error {
	overlay := make(map[string]any)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		path, known := envKeys[name]
		if !known {
			continue
		}
		setPath(overlay, strings.Split(path, "."), value)
	}
	if len(overlay) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("building env decoder: %w", err)
	}
	if err := decoder.Decode(overlay); err != nil {
		return fmt.Errorf("decoding environment overrides: %w", err)
	}
	return nil
}

func setPath(m map[string]any, path []string, value string) {
	for _, p := range path[:len(path)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[p] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report yaml field names so errors match the config file.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterStructValidation(validateCache, CacheConfig{})
	return v
}

func validateCache(sl validator.StructLevel) {
	c := sl.Current().Interface().(CacheConfig)
	if c.Backend == CacheRedis && c.Redis.Addr == "" {
		sl.ReportError(c.Redis.Addr, "redis.addr", "Addr", "required_with_redis", "")
	}
	if c.TTL < 0 {
		sl.ReportError(c.TTL, "ttl", "TTL", "gte", "0")
	}
}

// Validate runs struct validation followed by the semantic checks of each component.
func (c *Config) Validate() error {
	var errs []error

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validating config: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, &domain.ConfigError{
				Field:  strings.TrimPrefix(fe.Namespace(), "Config."),
				Reason: "failed " + fe.Tag() + " check",
				Value:  fe.Value(),
			})
		}
	}

	// Generator and propagation fields carry no tags; their own checks are authoritative.
	errs = append(errs, within("generator", c.Generator.Validate())...)
	errs = append(errs, within("propagation", c.Propagation.Validate())...)

	return domain.Join(errs)
}

// within qualifies component field names with their config section.
func within(section string, err error) []error {
	errs := domain.ConfigErrors(err)
	for _, e := range errs {
		var ce *domain.ConfigError
		if errors.As(e, &ce) {
			ce.Field = section + "." + ce.Field
		}
	}
	return errs
}
