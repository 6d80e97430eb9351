package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/synheart/consciousness-bridge/internal/models"
	"gopkg.in/yaml.v3"
)

// Config is the top-level bridge configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Generator GeneratorConfig `yaml:"generator"`
	Stream    StreamConfig    `yaml:"stream"`
	LogLevel  string          `yaml:"log_level"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type GeneratorConfig struct {
	Tier         string `yaml:"tier"`
	Schedule     string `yaml:"schedule"`
	SchedulesDir string `yaml:"schedules_dir"`
}

type StreamConfig struct {
	Enabled bool   `yaml:"enabled"`
	Rate    string `yaml:"rate"`
	Buffer  int    `yaml:"buffer"`
}

// Default returns the configuration used when no file, env or flag is set.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Host: "localhost", Port: 8765},
		Generator: GeneratorConfig{Tier: string(models.TierSimple)},
		Stream:    StreamConfig{Rate: "10hz", Buffer: 100},
		LogLevel:  "info",
	}
}

// envVarRe matches ${VAR} and ${VAR:default} patterns.
var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load builds a config from defaults, the YAML file at path (skipped when
// path is empty) and BRIDGE_* environment variables, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}

		resolved := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
			parts := envVarRe.FindStringSubmatch(match)
			if v := os.Getenv(parts[1]); v != "" {
				return v
			}
			return parts[2]
		})

		if err := yaml.Unmarshal([]byte(resolved), cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are ignored; variables already set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from BRIDGE_* environment variables.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv("BRIDGE_HOST"); ok {
		c.Server.Host = v
	}
	if v, ok := os.LookupEnv("BRIDGE_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BRIDGE_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := os.LookupEnv("BRIDGE_TIER"); ok {
		c.Generator.Tier = v
	}
	if v, ok := os.LookupEnv("BRIDGE_SCHEDULE"); ok {
		c.Generator.Schedule = v
	}
	if v, ok := os.LookupEnv("BRIDGE_SCHEDULES_DIR"); ok {
		c.Generator.SchedulesDir = v
	}
	if v, ok := os.LookupEnv("BRIDGE_STREAM"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("BRIDGE_STREAM: %w", err)
		}
		c.Stream.Enabled = enabled
	}
	if v, ok := os.LookupEnv("BRIDGE_STREAM_RATE"); ok {
		c.Stream.Rate = v
	}
	if v, ok := os.LookupEnv("BRIDGE_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	return nil
}

// Validate checks that every field is usable.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if _, err := models.ParseTier(c.Generator.Tier); err != nil {
		return fmt.Errorf("generator.tier: %w", err)
	}
	if _, err := ParseTickRate(c.Stream.Rate); err != nil {
		return fmt.Errorf("stream.rate: %w", err)
	}
	if c.Stream.Buffer <= 0 {
		return fmt.Errorf("stream.buffer must be positive, got %d", c.Stream.Buffer)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// ScheduleName returns the configured schedule, defaulting to the tier name.
func (c *Config) ScheduleName() string {
	if c.Generator.Schedule != "" {
		return c.Generator.Schedule
	}
	return strings.ToLower(strings.TrimSpace(c.Generator.Tier))
}

// ParseTickRate converts a rate such as "10hz" into a tick interval.
func ParseTickRate(rate string) (time.Duration, error) {
	var hz float64
	_, err := fmt.Sscanf(strings.ToLower(strings.TrimSpace(rate)), "%fhz", &hz)
	if err != nil {
		return 0, fmt.Errorf("invalid rate %q (expected e.g. 10hz)", rate)
	}
	if hz <= 0 {
		return 0, fmt.Errorf("rate must be positive")
	}
	return time.Duration(float64(time.Second) / hz), nil
}
