package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/boxpad/pkg/layout"
)

// ConfigFile is the optional settings file inside a board directory.
const ConfigFile = "boxpad.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BOXPAD_"

// Config is the file and environment configuration of a board.
// Zero values mean "not set" and leave the defaults alone.
type Config struct {
	Adapter        string           `yaml:"adapter"`
	Format         string           `yaml:"format"`
	Versioning     *bool            `yaml:"versioning"`
	ResizeDebounce time.Duration    `yaml:"resize_debounce"`
	Viewport       *layout.Viewport `yaml:"viewport"`
	Server         ServerConfig     `yaml:"server"`
}

// ServerConfig configures `boxpad serve`.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DefaultAddr is the listen address of `boxpad serve`.
const DefaultAddr = "127.0.0.1:8080"

// LoadConfig reads <dir>/boxpad.yaml, then applies BOXPAD_* variables from
// <dir>/.env and the process environment. The process environment wins.
// Missing files are not an error.
func LoadConfig(dir string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(filepath.Join(dir, ConfigFile))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", ConfigFile, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return cfg, err
	}

	dotenv, err := godotenv.Read(filepath.Join(dir, ".env"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("invalid .env: %w", err)
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	return cfg, cfg.applyEnv(lookup)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "ADAPTER"); ok {
		c.Adapter = v
	}
	if v, ok := lookup(EnvPrefix + "FORMAT"); ok {
		c.Format = v
	}
	if v, ok := lookup(EnvPrefix + "VERSIONING"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sVERSIONING: %w", EnvPrefix, err)
		}
		c.Versioning = &b
	}
	if v, ok := lookup(EnvPrefix + "RESIZE_DEBOUNCE"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sRESIZE_DEBOUNCE: %w", EnvPrefix, err)
		}
		c.ResizeDebounce = d
	}
	if v, ok := lookup(EnvPrefix + "ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvPrefix + "ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, o)
			}
		}
	}
	return nil
}

// Addr returns the configured listen address or DefaultAddr.
func (c Config) Addr() string {
	if c.Server.Addr == "" {
		return DefaultAddr
	}
	return c.Server.Addr
}

// Options turns the configuration into options. Explicit options passed
// after these override them.
func (c Config) Options() []Option {
	var opts []Option
	if c.Adapter != "" {
		opts = append(opts, WithAdapter(c.Adapter))
	}
	if c.Format != "" {
		opts = append(opts, WithFormat(c.Format))
	}
	if c.Versioning != nil {
		opts = append(opts, WithVersioning(*c.Versioning))
	}
	if c.ResizeDebounce > 0 {
		opts = append(opts, WithResizeDebounce(c.ResizeDebounce))
	}
	if c.Viewport != nil {
		opts = append(opts, WithViewport(*c.Viewport))
	}
	return opts
}
