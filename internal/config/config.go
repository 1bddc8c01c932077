// Package config reads settings from an optional .env file, an optional
// settings.toml and CAMPUSPOLL_* environment variables, in rising priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const EnvPrefix = "CAMPUSPOLL"

type Config struct {
	APIURL      string
	FrontendURL string
	TokenFile   string
	Timeout     time.Duration
	LogLevel    zerolog.Level
	Auth        Auth
	HTTP        HTTP
}

type Auth struct {
	URL      string
	AnonKey  string
	Provider string
}

type HTTP struct {
	Addr          string
	CookieDomain  string
	SecureCookies bool
}

func defaults(v *viper.Viper) {
	v.SetDefault("api_url", "http://localhost:8000")
	v.SetDefault("frontend_url", "http://localhost:8080")
	v.SetDefault("auth.url", "")
	v.SetDefault("auth.anon_key", "")
	v.SetDefault("auth.provider", "google")
	v.SetDefault("token_file", "")
	v.SetDefault("timeout", "15s")
	v.SetDefault("log.level", "info")
	v.SetDefault("http.addr", "0.0.0.0:8080")
	v.SetDefault("http.cookie_domain", "")
	v.SetDefault("http.secure_cookies", true)
}

// Load builds the configuration. searchPaths overrides where settings.toml
// is looked up; by default that is ".", ".." and the user config dir.
func Load(searchPaths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	defaults(v)

	v.SetConfigName("settings")
	v.SetConfigType("toml")
	if len(searchPaths) == 0 {
		searchPaths = defaultSearchPaths()
	}
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read settings: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	level, err := zerolog.ParseLevel(v.GetString("log.level"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", v.GetString("log.level"), err)
	}

	cfg := &Config{
		APIURL:      strings.TrimRight(v.GetString("api_url"), "/"),
		FrontendURL: strings.TrimRight(v.GetString("frontend_url"), "/"),
		TokenFile:   v.GetString("token_file"),
		Timeout:     v.GetDuration("timeout"),
		LogLevel:    level,
		Auth: Auth{
			URL:      strings.TrimRight(v.GetString("auth.url"), "/"),
			AnonKey:  v.GetString("auth.anon_key"),
			Provider: v.GetString("auth.provider"),
		},
		HTTP: HTTP{
			Addr:          v.GetString("http.addr"),
			CookieDomain:  v.GetString("http.cookie_domain"),
			SecureCookies: v.GetBool("http.secure_cookies"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	for name, raw := range map[string]string{"api_url": c.APIURL, "frontend_url": c.FrontendURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute url, got %q", name, raw)
		}
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// AuthEnabled reports whether the hosted auth service is configured.
func (c *Config) AuthEnabled() bool {
	return c.Auth.URL != ""
}

func defaultSearchPaths() []string {
	paths := []string{".", ".."}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "campuspoll"))
	}
	return paths
}
