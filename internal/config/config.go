// Package config loads germano settings from .env, an optional YAML file,
// and the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultAPIURL is used when no backend URL is configured.
const DefaultAPIURL = "http://localhost:8000"

// Config holds all configuration values.
type Config struct {
	// Backend
	APIURL        string
	ClientTimeout time.Duration

	// Browser view
	ListenAddr string

	// Logging
	LogFile  string
	LogLevel slog.Level

	// Transcript rendering
	Render RenderConfig
}

// RenderConfig controls the layout heuristic for message bodies.
type RenderConfig struct {
	FontSize      int     `yaml:"font_size"`
	LineHeight    float64 `yaml:"line_height"`
	CharsPerLine  int     `yaml:"chars_per_line"`
	MaxBodyHeight int     `yaml:"max_body_height"`
}

// fileConfig is the shape of the YAML config file. Empty fields keep defaults.
type fileConfig struct {
	APIURL        string        `yaml:"api_url"`
	ClientTimeout time.Duration `yaml:"client_timeout"`
	ListenAddr    string        `yaml:"listen_addr"`
	LogFile       string        `yaml:"log_file"`
	LogLevel      string        `yaml:"log_level"`
	Render        RenderConfig  `yaml:"render"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		APIURL:        DefaultAPIURL,
		ClientTimeout: 30 * time.Second,
		ListenAddr:    ":8501",
		LogFile:       "/tmp/germano.log",
		LogLevel:      slog.LevelInfo,
		Render: RenderConfig{
			FontSize:      14,
			LineHeight:    1.6,
			CharsPerLine:  65,
			MaxBodyHeight: 350,
		},
	}
}

// Load reads configuration from ./.env, the YAML config file and environment variables.
func Load() (Config, error) {
	return load(".env")
}

func load(envFile string) (Config, error) {
	// .env never overrides variables already set in the environment
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Defaults()

	path, explicit := configPath()
	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return Config{}, err
			}
		}
	}

	applyEnv(&cfg)
	cfg.APIURL = NormalizeURL(cfg.APIURL)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// configPath returns the YAML file to read and whether it was set explicitly.
func configPath() (string, bool) {
	if p := os.Getenv("GERMANO_CONFIG"); p != "" {
		return p, true
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "germano", "config.yaml"), false
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.APIURL != "" {
		cfg.APIURL = fc.APIURL
	}
	if fc.ClientTimeout > 0 {
		cfg.ClientTimeout = fc.ClientTimeout
	}
	if fc.ListenAddr != "" {
		cfg.ListenAddr = fc.ListenAddr
	}
	if fc.LogFile != "" {
		cfg.LogFile = fc.LogFile
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = parseLogLevel(fc.LogLevel)
	}
	if fc.Render.FontSize > 0 {
		cfg.Render.FontSize = fc.Render.FontSize
	}
	if fc.Render.LineHeight > 0 {
		cfg.Render.LineHeight = fc.Render.LineHeight
	}
	if fc.Render.CharsPerLine > 0 {
		cfg.Render.CharsPerLine = fc.Render.CharsPerLine
	}
	if fc.Render.MaxBodyHeight > 0 {
		cfg.Render.MaxBodyHeight = fc.Render.MaxBodyHeight
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.APIURL = getEnv("GERMANO_API_URL", getEnv("API_URL", cfg.APIURL))
	cfg.ClientTimeout = getDuration("GERMANO_CLIENT_TIMEOUT", cfg.ClientTimeout)
	cfg.ListenAddr = getEnv("GERMANO_LISTEN_ADDR", cfg.ListenAddr)
	cfg.LogFile = getEnv("GERMANO_LOG_FILE", cfg.LogFile)
	if lvl := os.Getenv("GERMANO_LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = parseLogLevel(lvl)
	}
	cfg.Render.MaxBodyHeight = getInt("GERMANO_MAX_BODY_HEIGHT", cfg.Render.MaxBodyHeight)
}

// Validate rejects settings the viewer cannot work with.
func (c Config) Validate() error {
	var errs []error
	if c.APIURL == "" {
		errs = append(errs, errors.New("api url is empty"))
	}
	if c.Render.FontSize <= 0 || c.Render.LineHeight <= 0 || c.Render.CharsPerLine <= 0 {
		errs = append(errs, errors.New("render settings must be positive"))
	}
	if c.Render.MaxBodyHeight < 0 {
		errs = append(errs, errors.New("max body height must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// NormalizeURL trims the backend URL and adds http:// when no scheme is given.
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		u = DefaultAPIURL
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "http://" + u
	}
	return strings.TrimRight(u, "/")
}

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
