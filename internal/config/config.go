// Package config handles configuration loading and defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
)

// Default values.
const (
	DefaultAPIURL     = "http://localhost:8000"
	DefaultTheme      = "classic"
	DefaultLogLevel   = "info"
	DefaultServerAddr = ":8000"
	DefaultDataFile   = "todos.json"
	DefaultHomeDir    = ".tada"
	ConfigFileName    = "config.toml"
	DotEnvFileName    = ".env"
	logFileName       = "tada.log"
)

// Config holds the full configuration for the client and the reference server.
type Config struct {
	APIURL   string `toml:"api_url"`
	Theme    string `toml:"theme"`
	Group    bool   `toml:"group"`
	LogFile  string `toml:"log_file"`
	LogLevel string `toml:"log_level"`

	ServerAddr string `toml:"server_addr"`
	DataFile   string `toml:"data_file"`

	// Resolved, not read from the file.
	Home       string `toml:"-"`
	ConfigFile string `toml:"-"`
}

// Flags are the command-line overrides shared by both binaries.
type Flags struct {
	fs *flag.FlagSet

	config   *string
	apiURL   *string
	theme    *string
	group    *bool
	logFile  *string
	logLevel *string
	addr     *string
	data     *string
}

// RegisterFlags defines the global flags on fs. Parsing stops at the first
// positional argument so subcommands keep their own arguments.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	fs.SetInterspersed(false)
	return &Flags{
		fs:       fs,
		config:   fs.StringP("config", "c", "", "path to config.toml"),
		apiURL:   fs.String("api-url", "", "base URL of the todo API"),
		theme:    fs.String("theme", "", "output theme: classic, neon, mono"),
		group:    fs.Bool("group", false, "group output by pending/done"),
		logFile:  fs.String("log-file", "", "log file path"),
		logLevel: fs.String("log-level", "", "log level: debug, info, warn, error"),
		addr:     fs.String("addr", "", "listen address (server)"),
		data:     fs.String("data", "", "data file (server)"),
	}
}

// Load resolves configuration in priority order:
//  1. Defaults
//  2. Config file ($TADA_HOME/config.toml, or --config / TADA_CONFIG)
//  3. Environment (TADA_*), with .env in the working directory filling unset vars
//  4. Flags that were set explicitly
//
// f may be nil when no flags are in play.
func Load(f *Flags) (*Config, error) {
	dotenv, err := readDotEnv(DotEnvFileName)
	if err != nil {
		return nil, err
	}
	env := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}

	home, err := resolveHome(env)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	setDefaults(cfg, home)

	path := env("TADA_CONFIG")
	if f != nil && f.fs.Changed("config") {
		path = *f.config
	}
	explicit := path != ""
	if !explicit {
		path = filepath.Join(home, ConfigFileName)
	}
	if err := loadFile(cfg, path, explicit); err != nil {
		return nil, err
	}

	loadFromEnv(cfg, env)
	if f != nil {
		f.apply(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(cfg *Config, home string) {
	cfg.Home = home
	cfg.APIURL = DefaultAPIURL
	cfg.Theme = DefaultTheme
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFile = filepath.Join(home, logFileName)
	cfg.ServerAddr = DefaultServerAddr
	cfg.DataFile = DefaultDataFile
}

func resolveHome(env func(string) string) (string, error) {
	if h := env("TADA_HOME"); h != "" {
		return h, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(userHome, DefaultHomeDir), nil
}

// readDotEnv returns the variables in path, or nothing if the file is absent.
// The process environment is left alone.
func readDotEnv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	vals, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return vals, nil
}

func loadFile(cfg *Config, path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("config file %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	cfg.ConfigFile = path
	return nil
}

func loadFromEnv(cfg *Config, env func(string) string) {
	if v := env("TADA_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := env("TADA_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := env("TADA_GROUP"); v != "" {
		cfg.Group = v == "1" || strings.EqualFold(v, "true")
	}
	if v := env("TADA_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := env("TADA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := env("TADA_SERVER_ADDR"); v != "" {
		cfg.ServerAddr = v
	}
	if v := env("TADA_DATA_FILE"); v != "" {
		cfg.DataFile = v
	}
}

func (f *Flags) apply(cfg *Config) {
	if f.fs.Changed("api-url") {
		cfg.APIURL = *f.apiURL
	}
	if f.fs.Changed("theme") {
		cfg.Theme = *f.theme
	}
	if f.fs.Changed("group") {
		cfg.Group = *f.group
	}
	if f.fs.Changed("log-file") {
		cfg.LogFile = *f.logFile
	}
	if f.fs.Changed("log-level") {
		cfg.LogLevel = *f.logLevel
	}
	if f.fs.Changed("addr") {
		cfg.ServerAddr = *f.addr
	}
	if f.fs.Changed("data") {
		cfg.DataFile = *f.data
	}
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("api_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_url: scheme must be http or https, got %q", c.APIURL)
	}
	if u.Host == "" {
		return fmt.Errorf("api_url: missing host in %q", c.APIURL)
	}
	switch strings.ToLower(c.Theme) {
	case "classic", "neon", "mono":
	default:
		return fmt.Errorf("theme: unknown theme %q", c.Theme)
	}
	return nil
}
