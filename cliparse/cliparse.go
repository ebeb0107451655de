package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends for the annotation log
const (
	StorageFile     = "file"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

const (
	defaultPort      = 8001
	defaultDataDir   = "./data"
	defaultStaticDir = "./static"
)

type Config struct {
	Port        int    `yaml:"port"`
	DataDir     string `yaml:"data_dir"`
	StaticDir   string `yaml:"static_dir"`
	StorageType string `yaml:"storage_type"`
	DatabaseURL string `yaml:"database_url"`
	ServerURL   string `yaml:"server_url"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
}

// ParseFlags builds the config. Each setting comes from the first source
// that sets it: CLI flag, environment (including .env), YAML config file,
// then the default.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var envFile, configFile string

	fs := flag.NewFlagSet("quickly-annotate", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.ServerURL, "server", "", "Public server URL used in annotator links")

	// Storage
	fs.StringVar(&cfg.DataDir, "data", "", "Data directory (tasks/, outputs/, progress.json, assets/)")
	fs.StringVar(&cfg.StaticDir, "static", "", "Frontend build directory")
	fs.StringVar(&cfg.StorageType, "t", "", "Annotation log storage (file, sqlite or postgres)")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL for sqlite or postgres storage")

	// Logging
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", "", "Log format (text or json)")

	// Config sources
	fs.StringVar(&envFile, "env-file", "", "Load environment variables from this file")
	fs.StringVar(&configFile, "c", "", "YAML config file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := loadEnvFile(envFile); err != nil {
		return Config{}, err
	}

	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
	}
	var file Config
	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	}

	// Fall back to environment variables, then the config file
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else if file.Port != 0 {
			cfg.Port = file.Port
		} else {
			cfg.Port = defaultPort
		}
	}
	cfg.DataDir = firstSet(cfg.DataDir, os.Getenv("DATA_DIR"), file.DataDir, defaultDataDir)
	cfg.StaticDir = firstSet(cfg.StaticDir, os.Getenv("STATIC_DIR"), file.StaticDir, defaultStaticDir)
	cfg.StorageType = firstSet(cfg.StorageType, os.Getenv("STORAGE_TYPE"), file.StorageType, StorageFile)
	cfg.DatabaseURL = firstSet(cfg.DatabaseURL, os.Getenv("DATABASE_URL"), file.DatabaseURL, "")
	cfg.ServerURL = firstSet(cfg.ServerURL, os.Getenv("SERVER_URL"), file.ServerURL, "")
	cfg.LogLevel = firstSet(cfg.LogLevel, os.Getenv("LOG_LEVEL"), file.LogLevel, "info")
	cfg.LogFormat = firstSet(cfg.LogFormat, os.Getenv("LOG_FORMAT"), file.LogFormat, "text")

	if cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("port %d out of range", cfg.Port)
	}

	switch cfg.StorageType {
	case StorageFile:
	case StorageSQLite, StoragePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("database URL required for %s storage (use -d or DATABASE_URL env)", cfg.StorageType)
		}
	default:
		return Config{}, fmt.Errorf("unknown storage type %q", cfg.StorageType)
	}

	if _, err := cfg.SlogLevel(); err != nil {
		return Config{}, err
	}
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return Config{}, fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}

	return cfg, nil
}

// SlogLevel parses LogLevel
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. With no path, a .env in the working directory is
// loaded if present.
func loadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
