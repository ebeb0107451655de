// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 8001)
  - DataDir: Campaign data root holding tasks/, outputs/, progress.json and assets/ (default: ./data)
  - StaticDir: Frontend build; must contain index.html (default: ./static)
  - StorageType: Annotation log backend, file, sqlite or postgres (default: file)
  - DatabaseURL: Connection string, required for sqlite and postgres
  - ServerURL: Public URL used when printing annotator links
  - LogLevel, LogFormat: slog level and handler (text or json)

# Sources

Each setting is taken from the first source that sets it:

	-p            PORT          port
	-data         DATA_DIR      data_dir
	-static       STATIC_DIR    static_dir
	-t            STORAGE_TYPE  storage_type
	-d            DATABASE_URL  database_url
	-server       SERVER_URL    server_url
	-log-level    LOG_LEVEL     log_level
	-log-format   LOG_FORMAT    log_format

The first column is the CLI flag, the second the environment variable and the
third the key in the YAML file given with -c (or CONFIG_FILE). Variables from
-env-file, or from ./.env when no file is named, are loaded into the
environment first without overriding what is already set.

# Validation

ParseFlags returns an error if:

  - PORT is not a number or the port is out of range
  - the storage type is unknown, or sqlite/postgres has no database URL
  - the log level or format is unknown
  - a named config or env file cannot be read
*/
package cliparse
