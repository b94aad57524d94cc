// Package config provides configuration for the application.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrDBUriNotSetInProduction is returned when the sqlite driver is used in production without DB_URI.
	// We need this to prevent accidentally writing production quizzes to a default file.
	ErrDBUriNotSetInProduction = errors.New("DB_URI must be set in production when STORE_DRIVER is sqlite")
	// ErrUnsupportedStoreDriver is returned for an unknown STORE_DRIVER.
	ErrUnsupportedStoreDriver = errors.New("unsupported store driver")
)

const (
	// StoreDriverFile stores each dataset as a JSON file.
	StoreDriverFile = "file"
	// StoreDriverSQLite stores each dataset as a row in a SQLite database.
	StoreDriverSQLite = "sqlite"
)

const (
	// AppEnvironmentDefault is the default application environment.
	AppEnvironmentDefault = "development"
	// DataDirDefault is the default directory for file datasets.
	DataDirDefault = "data"
	// DatasetDefault is the default dataset name.
	DatasetDefault = "quizzes"
	// StoreDriverDefault is the default store driver.
	StoreDriverDefault = StoreDriverFile
	// LogLevelDefault is the default log level.
	LogLevelDefault = "info"

	// DBDriverDefault is the database/sql driver name used by the sqlite store.
	DBDriverDefault = "sqlite"
	// DBURIDefault is the default database URI. Default is quizbook.sqlite in the current directory.
	DBURIDefault = "file:quizbook.sqlite?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	// DBMaxOpenConnsDefault is the default maximum number of open database connections.
	DBMaxOpenConnsDefault = 1
	// DBMaxIdleConnsDefault is the default maximum number of idle database connections.
	DBMaxIdleConnsDefault = 1
	// DBConnMaxLifetimeDefault is the default maximum lifetime of a database connection.
	DBConnMaxLifetimeDefault = 5 * time.Minute
)

// Config represents the application configuration.
type Config struct {
	AppEnvironment string

	DataDir      string
	Dataset      string
	StoreDriver  string
	StoreCompact bool

	LogLevel string

	DBDriver string
	DBURI    string

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
}

// IsProduction reports whether the application runs in production.
func (c *Config) IsProduction() bool {
	return c.AppEnvironment == "production"
}

// Parse parses environment variables into the config.
func Parse(getenv func(string) string) (*Config, error) {
	c := Config{
		AppEnvironment:    AppEnvironmentDefault,
		DataDir:           DataDirDefault,
		Dataset:           DatasetDefault,
		StoreDriver:       StoreDriverDefault,
		LogLevel:          LogLevelDefault,
		DBDriver:          DBDriverDefault,
		DBURI:             DBURIDefault,
		DBMaxOpenConns:    DBMaxOpenConnsDefault,
		DBMaxIdleConns:    DBMaxIdleConnsDefault,
		DBConnMaxLifetime: DBConnMaxLifetimeDefault,
	}
	// Overwrite defaults with environment variables.
	if val := getenv("APP_ENV"); val != "" {
		c.AppEnvironment = val
	}
	if val := getenv("DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := getenv("DATASET"); val != "" {
		c.Dataset = val
	}
	if val := getenv("STORE_DRIVER"); val != "" {
		c.StoreDriver = strings.ToLower(val)
	}
	if val := getenv("LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := getenv("DB_URI"); val != "" {
		c.DBURI = val
	}

	// Strict validation for types
	if val := getenv("STORE_COMPACT"); val != "" {
		var err error
		c.StoreCompact, err = strconv.ParseBool(val)
		if err != nil {
			return nil, fmt.Errorf("invalid STORE_COMPACT: %q, err: %w", val, err)
		}
	}

	if val := getenv("DB_MAX_OPEN_CONNS"); val != "" {
		var err error
		c.DBMaxOpenConns, err = strconv.Atoi(val)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %q, err: %w", val, err)
		}
	}

	if val := getenv("DB_MAX_IDLE_CONNS"); val != "" {
		var err error
		c.DBMaxIdleConns, err = strconv.Atoi(val)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %q, err: %w", val, err)
		}
	}

	if val := getenv("DB_CONN_MAX_LIFETIME"); val != "" {
		var err error
		c.DBConnMaxLifetime, err = time.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %q, err: %w", val, err)
		}
	}

	switch c.StoreDriver {
	case StoreDriverFile, StoreDriverSQLite:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStoreDriver, c.StoreDriver)
	}

	// Mandatory fields
	if c.IsProduction() && c.StoreDriver == StoreDriverSQLite && getenv("DB_URI") == "" {
		return nil, ErrDBUriNotSetInProduction
	}

	return &c, nil
}
