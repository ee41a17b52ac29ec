package helper

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// DatabaseConfiguration holds the connection parameters for the graph store.
// Values are read from the environment (optionally via a .env file).
type DatabaseConfiguration struct {
	Host     string `env:"GRAPHLER_DB_HOST" env-default:"localhost"`
	Port     string `env:"GRAPHLER_DB_PORT" env-default:"5432"`
	Database string `env:"GRAPHLER_DB_DATABASE" env-default:"graphler"`
	Username string `env:"GRAPHLER_DB_USERNAME" env-default:"postgres"`
	Password string `env:"GRAPHLER_DB_PASSWORD"`
	Schema   string `env:"GRAPHLER_DB_SCHEMA" env-default:"public"`
	SSLMode  string `env:"GRAPHLER_DB_SSLMODE" env-default:"disable"`
}

// NewDatabaseConfiguration reads the database configuration from the
// environment. A .env file in the working directory is loaded first if present.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, NewError("load .env file", err)
		}
	}

	config := &DatabaseConfiguration{}
	err := cleanenv.ReadEnv(config)
	if err != nil {
		return nil, NewError("read database configuration from env", err)
	}

	return config, nil
}

// ConnectionString renders the configuration as a lib/pq connection string.
func (c *DatabaseConfiguration) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s search_path=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.Username, c.Password, c.Schema, c.SSLMode,
	)
}

// Database wraps the sql connection together with a logger.
type Database struct {
	Name     string
	Instance *sql.DB
	Logger   *slog.Logger
}

// NewDatabase opens a connection to the configured postgres instance.
// An unreachable store at startup is fatal for the run.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) *Database {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		log.Fatalf("error opening database connection: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	err = db.Ping()
	if err != nil {
		log.Fatalf("error pinging database %v: %v", name, err)
	}

	logger.Info("Connected to database", slog.String("name", name), slog.String("host", config.Host))

	return &Database{
		Name:     name,
		Instance: db,
		Logger:   logger,
	}
}

// NewTestDatabase creates a database connection with a quiet logger for tests.
func NewTestDatabase(config *DatabaseConfiguration) *Database {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewDatabase("graphler_test", config, logger)
}
