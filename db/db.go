// Package db loads broker configuration from the environment and opens the
// Postgres pool, applying the schema on startup.
package db

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schema string

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	ListenAddr   string
	MetricsAddr  string
	GameStoreDir string
	LogLevel     string
}

func LoadConfig() *Config {
	return &Config{
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBUser:       getEnv("DB_USER", ""),
		DBPassword:   getEnv("DB_PASSWORD", ""),
		DBName:       getEnv("DB_NAME", ""),
		ListenAddr:   getEnv("LISTEN_ADDR", "127.0.0.1:10050"),
		MetricsAddr:  os.Getenv("METRICS_ADDR"),
		GameStoreDir: getEnv("GAME_STORE_DIR", "game_store"),
		LogLevel:     os.Getenv("LOG_LEVEL"),
	}
}

func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		if defaultValue == "" {
			log.Fatalf("Environment variable %s is not set", key)
		}
		return defaultValue
	}
	return value
}

func GetDBConnectionString(c *Config) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func InitDB(cfg *Config) *sql.DB {
	connStr := GetDBConnectionString(cfg)
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	if _, err := db.Exec(schema); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	return db
}
