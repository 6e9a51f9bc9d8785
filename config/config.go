package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the application.
type Config struct {
	Server  Server  `envPrefix:"SERVER_"`
	DB      DB      `envPrefix:"DB_"`
	Redis   Redis   `envPrefix:"REDIS_"`
	JWT     JWT     `envPrefix:"JWT_"`
	Storage Storage `envPrefix:"STORAGE_"`
}

// Server holds HTTP server parameters.
type Server struct {
	Host           string   `env:"HOST" envDefault:"0.0.0.0"`
	Port           string   `env:"PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:5173"`
}

// DB holds database connection parameters.
type DB struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"recipeshare"`
	Password string `env:"PASSWORD"`
	Name     string `env:"NAME" envDefault:"recipeshare"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"`
}

// DSN builds a postgres connection string.
func (d DB) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Redis holds redis connection parameters. An empty Addr disables
// redis-backed features (rate limiting).
type Redis struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// JWT holds token signing parameters.
type JWT struct {
	Secret string `env:"SECRET" envDefault:"devsecret"`
}

// Storage holds picture storage parameters. Backend is either "local" or
// "s3"; LocalRoot is the public directory served to browsers.
type Storage struct {
	Backend   string `env:"BACKEND" envDefault:"local"`
	LocalRoot string `env:"LOCAL_ROOT" envDefault:"public"`
	S3Bucket  string `env:"S3_BUCKET"`
	AWSRegion string `env:"AWS_REGION" envDefault:"us-east-1"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
