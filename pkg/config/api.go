package config

import "time"

// APIConfig holds runtime configuration for the API service. It is built
// once at startup and passed into services; nothing mutates it afterwards.
type APIConfig struct {
	Environment   string
	Addr          string
	DatabaseURL   string
	MigrationsDir string
	JWTSecret     string
	TokenTTL      time.Duration
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:   GetString("APP_ENV", "development"),
		Addr:          GetString("API_ADDR", ":5000"),
		DatabaseURL:   GetString("DATABASE_URL", "postgres://devnet:devnet@db:5432/devnet?sslmode=disable"),
		MigrationsDir: GetString("DB_MIGRATIONS_DIR", "./db/migrations"),
		JWTSecret:     GetString("JWT_SECRET", "supersecuresecret"),
		TokenTTL:      GetSeconds("TOKEN_TTL_SECONDS", 3600),
	}
}
