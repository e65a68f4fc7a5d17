package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Settings holds everything read from the environment. Loaded once at
// startup; read-only afterwards.
type Settings struct {
	DatabaseURL              string
	SecretKey                string
	AccessTokenExpireMinutes int
	RefreshTokenExpireDays   int
	CORSOrigins              []string
	Environment              Environment
	Debug                    bool
	Port                     string
}

var settings *Settings

func GetSettings() *Settings {
	if settings == nil {
		settings = loadSettings()
	}
	return settings
}

func init() {
	// Load env from .env for local development. Missing file is fine.
	godotenv.Load()
}

func loadSettings() *Settings {
	env := Environment(strings.TrimSpace(os.Getenv("ENVIRONMENT")))
	switch env {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		env = EnvDevelopment
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	secret := os.Getenv("SECRET_KEY")
	if secret == "" && env != EnvProduction {
		secret = "mfg-dev-secret"
	}

	return &Settings{
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		SecretKey:                secret,
		AccessTokenExpireMinutes: IntFromEnv("ACCESS_TOKEN_EXPIRE_MINUTES", 30),
		RefreshTokenExpireDays:   IntFromEnv("REFRESH_TOKEN_EXPIRE_DAYS", 7),
		CORSOrigins:              splitOrigins(os.Getenv("BACKEND_CORS_ORIGINS")),
		Environment:              env,
		Debug:                    boolFromEnv("DEBUG", env == EnvDevelopment),
		Port:                     port,
	}
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func IntFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolFromEnv(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
