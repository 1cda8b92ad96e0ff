package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Backend BackendConfig
	LLM     LLMConfig
	Stub    StubConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
}

// BackendConfig points the gateway at the workspace/auth REST service.
// Injected at construction so tests can substitute a fake backend.
type BackendConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// LLMConfig points the gateway at the ingestion/query service.
type LLMConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// StubConfig configures the local stub backend (cmd/stub and --local mode).
type StubConfig struct {
	Port         string
	JwtSecret    string
	SeedEmail    string
	SeedPassword string
	SeedName     string
	SubDays      int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "datagpt.log"),
		},
		Backend: BackendConfig{
			BaseURL:        getEnv("BACKEND_BASE_URL", "http://localhost:8090/api/v1"),
			RequestTimeout: time.Duration(getEnvAsInt("BACKEND_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		LLM: LLMConfig{
			BaseURL:        getEnv("LLM_BASE_URL", "http://localhost:8090/llm"),
			RequestTimeout: time.Duration(getEnvAsInt("LLM_TIMEOUT_SECONDS", 60)) * time.Second,
		},
		Stub: StubConfig{
			Port:         getEnv("STUB_PORT", "8090"),
			JwtSecret:    getEnv("STUB_JWT_SECRET", "stub-secret"),
			SeedEmail:    getEnv("STUB_SEED_EMAIL", "test@example.com"),
			SeedPassword: getEnv("STUB_SEED_PASSWORD", "password"),
			SeedName:     getEnv("STUB_SEED_NAME", "Test User"),
			SubDays:      getEnvAsInt("STUB_SUBSCRIPTION_DAYS", 30),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
