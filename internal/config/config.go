package config

import (
	"fmt"
	"os"
	"strconv"

	"demobank/pkg/kv" // Import kv package for its Config struct
)

// Store backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort        string
	StoreBackend      string
	StorePath         string
	SessionTTLSeconds int
	LoanDelayMS       int
	DB                kv.Config
}

// LoadConfig loads configuration from environment variables.
// It returns an AppConfig instance or an error if any variable is invalid.
func LoadConfig() (*AppConfig, error) {
	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080" // Default port
	}

	backend := os.Getenv("STORE_BACKEND")
	if backend == "" {
		backend = BackendFile
	}
	if backend != BackendFile && backend != BackendPostgres {
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: must be %q or %q", backend, BackendFile, BackendPostgres)
	}

	storePath := os.Getenv("STORE_PATH")
	if storePath == "" {
		storePath = "./data"
	}

	ttl, err := intEnv("SESSION_TTL_SECONDS", 300)
	if err != nil {
		return nil, err
	}
	loanDelay, err := intEnv("LOAN_DELAY_MS", 2500)
	if err != nil {
		return nil, err
	}

	dbPort, err := intEnv("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		dbPassword = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "demobank"
	}
	dbSSLMode := os.Getenv("DB_SSLMODE")
	if dbSSLMode == "" {
		dbSSLMode = "disable"
	}

	return &AppConfig{
		ServerPort:        serverPort,
		StoreBackend:      backend,
		StorePath:         storePath,
		SessionTTLSeconds: ttl,
		LoanDelayMS:       loanDelay,
		DB: kv.Config{
			Host:     dbHost,
			Port:     dbPort,
			User:     dbUser,
			Password: dbPassword,
			DBName:   dbName,
			SSLMode:  dbSSLMode,
		},
	}, nil
}

func intEnv(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}
