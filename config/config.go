package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port string
	}
	Database struct {
		DSN string // Data Source Name (e.g., "memory" or file path for SQLite)
	}
	App struct {
		MaxQuestionnaireLength int      `mapstructure:"max_questionnaire_length"` // Upper bound on questions per submission
		MaxAnswerLength        int      `mapstructure:"max_answer_length"`        // Upper bound on text answer length
		RateLimitWindow        int      `mapstructure:"rate_limit_window_seconds"`
		RateLimitMaxRequests   int      `mapstructure:"rate_limit_max_requests"`
		CORSOrigins            []string `mapstructure:"cors_origins"`
	} `mapstructure:"app"`
}

// AppConfig is the global configuration instance.
var AppConfig Config

// RateLimitWindowDuration returns the transport rate-limit window as a duration.
func (c *Config) RateLimitWindowDuration() time.Duration {
	return time.Duration(c.App.RateLimitWindow) * time.Second
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig() {
	viper.SetConfigName("config")    // Name of config file (without extension)
	viper.SetConfigType("yaml")      // REQUIRED if the config file does not have the extension in the name
	viper.AddConfigPath("./config")  // Path to look for the config file in
	viper.AddConfigPath(".")         // Optionally look for config in the working directory
	viper.AddConfigPath("../config") // For running from locations like tests

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("database.dsn", "easyform.db")
	viper.SetDefault("app.max_questionnaire_length", 50)
	viper.SetDefault("app.max_answer_length", 1000)
	viper.SetDefault("app.rate_limit_window_seconds", 900) // 15 minutes
	viper.SetDefault("app.rate_limit_max_requests", 100)
	viper.SetDefault("app.cors_origins", []string{"*"})

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("WARN: [Config] Configuration file (config.yaml) not found. Using environment variables and defaults.")
		} else {
			log.Fatalf("FATAL: [Config] Error reading configuration file: %v", err)
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("FATAL: [Config] Failed to unmarshal configuration into AppConfig struct: %v", err)
	}

	// Environment variable overrides
	if port := os.Getenv("SERVER_PORT"); port != "" {
		AppConfig.Server.Port = port
		log.Printf("INFO: [Config] Server port overridden by environment variable SERVER_PORT: %s", port)
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		AppConfig.Database.DSN = dsn
		log.Printf("INFO: [Config] Database DSN overridden by environment variable DATABASE_DSN.")
	}
	overrideInt("MAX_QUESTIONNAIRE_LENGTH", &AppConfig.App.MaxQuestionnaireLength)
	overrideInt("MAX_ANSWER_LENGTH", &AppConfig.App.MaxAnswerLength)
	overrideInt("RATE_LIMIT_WINDOW_SECONDS", &AppConfig.App.RateLimitWindow)
	overrideInt("RATE_LIMIT_MAX_REQUESTS", &AppConfig.App.RateLimitMaxRequests)
	if origins := os.Getenv("CORS_ORIGIN"); origins != "" {
		AppConfig.App.CORSOrigins = parseOrigins(origins)
		log.Printf("INFO: [Config] CORS origins overridden by environment variable CORS_ORIGIN: %v", AppConfig.App.CORSOrigins)
	}

	if AppConfig.App.MaxQuestionnaireLength <= 0 {
		log.Printf("WARN: [Config] max_questionnaire_length %d is not positive, falling back to 50.", AppConfig.App.MaxQuestionnaireLength)
		AppConfig.App.MaxQuestionnaireLength = 50
	}
	if AppConfig.App.MaxAnswerLength <= 0 {
		log.Printf("WARN: [Config] max_answer_length %d is not positive, falling back to 1000.", AppConfig.App.MaxAnswerLength)
		AppConfig.App.MaxAnswerLength = 1000
	}

	log.Println("INFO: [Config] Configuration loading complete.")
}

// overrideInt applies an integer environment override if the variable is set
// and parseable; otherwise the configured value stands.
func overrideInt(envVar string, target *int) {
	raw := os.Getenv(envVar)
	if raw == "" {
		return
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("WARN: [Config] Environment variable %s='%s' is not an integer, ignoring override.", envVar, raw)
		return
	}
	*target = parsed
	log.Printf("INFO: [Config] %s overridden by environment variable: %d", envVar, parsed)
}

// parseOrigins splits a comma-separated CORS origin list. "*" stays as a
// single wildcard entry.
func parseOrigins(origins string) []string {
	if origins == "*" {
		return []string{"*"}
	}
	parts := strings.Split(origins, ",")
	parsed := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parsed = append(parsed, trimmed)
		}
	}
	if len(parsed) == 0 {
		return []string{"*"}
	}
	return parsed
}
