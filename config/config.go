package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Mapstructure tags are used to map environment variables and config file keys.
type Config struct {
	// Server Configuration
	ServerAddress string `mapstructure:"SERVER_ADDRESS"` // e.g., ":8080"
	AppEnv        string `mapstructure:"APP_ENV"`        // "development" or "production"

	// AI Configuration
	OpenAIKey string `mapstructure:"OPENAI_API_KEY"`  // API key for OpenAI
	ModelID   string `mapstructure:"OPENAI_MODEL_ID"` // e.g., "gpt-4o", "gpt-4o-mini"

	// Project Storage Configuration
	ProjectsRoot string `mapstructure:"PROJECTS_ROOT"` // Root directory for generated project directories
	IndexDBPath  string `mapstructure:"INDEX_DB_PATH"` // SQLite file recording one row per generation

	// Retention Configuration
	RetentionTTLHours  int    `mapstructure:"RETENTION_TTL_HOURS"`      // 0 disables the sweep
	RetentionSweepSpec string `mapstructure:"RETENTION_SWEEP_SCHEDULE"` // cron spec, e.g. "@hourly"
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		// Config file is optional: env vars may carry everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file ('config.yaml') not found in specified path, relying solely on environment variables.")
		} else {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		log.Printf("Using configuration file: %s", viper.ConfigFileUsed())
	}

	if err = viper.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if config.ServerAddress == "" {
		config.ServerAddress = ":8080"
	}
	if config.ModelID == "" {
		config.ModelID = "gpt-4o"
	}
	if config.ProjectsRoot == "" {
		config.ProjectsRoot = "projects"
	}
	if config.IndexDBPath == "" {
		config.IndexDBPath = "projects/index.db"
	}
	if config.RetentionSweepSpec == "" {
		config.RetentionSweepSpec = "@hourly"
	}
	if config.OpenAIKey == "" {
		log.Println("WARN: OPENAI_API_KEY is not set; generation requests will fail upstream.")
	}

	return
}
