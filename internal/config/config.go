package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL string `mapstructure:"database_url"`
	RedisURL    string `mapstructure:"redis_url"`
	Port        string `mapstructure:"port"`
	PublicURL   string `mapstructure:"public_url"`

	// Identity provider
	JWTSecret string `mapstructure:"jwt_secret"`

	// Push notifications
	FirebaseCredentialsFile string `mapstructure:"firebase_credentials_file"`
	PushPublicKey           string `mapstructure:"push_public_key"`
	PushPrivateKey          string `mapstructure:"push_private_key"`

	// Concurrency limits
	StoreMaxConcurrent int `mapstructure:"store_max_concurrent"`

	// External integrations
	Integrations IntegrationsConfig `mapstructure:"integrations"`
}

// IntegrationsConfig carries per-provider secrets. Secrets are only
// ever reported as configured or not; the values themselves stay
// server side.
type IntegrationsConfig struct {
	ChatWebhookURL   string `mapstructure:"chat_webhook_url"`
	AccountingAPIKey string `mapstructure:"accounting_api_key"`
	WeatherAPIKey    string `mapstructure:"weather_api_key"`
	LLMAPIKey        string `mapstructure:"llm_api_key"`
}

// App holds the global config instance
var App Config

// LoadConfig loads configuration from file and environment variables
func LoadConfig(path string) error {
	// Auto-load .env file if present so 'go run' works without
	// manually exporting env vars. Missing .env is fine.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file")
	}

	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("store_max_concurrent", 64)
	v.SetDefault("firebase_credentials_file", "firebase-service-account-key.json")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.SetConfigName("dev.config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("steelbuild")

	// Bind standard environment variables (Docker/deploy compatibility)
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("redis_url", "REDIS_URL")
	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("public_url", "PUBLIC_URL")

	_ = v.BindEnv("jwt_secret", "JWT_SECRET")

	_ = v.BindEnv("firebase_credentials_file", "GOOGLE_APPLICATION_CREDENTIALS")
	_ = v.BindEnv("push_public_key", "PUSH_PUBLIC_KEY")
	_ = v.BindEnv("push_private_key", "PUSH_PRIVATE_KEY")

	_ = v.BindEnv("integrations.chat_webhook_url", "CHAT_WEBHOOK_URL")
	_ = v.BindEnv("integrations.accounting_api_key", "ACCOUNTING_API_KEY")
	_ = v.BindEnv("integrations.weather_api_key", "WEATHER_API_KEY")
	_ = v.BindEnv("integrations.llm_api_key", "LLM_API_KEY")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and environment variables")
		} else {
			return err
		}
	} else {
		log.Printf("Loaded config from: %s", v.ConfigFileUsed())
	}

	if err := v.Unmarshal(&App); err != nil {
		return err
	}

	// Backfill environment variables for code that still reads os.Getenv.
	setEnvIfEmpty("DATABASE_URL", App.DatabaseURL)
	setEnvIfEmpty("REDIS_URL", App.RedisURL)
	setEnvIfEmpty("PORT", App.Port)
	setEnvIfEmpty("JWT_SECRET", App.JWTSecret)
	setEnvIfEmpty("GOOGLE_APPLICATION_CREDENTIALS", App.FirebaseCredentialsFile)

	return nil
}

func setEnvIfEmpty(key, value string) {
	if value != "" && os.Getenv(key) == "" {
		os.Setenv(key, value)
	}
}
