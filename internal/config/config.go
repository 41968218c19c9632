package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Payment  PaymentConfig
	Pricing  PricingConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

// PaymentConfig carries the gateway credentials. MerchantID, MerchantKey and
// MerchantSalt are deployment secrets; a missing value is a configuration
// error surfaced at checkout time, never silently defaulted.
type PaymentConfig struct {
	MerchantID   string
	MerchantKey  string
	MerchantSalt string
	Endpoint     string
	OKURL        string
	FailURL      string
	TestMode     bool
}

// PricingConfig holds the display-path fallback rates. The checkout path
// never consults them.
type PricingConfig struct {
	FallbackUSD float64
	FallbackEUR float64
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("PAYMENT_ENDPOINT", "https://www.paytr.com/odeme/api/get-token")
	viper.SetDefault("PAYMENT_TEST_MODE", true)
	viper.SetDefault("PRICING_FALLBACK_USD", 30.0)
	viper.SetDefault("PRICING_FALLBACK_EUR", 33.0)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
		},
		Payment: PaymentConfig{
			MerchantID:   viper.GetString("PAYMENT_MERCHANT_ID"),
			MerchantKey:  viper.GetString("PAYMENT_MERCHANT_KEY"),
			MerchantSalt: viper.GetString("PAYMENT_MERCHANT_SALT"),
			Endpoint:     viper.GetString("PAYMENT_ENDPOINT"),
			OKURL:        viper.GetString("PAYMENT_OK_URL"),
			FailURL:      viper.GetString("PAYMENT_FAIL_URL"),
			TestMode:     viper.GetBool("PAYMENT_TEST_MODE"),
		},
		Pricing: PricingConfig{
			FallbackUSD: viper.GetFloat64("PRICING_FALLBACK_USD"),
			FallbackEUR: viper.GetFloat64("PRICING_FALLBACK_EUR"),
		},
	}
}
