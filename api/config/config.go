package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds the global application configuration
var AppConfig *Config

// Config holds the application configuration
type Config struct {
	DatabaseURL         string
	StripeWebhookSecret string
	CardDecryptionKey   string
	// Kafka settings for the payment event bus
	KafkaBrokers       string
	PaymentEventsTopic string
	KafkaGroupID       string
	// Server port for the webhook binary
	HTTPPort string
}

// Brokers returns the configured Kafka brokers as a slice.
func (c *Config) Brokers() []string {
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{}

	// Try to load .env file from current directory and parent directories
	currentDir, _ := os.Getwd()
	for currentDir != "/" {
		// Check if .env file exists in current directory
		envPath := filepath.Join(currentDir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// Load .env file
			err = godotenv.Load(envPath)
			if err != nil {
				return nil, fmt.Errorf("failed to load .env file: %v", err)
			}
			break
		}
		// Move up one directory
		currentDir = filepath.Dir(currentDir)
	}

	// Get required environment variables
	requiredVars := []struct {
		name     string
		envVar   string
		display  string
		required bool
	}{
		{"DatabaseURL", "DATABASE_URL", "Database URL", true},
		{"KafkaBrokers", "KAFKA_BROKERS", "Kafka Brokers", true},
		{"CardDecryptionKey", "CARD_DECRYPTION_KEY", "Card Decryption Key", true},
		// Optional: only the webhook binary needs the signing secret
		{"StripeWebhookSecret", "STRIPE_WEBHOOK_SECRET", "Stripe Webhook Secret", false},
		{"PaymentEventsTopic", "PAYMENT_EVENTS_TOPIC", "Payment Events Topic", false},
		{"KafkaGroupID", "KAFKA_GROUP_ID", "Kafka Group ID", false},
		{"HTTPPort", "PORT", "HTTP Port", false},
	}

	for _, v := range requiredVars {
		value := os.Getenv(v.envVar)
		if v.required && value == "" {
			return nil, fmt.Errorf("missing required environment variable: %s", v.display)
		}
		configField := reflect.ValueOf(config).Elem().FieldByName(v.name)
		configField.SetString(value)
	}

	// Defaults
	if config.PaymentEventsTopic == "" {
		config.PaymentEventsTopic = "payment-events"
	}
	if config.KafkaGroupID == "" {
		config.KafkaGroupID = "stripe-payment-saga"
	}
	if config.HTTPPort == "" {
		config.HTTPPort = "8080"
	}

	return config, nil
}
