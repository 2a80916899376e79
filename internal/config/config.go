package config

import (
	"os"
	"strconv"

	"github.com/azizikri/project-eligibility/internal/domain"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Config struct {
	AppPort  string
	LogLevel string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	KafkaBrokers           string
	KafkaClientID          string
	KafkaGroupID           string
	KafkaInstanceID        string
	KafkaTopicPartitions   string
	KafkaDLQPartitions     string
	KafkaReplicationFactor string
	EventDrivenEnabled     string

	MinTransaction string
	MinBalance     string
	ResyncSchedule string
	PreloadEnabled string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	instanceID := os.Getenv("KAFKA_INSTANCE_ID")
	if instanceID == "" {
		hostname, err := os.Hostname()
		if err != nil {
			instanceID = "unknown"
		} else {
			instanceID = hostname
		}
	}

	return &Config{
		AppPort:  getEnv("APP_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "eligibilitydb"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		KafkaBrokers:           getEnv("KAFKA_BROKERS", "kafka:9092"),
		KafkaClientID:          getEnv("KAFKA_CLIENT_ID", "eligibility-service"),
		KafkaGroupID:           getEnv("KAFKA_GROUP_ID", "eligibility-consumers"),
		KafkaInstanceID:        instanceID,
		KafkaTopicPartitions:   getEnv("KAFKA_TOPIC_PARTITIONS", "3"),
		KafkaDLQPartitions:     getEnv("KAFKA_DLQ_PARTITIONS", "1"),
		KafkaReplicationFactor: getEnv("KAFKA_REPLICATION_FACTOR", "1"),
		EventDrivenEnabled:     getEnv("EVENT_DRIVEN_ENABLED", "true"),

		MinTransaction: getEnv("ELIGIBILITY_MIN_TRANSACTION", "50"),
		MinBalance:     getEnv("ELIGIBILITY_MIN_BALANCE", "50"),
		ResyncSchedule: getEnv("RESYNC_SCHEDULE", "@every 5m"),
		PreloadEnabled: getEnv("PRELOAD_SESSIONS", "false"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) TopicPartitions() int {
	return parseInt(c.KafkaTopicPartitions, 3)
}

func (c *Config) DLQPartitions() int {
	return parseInt(c.KafkaDLQPartitions, 1)
}

func (c *Config) ReplicationFactor() int16 {
	value := parseInt(c.KafkaReplicationFactor, 1)
	return int16(value)
}

func (c *Config) EventDriven() bool {
	return parseBool(c.EventDrivenEnabled)
}

func (c *Config) PreloadSessions() bool {
	return parseBool(c.PreloadEnabled)
}

// Level falls back to info for an unknown LOG_LEVEL.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// EligibilityRule builds the rule from the configured thresholds. Values
// that do not parse, or are negative, keep the default.
func (c *Config) EligibilityRule() domain.EligibilityRule {
	rule := domain.DefaultEligibilityRule()
	rule.MinTransaction = parseDecimal(c.MinTransaction, rule.MinTransaction)
	rule.MinBalance = parseDecimal(c.MinBalance, rule.MinBalance)
	return rule
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func parseBool(value string) bool {
	parsed, err := strconv.ParseBool(value)
	return err == nil && parsed
}

func parseDecimal(value string, fallback decimal.Decimal) decimal.Decimal {
	parsed, err := decimal.NewFromString(value)
	if err != nil || parsed.IsNegative() {
		return fallback
	}
	return parsed
}
