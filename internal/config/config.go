package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Server   ServerConfig
	Mongo    MongoConfig
	Pasarela PasarelaConfig
	Kafka    KafkaConfig
	SES      SESConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type MongoConfig struct {
	URL      string
	Database string
}

type PasarelaConfig struct {
	BaseURL     string
	AccessToken string
	FrontendURL string
	BackendURL  string
	Timeout     time.Duration
}

type KafkaConfig struct {
	Brokers    []string
	Topic      string
	GroupID    string
	Partitions int
	Replicas   int
	Enabled    bool
}

type SESConfig struct {
	Region string
	Sender string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads the configuration from the environment, loading a .env file
// first when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env: getEnv("ENV", "development"),
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Mongo: MongoConfig{
			URL:      getEnv("MONGO_URL", "localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "taquilla"),
		},
		Pasarela: PasarelaConfig{
			BaseURL:     getEnv("MP_BASE_URL", "https://api.mercadopago.com"),
			AccessToken: getEnv("MP_ACCESS_TOKEN", ""),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
			BackendURL:  getEnv("BACKEND_URL", "http://localhost:8080"),
			Timeout:     getEnvAsDuration("MP_TIMEOUT", 10*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    getEnvAsSlice("KAFKA_BROKERS", nil),
			Topic:      getEnv("KAFKA_TOPIC_RESERVAS", "taquilla.reservas"),
			GroupID:    getEnv("KAFKA_GROUP_ID", "notificador"),
			Partitions: getEnvAsInt("KAFKA_TOPIC_PARTITIONS", 1),
			Replicas:   getEnvAsInt("KAFKA_TOPIC_REPLICAS", 1),
		},
		SES: SESConfig{
			Region: getEnv("AWS_REGION", "us-west-2"),
			Sender: getEnv("SENDER_EMAIL", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}
	cfg.Kafka.Enabled = len(cfg.Kafka.Brokers) > 0

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuración inválida: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Mongo.URL == "" {
		return fmt.Errorf("MONGO_URL es obligatorio")
	}
	if c.Env == "production" && c.Pasarela.AccessToken == "" {
		return fmt.Errorf("MP_ACCESS_TOKEN es obligatorio en producción")
	}
	return nil
}

// Development reports whether error detail should be included in responses.
func (c *Config) Development() bool {
	return c.Env != "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
