package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPreferenceCapacity is the number of category preferences kept per buyer.
const DefaultPreferenceCapacity = 15

var ErrMissingDBHost = errors.New("environment variables not loaded properly: DB_HOST is empty")

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string
	AppPort    string
	AppEnv     string
	JWTSecret  string

	PreferenceCapacity int
	ExploreLimit       int

	KafkaBrokers    []string
	KafkaOrderTopic string

	CORSOrigin         string
	InternalServiceKey string
}

// fileConfig holds the tunables that may also come from CONFIG_FILE.
type fileConfig struct {
	Preference struct {
		Capacity int `yaml:"capacity"`
	} `yaml:"preference"`
	Explore struct {
		Limit int `yaml:"limit"`
	} `yaml:"explore"`
	Kafka struct {
		Brokers    []string `yaml:"brokers"`
		OrderTopic string   `yaml:"order_topic"`
	} `yaml:"kafka"`
	CORS struct {
		Origin string `yaml:"origin"`
	} `yaml:"cors"`
}

// LoadConfig reads .env (when present), an optional YAML file named by
// CONFIG_FILE, then the process environment. Environment values win.
func LoadConfig(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		AppPort:    getEnv("APP_PORT", "8080"),
		AppEnv:     os.Getenv("APP_ENV"),
		JWTSecret:  os.Getenv("JWT_SECRET"),

		InternalServiceKey: os.Getenv("INTERNAL_SERVICE_KEY"),

		PreferenceCapacity: DefaultPreferenceCapacity,
		ExploreLimit:       20,
		KafkaOrderTopic:    "cartify.orders",
		CORSOrigin:         "http://localhost:3000",
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("PREFERENCE_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PREFERENCE_CAPACITY %q: %w", v, err)
		}
		cfg.PreferenceCapacity = n
	}
	if v := os.Getenv("EXPLORE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid EXPLORE_LIMIT %q: %w", v, err)
		}
		cfg.ExploreLimit = n
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = splitList(v)
	}
	if v := os.Getenv("KAFKA_ORDER_TOPIC"); v != "" {
		cfg.KafkaOrderTopic = v
	}
	if v := os.Getenv("CORS_ORIGIN"); v != "" {
		cfg.CORSOrigin = v
	}

	if cfg.PreferenceCapacity < 1 {
		cfg.PreferenceCapacity = DefaultPreferenceCapacity
	}

	if cfg.DBHost == "" {
		return nil, ErrMissingDBHost
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.Preference.Capacity != 0 {
		c.PreferenceCapacity = fc.Preference.Capacity
	}
	if fc.Explore.Limit != 0 {
		c.ExploreLimit = fc.Explore.Limit
	}
	if len(fc.Kafka.Brokers) > 0 {
		c.KafkaBrokers = fc.Kafka.Brokers
	}
	if fc.Kafka.OrderTopic != "" {
		c.KafkaOrderTopic = fc.Kafka.OrderTopic
	}
	if fc.CORS.Origin != "" {
		c.CORSOrigin = fc.CORS.Origin
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
