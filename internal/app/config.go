package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (ORDER_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:3001" usage:"HTTP listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (ORDER_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Kafka       KafkaConfig
	Redis       RedisConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// KafkaConfig controls the order event publisher. An empty broker list
// disables publishing (a no-op publisher is wired instead).
type KafkaConfig struct {
	Brokers []string `usage:"Kafka broker addresses (ORDER_KAFKA_BROKERS or KAFKA_BROKER)"`
	Topic   string   `default:"order-created" usage:"Topic for order created events"`
}

// RedisConfig controls the optional order read cache. An empty address
// disables caching.
type RedisConfig struct {
	Addr string        `usage:"Redis address for the order cache; empty disables caching"`
	TTL  time.Duration `default:"5m" usage:"Order cache entry TTL"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "ORDER",
		Files:     []string{"config.yaml", "/etc/order-service/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set ORDER_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps the environment variable names used by the rest
// of the NovaShop stack (DATABASE_URL, PORT, KAFKA_BROKER) to the
// ORDER_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if len(c.Kafka.Brokers) == 0 {
		if v := os.Getenv("KAFKA_BROKER"); v != "" {
			c.Kafka.Brokers = []string{v}
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:3001" {
		c.Addr = "0.0.0.0:" + port
	}
}
