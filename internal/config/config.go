package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	BackendMemory      = "memory"
	BackendRedis       = "redis"
	BackendMySQL       = "mysql"
	BackendMySQLCached = "mysql+redis"
)

type Config struct {
	Env             string        `mapstructure:"env"`
	Port            string        `mapstructure:"port"`
	LogLevel        string        `mapstructure:"log_level"`
	StoreBackend    string        `mapstructure:"store_backend"`
	RedisHost       string        `mapstructure:"redis_host"`
	RedisPort       string        `mapstructure:"redis_port"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	RoomTTL         time.Duration `mapstructure:"room_ttl"`
	MySQLHost       string        `mapstructure:"mysql_host"`
	MySQLPort       string        `mapstructure:"mysql_port"`
	MySQLUser       string        `mapstructure:"mysql_user"`
	MySQLPassword   string        `mapstructure:"mysql_password"`
	MySQLDatabase   string        `mapstructure:"mysql_database"`
	KafkaBrokers    string        `mapstructure:"kafka_brokers"`
	KafkaTopic      string        `mapstructure:"kafka_topic"`
	KafkaGroupID    string        `mapstructure:"kafka_group_id"`
	CORSOrigins     string        `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

var defaults = map[string]interface{}{
	"env":              "development",
	"port":             "8080",
	"log_level":        "info",
	"store_backend":    BackendMemory,
	"redis_host":       "127.0.0.1",
	"redis_port":       "6379",
	"redis_password":   "",
	"redis_db":         0,
	"room_ttl":         "24h",
	"mysql_host":       "127.0.0.1",
	"mysql_port":       "3306",
	"mysql_user":       "",
	"mysql_password":   "",
	"mysql_database":   "listening_room",
	"kafka_brokers":    "",
	"kafka_topic":      "room-activity",
	"kafka_group_id":   "room-events",
	"cors_origins":     "http://localhost:5173",
	"shutdown_timeout": "5s",
}

// Load reads .env (if present) and then the process environment. Keys are
// the upper-cased field names, e.g. STORE_BACKEND.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug(".env file not found, using environment only")
	}

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendRedis:
	case BackendMySQL, BackendMySQLCached:
		if c.MySQLUser == "" {
			return fmt.Errorf("MYSQL_USER must be set for store backend %q", c.StoreBackend)
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
	if c.RoomTTL < 0 {
		return fmt.Errorf("ROOM_TTL must not be negative")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func (c *Config) Brokers() []string {
	return splitList(c.KafkaBrokers)
}

func (c *Config) AllowedOrigins() []string {
	return splitList(c.CORSOrigins)
}

// NewLogger builds the process logger: JSON in production, text otherwise.
// An unparsable level falls back to info.
func (c *Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	if c.IsProduction() {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", c.LogLevel)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
