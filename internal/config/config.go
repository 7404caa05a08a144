package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"UEvents/internal/pkg"
)

type Config struct {
	HTTP       HTTPConfig
	MySQL      MySQLConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	JWT        pkg.JWTConfig
	Log        pkg.LogConfig
	Pagination PaginationConfig
	Outbox     OutboxConfig
}

type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Mode            string
	CORSOrigins     []string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CountTTL time.Duration
}

type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

type PaginationConfig struct {
	DefaultSize int
	DaySize     int
	MaxSize     int
	OwnerMax    int
	SearchScan  int
}

type OutboxConfig struct {
	BatchSize int
	Interval  time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":4000")
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.mode", "release")
	v.SetDefault("http.cors_origins", []string{"*"})

	v.SetDefault("mysql.dsn", "user:password@tcp(127.0.0.1:3306)/uevents?charset=utf8mb4&parseTime=True&loc=UTC")
	v.SetDefault("mysql.max_open_conns", 20)
	v.SetDefault("mysql.max_idle_conns", 5)
	v.SetDefault("mysql.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("mysql.auto_migrate", true)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.count_ttl", 10*time.Minute)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"127.0.0.1:9092"})
	v.SetDefault("kafka.topic", "uevents.events")
	v.SetDefault("kafka.write_timeout", 5*time.Second)

	v.SetDefault("jwt.access_secret", "dev-secret")
	v.SetDefault("jwt.refresh_secret", "dev-refresh-secret")
	v.SetDefault("jwt.access_ttl", 30*time.Minute)
	v.SetDefault("jwt.refresh_ttl", 7*24*time.Hour)
	v.SetDefault("jwt.issuer", "uevents-api")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.encoding", "json")

	v.SetDefault("pagination.default_size", 20)
	v.SetDefault("pagination.day_size", 50)
	v.SetDefault("pagination.max_size", 100)
	v.SetDefault("pagination.owner_max", 200)
	v.SetDefault("pagination.search_scan", 1000)

	v.SetDefault("outbox.batch_size", 200)
	v.SetDefault("outbox.interval", time.Second)
}

// Load reads config.yaml from path (optional) and UEVENTS_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("UEVENTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat config: %w", err)
		}
	}

	cfg := &Config{
		HTTP: HTTPConfig{
			Addr:            v.GetString("http.addr"),
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			Mode:            v.GetString("http.mode"),
			CORSOrigins:     v.GetStringSlice("http.cors_origins"),
		},
		MySQL: MySQLConfig{
			DSN:             v.GetString("mysql.dsn"),
			MaxOpenConns:    v.GetInt("mysql.max_open_conns"),
			MaxIdleConns:    v.GetInt("mysql.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("mysql.conn_max_lifetime"),
			AutoMigrate:     v.GetBool("mysql.auto_migrate"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			CountTTL: v.GetDuration("redis.count_ttl"),
		},
		Kafka: KafkaConfig{
			Enabled:      v.GetBool("kafka.enabled"),
			Brokers:      v.GetStringSlice("kafka.brokers"),
			Topic:        v.GetString("kafka.topic"),
			WriteTimeout: v.GetDuration("kafka.write_timeout"),
		},
		JWT: pkg.JWTConfig{
			AccessSecret:  v.GetString("jwt.access_secret"),
			RefreshSecret: v.GetString("jwt.refresh_secret"),
			AccessTTL:     v.GetDuration("jwt.access_ttl"),
			RefreshTTL:    v.GetDuration("jwt.refresh_ttl"),
			Issuer:        v.GetString("jwt.issuer"),
		},
		Log: pkg.LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
			Encoding:    v.GetString("log.encoding"),
		},
		Pagination: PaginationConfig{
			DefaultSize: v.GetInt("pagination.default_size"),
			DaySize:     v.GetInt("pagination.day_size"),
			MaxSize:     v.GetInt("pagination.max_size"),
			OwnerMax:    v.GetInt("pagination.owner_max"),
			SearchScan:  v.GetInt("pagination.search_scan"),
		},
		Outbox: OutboxConfig{
			BatchSize: v.GetInt("outbox.batch_size"),
			Interval:  v.GetDuration("outbox.interval"),
		},
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		return errors.New("jwt secrets must not be empty")
	}
	if c.Pagination.MaxSize < 1 || c.Pagination.DefaultSize < 1 {
		return errors.New("pagination sizes must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka enabled without brokers")
	}
	return nil
}
