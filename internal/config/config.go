package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type HTTPServer struct {
	Host string
	Port string
}

type RedisCache struct {
	Host     string
	Port     string
	Password string
}

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type Store struct {
	Backend string
}

type Broker struct {
	Backend       string
	ChannelPrefix string
}

type Feature struct {
	VoteTTL time.Duration
}

type Log struct {
	Level string
}

type Config struct {
	HTTP     HTTPServer
	Redis    RedisCache
	Postgres Postgres
	Store    Store
	Broker   Broker
	Feature  Feature
	Log      Log
}

const logtag = "[config]"

func Load() *Config {
	configPath := flag.String("config", "", "path env file")
	flag.Parse()

	cfg, err := FromEnv(*configPath)
	if err != nil {
		log.Fatalf("%s %v", logtag, err)
	}
	return cfg
}

// FromEnv reads the process environment, loading envPath first when given.
func FromEnv(envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("err loading env from file : %w", err)
		}
		log.Printf("%s using env from : %s", logtag, envPath)
	} else {
		log.Printf("%s using env from .env", logtag)
		_ = godotenv.Load()
	}

	feature, err := newFeature()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTP:     *newHTTP(),
		Redis:    *newRedis(),
		Postgres: *newPostgres(),
		Store:    *newStore(),
		Broker:   *newBroker(),
		Feature:  *feature,
		Log:      *newLog(),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Printf("%s backend config : %+v\n", logtag, cfg)
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendPostgres:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	switch c.Broker.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unknown BROKER_BACKEND %q", c.Broker.Backend)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func newHTTP() *HTTPServer {
	return &HTTPServer{
		Port: getenv("HTTP_PORT", "8080"),
		Host: getenv("HTTP_HOST", "localhost"),
	}
}

func newRedis() *RedisCache {
	return &RedisCache{
		Port:     getenv("REDIS_PORT", "6379"),
		Host:     getenv("REDIS_HOST", "redis"),
		Password: getenv("REDIS_PASSWORD", "shared"),
	}
}

func newPostgres() *Postgres {
	return &Postgres{
		Host:     getenv("DB_HOST", "localhost"),
		Port:     getenv("DB_PORT", "5432"),
		User:     getenv("DB_USER", "admin"),
		Password: getenv("DB_PASSWORD", "shared"),
		DBName:   getenv("DB_NAME", "pokerboard"),
		SSLMode:  getenv("DB_SSLMODE", "disable"),
	}
}

func newStore() *Store {
	return &Store{
		Backend: getenv("STORE_BACKEND", BackendPostgres),
	}
}

func newBroker() *Broker {
	return &Broker{
		Backend:       getenv("BROKER_BACKEND", BackendRedis),
		ChannelPrefix: getenv("BROKER_CHANNEL_PREFIX", "pokerboard"),
	}
}

func newFeature() (*Feature, error) {
	ttl, err := time.ParseDuration(getenv("FEATURE_VOTE_TTL", "720h"))
	if err != nil {
		return nil, fmt.Errorf("bad FEATURE_VOTE_TTL: %w", err)
	}
	return &Feature{VoteTTL: ttl}, nil
}

func newLog() *Log {
	return &Log{
		Level: getenv("LOG_LEVEL", "info"),
	}
}

func getenv(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		fmt.Printf("%s %s undefined. Using default value %s\n", logtag, key, defaultValue)
		return defaultValue
	}
	fmt.Printf("%s %s = %s\n", logtag, key, val)
	return val
}
