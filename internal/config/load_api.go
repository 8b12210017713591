package config

import (
	"fmt"
	"log/slog"
	"time"
)

const (
	BackendFile  = "file"
	BackendMongo = "mongo"

	defaultQueue = "clientes_log"
)

type Config struct {
	Port          string
	CORSOrigins   []string
	StoreBackend  string // file | mongo
	StorePath     string
	SkipMalformed bool

	MongoURI    string
	MongoDB     string
	RabbitURI   string // vazio desliga os eventos
	RabbitQueue string

	Users      map[string]string
	JWTSecret  string
	SessionTTL time.Duration

	LogLevel          slog.Level
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

func Load() *Config {
	return &Config{
		Port:          getenvAny("8080", "PORT", "API_PORT"),
		CORSOrigins:   splitList(getenv("CORS_ORIGINS", "")),
		StoreBackend:  getenv("STORE_BACKEND", BackendFile),
		StorePath:     getenv("STORE_PATH", "clientes.csv"),
		SkipMalformed: parseBool("SKIP_MALFORMED", true),

		MongoURI:    getenvAny("mongodb://localhost:27017", "MONGO_URI"),
		MongoDB:     getenv("MONGO_DB", "clientesdb"),
		RabbitURI:   getenvAny("", "RABBIT_URI", "RABBITMQ_URL"),
		RabbitQueue: getenvAny(defaultQueue, "RABBIT_QUEUE", "RABBITMQ_QUEUE"),

		Users:      ParseUsers(getenv("AUTH_USERS", "")),
		JWTSecret:  getenv("JWT_SECRET", ""),
		SessionTTL: parseDuration("SESSION_TTL", 8*time.Hour),

		LogLevel:          parseLevel(getenv("LOG_LEVEL", "info")),
		ReadHeaderTimeout: parseDuration("READ_HEADER_TIMEOUT", 5*time.Second),
		ShutdownTimeout:   parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendFile:
		if c.StorePath == "" {
			return fmt.Errorf("config: STORE_PATH is empty")
		}
	case BackendMongo:
		if c.MongoURI == "" || c.MongoDB == "" {
			return fmt.Errorf("config: MONGO_URI and MONGO_DB are required for the mongo backend")
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if len(c.Users) > 0 && c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required when AUTH_USERS is set")
	}
	return nil
}
