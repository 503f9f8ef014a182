// Package config loads service configuration from the environment and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// DefaultMaxUploadBytes matches the 4 MiB limit the claim page enforces.
const DefaultMaxUploadBytes int64 = 4 * 1024 * 1024

// Config holds the configuration values for the service.
type Config struct {
	Port            string
	MongoURI        string
	MongoDB         string
	MongoTimeout    time.Duration
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration

	JWTSecret string // empty disables the bearer guard

	MQTTBroker   string // empty disables payment notifications
	MQTTClientID string
	MQTTTopic    string

	LogLevel  string
	LogFormat string
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (Config, error) {
	mongoTimeout, err := duration("MONGO_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	shutdownTimeout, err := duration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	maxUpload := DefaultMaxUploadBytes
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid MAX_UPLOAD_BYTES %q", v)
		}
		maxUpload = n
	}

	return Config{
		Port:            get("PORT", "8080"),
		MongoURI:        get("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         get("MONGO_DB", "claims"),
		MongoTimeout:    mongoTimeout,
		MaxUploadBytes:  maxUpload,
		ShutdownTimeout: shutdownTimeout,
		JWTSecret:       os.Getenv("JWT_SECRET"),
		MQTTBroker:      os.Getenv("MQTT_BROKER"),
		MQTTClientID:    get("MQTT_CLIENT_ID", "claims-portal"),
		MQTTTopic:       get("MQTT_TOPIC", "claims/payments"),
		LogLevel:        get("LOG_LEVEL", "info"),
		LogFormat:       get("LOG_FORMAT", "text"),
	}, nil
}

// ConfigureLogging applies the level and formatter to the standard logrus logger.
func (c Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithField("level", c.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func duration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", k, v, err)
	}
	return d, nil
}
