package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Supported password hashing algorithms.
const (
	PasswordArgon2id = "argon2id"
	PasswordBcrypt   = "bcrypt"
)

// Supported WebSocket ticket store backends.
const (
	TicketBackendMemory = "memory"
	TicketBackendRedis  = "redis"
)

// Config is the root configuration structure for ProjectHub.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Database  DatabaseConfig  `yaml:"database"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Tickets   TicketsConfig   `yaml:"tickets"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
}

// ServiceConfig identifies this deployment.
type ServiceConfig struct {
	Name string `yaml:"name"`
}

// DatabaseConfig selects and configures the account and project store.
type DatabaseConfig struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string `yaml:"driver"`

	// SQLite settings.
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// PostgreSQL settings.
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// TicketsConfig selects where single-use WebSocket tickets are kept.
type TicketsConfig struct {
	Backend string      `yaml:"backend"`
	TTL     int         `yaml:"ttl"` // seconds
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
	TopicPrefix string              `yaml:"topic_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	JWT       JWTConfig       `yaml:"jwt"`
	Password  PasswordConfig  `yaml:"password"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
}

// JWTConfig contains session token settings.
type JWTConfig struct {
	Secret string `yaml:"secret"`
	// TokenTTL is the session token lifetime in minutes.
	TokenTTL int `yaml:"token_ttl"`
}

// PasswordConfig tunes the secret hasher.
type PasswordConfig struct {
	// Algorithm used for new digests: "argon2id" or "bcrypt".
	// Both formats are always accepted on verify.
	Algorithm string       `yaml:"algorithm"`
	Argon2    Argon2Config `yaml:"argon2"`
	// BcryptCost is the bcrypt work factor (4-31).
	BcryptCost int `yaml:"bcrypt_cost"`
}

// Argon2Config holds Argon2id parameters.
type Argon2Config struct {
	Time      uint32 `yaml:"time"`
	MemoryKiB uint32 `yaml:"memory_kib"`
	Threads   uint8  `yaml:"threads"`
	KeyLength uint32 `yaml:"key_length"`
	SaltLen   uint32 `yaml:"salt_length"`
}

// BootstrapConfig seeds the first ELEVATED account on an empty store.
type BootstrapConfig struct {
	Email      string `yaml:"email"`
	Secret     string `yaml:"secret"`
	GivenName  string `yaml:"given_name"`
	FamilyName string `yaml:"family_name"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. A .env file next to the working directory, if present (never overrides
//     variables already set in the process environment)
//  3. YAML file values (override defaults)
//  4. Environment variables (override file values)
//
// Environment variables follow the pattern: PROJECTHUB_SECTION_KEY
// For example: PROJECTHUB_DATABASE_PATH, PROJECTHUB_API_PORT
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name: "projecthub",
		},
		Database: DatabaseConfig{
			Driver:       DriverSQLite,
			Path:         "./data/projecthub.db",
			WALMode:      true,
			BusyTimeout:  5,
			MaxOpenConns: 10,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 5000,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Tickets: TicketsConfig{
			Backend: TicketBackendMemory,
			TTL:     60,
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "projecthub:ws-ticket:",
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "projecthub",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			TopicPrefix: "projecthub",
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				TokenTTL: 24 * 60,
			},
			Password: PasswordConfig{
				Algorithm: PasswordArgon2id,
				Argon2: Argon2Config{
					Time:      3,
					MemoryKiB: 64 * 1024,
					Threads:   1,
					KeyLength: 32,
					SaltLen:   16,
				},
				BcryptCost: 10,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: PROJECTHUB_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	// Database
	if v := os.Getenv("PROJECTHUB_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("PROJECTHUB_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PROJECTHUB_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	// API. PORT is honoured for platform deployments; the prefixed form wins.
	for _, key := range []string{"PORT", "PROJECTHUB_API_PORT"} {
		if v := os.Getenv(key); v != "" {
			port, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", key, err)
			}
			cfg.API.Port = port
		}
	}
	if v := os.Getenv("PROJECTHUB_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// MQTT
	if v := os.Getenv("PROJECTHUB_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("PROJECTHUB_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("PROJECTHUB_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("PROJECTHUB_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Tickets
	if v := os.Getenv("PROJECTHUB_REDIS_ADDR"); v != "" {
		cfg.Tickets.Redis.Addr = v
	}
	if v := os.Getenv("PROJECTHUB_REDIS_PASSWORD"); v != "" {
		cfg.Tickets.Redis.Password = v
	}

	// Security - JWT secret (IMPORTANT: always override in production)
	if v := os.Getenv("PROJECTHUB_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
	if v := os.Getenv("PROJECTHUB_BOOTSTRAP_EMAIL"); v != "" {
		cfg.Security.Bootstrap.Email = v
	}
	if v := os.Getenv("PROJECTHUB_BOOTSTRAP_SECRET"); v != "" {
		cfg.Security.Bootstrap.Secret = v
	}

	return nil
}

// Validate checks the configuration for errors and security issues.
func (c *Config) Validate() error {
	var errs []string

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, "database.dsn is required for the postgres driver (set PROJECTHUB_DATABASE_DSN)")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.driver must be %q or %q", DriverSQLite, DriverPostgres))
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	switch c.Tickets.Backend {
	case TicketBackendMemory, TicketBackendRedis:
	default:
		errs = append(errs, fmt.Sprintf("tickets.backend must be %q or %q", TicketBackendMemory, TicketBackendRedis))
	}
	if c.Tickets.TTL <= 0 {
		errs = append(errs, "tickets.ttl must be positive")
	}

	const minJWTSecretLength = 32
	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set PROJECTHUB_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters for adequate security")
	}
	if c.Security.JWT.TokenTTL <= 0 {
		errs = append(errs, "security.jwt.token_ttl must be positive")
	}

	pw := c.Security.Password
	switch pw.Algorithm {
	case PasswordArgon2id:
		if pw.Argon2.Time == 0 || pw.Argon2.MemoryKiB == 0 || pw.Argon2.Threads == 0 {
			errs = append(errs, "security.password.argon2 time, memory_kib and threads must be positive")
		}
	case PasswordBcrypt:
		if pw.BcryptCost < 4 || pw.BcryptCost > 31 {
			errs = append(errs, "security.password.bcrypt_cost must be between 4 and 31")
		}
	default:
		errs = append(errs, fmt.Sprintf("security.password.algorithm must be %q or %q", PasswordArgon2id, PasswordBcrypt))
	}

	if (c.Security.Bootstrap.Email == "") != (c.Security.Bootstrap.Secret == "") {
		errs = append(errs, "security.bootstrap.email and security.bootstrap.secret must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetTokenTTL returns the session token lifetime.
func (c *Config) GetTokenTTL() time.Duration {
	return time.Duration(c.Security.JWT.TokenTTL) * time.Minute
}

// GetTicketTTL returns the WebSocket ticket lifetime.
func (c *Config) GetTicketTTL() time.Duration {
	return time.Duration(c.Tickets.TTL) * time.Second
}
