package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flexisub/flexisub/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Auth       AuthConfig       `validate:"required"`
	Cron       CronConfig
	PubSub     PubSubConfig `validate:"required"`
	Kafka      KafkaConfig
	Cache      CacheConfig
	Sentry     SentryConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host                   string
	Port                   int
	User                   string
	Password               string
	DBName                 string
	SSLMode                string
	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeMinutes int
}

type AuthConfig struct {
	// Secret is the HS256 key used to verify bearer tokens issued by the identity service
	Secret string `validate:"required"`
}

type CronConfig struct {
	// APIKey guards the scheduler endpoints; empty disables them
	APIKey string
	Header string
}

type PubSubConfig struct {
	Driver types.PubSubDriver `validate:"required,oneof=memory kafka"`
	Topic  string             `validate:"required"`

	// AuditLog subscribes to the lifecycle topic and logs every event
	AuditLog        bool
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	ClientID      string
	ConsumerGroup string
	TLS           bool
	UseSASL       bool
	SASLMechanism string
	SASLUser      string
	SASLPassword  string
}

type CacheConfig struct {
	Enabled bool
	PlanTTL time.Duration
}

type SentryConfig struct {
	Enabled     bool
	DSN         string
	Environment string
	SampleRate  float64
}

func NewConfig() (*Configuration, error) {
	// .env is optional and only used for local development
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/flexisub")

	v.SetEnvPrefix("FLEXISUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.maxopenconns", 10)
	v.SetDefault("postgres.maxidleconns", 5)
	v.SetDefault("postgres.connmaxlifetimeminutes", 30)
	v.SetDefault("cron.header", "x-cron-key")
	v.SetDefault("pubsub.driver", types.PubSubMemory)
	v.SetDefault("pubsub.topic", "subscription_lifecycle")
	v.SetDefault("pubsub.auditlog", true)
	v.SetDefault("pubsub.maxretries", 3)
	v.SetDefault("pubsub.initialinterval", time.Second)
	v.SetDefault("pubsub.maxinterval", 10*time.Second)
	v.SetDefault("kafka.clientid", "flexisub")
	v.SetDefault("kafka.consumergroup", "flexisub-audit")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.planttl", 10*time.Minute)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.PubSub.Driver == types.PubSubKafka && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka brokers are required when pubsub driver is kafka")
	}
	return nil
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or tests
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Auth:       AuthConfig{Secret: "local-development-secret"},
		Cron:       CronConfig{Header: "x-cron-key"},
		PubSub: PubSubConfig{
			Driver:          types.PubSubMemory,
			Topic:           "subscription_lifecycle",
			MaxRetries:      3,
			InitialInterval: time.Second,
			MaxInterval:     10 * time.Second,
		},
		Cache: CacheConfig{Enabled: true, PlanTTL: 10 * time.Minute},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
