package config

import (
	"testing"

	"github.com/flexisub/flexisub/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := GetDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, types.PubSubMemory, cfg.PubSub.Driver)
}

func TestValidateRejectsKafkaWithoutBrokers(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.PubSub.Driver = types.PubSubKafka
	assert.Error(t, cfg.Validate())

	cfg.Kafka.Brokers = []string{"localhost:9092"}
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsMissingAuthSecret(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Auth.Secret = ""
	assert.Error(t, cfg.Validate())
}

func TestGetDSN(t *testing.T) {
	pg := PostgresConfig{
		Host:     "db",
		Port:     5432,
		User:     "u",
		Password: "p",
		DBName:   "subs",
		SSLMode:  "disable",
	}
	assert.Equal(t, "user=u password=p dbname=subs host=db port=5432 sslmode=disable", pg.GetDSN())
}
