package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 10*time.Second, cfg.Checkout.PaymentTimeout)
	assert.False(t, cfg.Checkout.StrictTransitions)
	assert.Equal(t, "orders", cfg.External.Kafka.OrderTopic)
	assert.Empty(t, cfg.External.Kafka.Brokers)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "localhost:6379", cfg.GetRedisAddr())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("PAYMENT_TIMEOUT", "3s")
	t.Setenv("ORDER_STRICT_TRANSITIONS", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("REDIS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 3*time.Second, cfg.Checkout.PaymentTimeout)
	assert.True(t, cfg.Checkout.StrictTransitions)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.External.Kafka.Brokers)
	assert.False(t, cfg.Redis.Enabled)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: "8080"},
			Database: DatabaseConfig{Driver: "memory"},
			JWT:      JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
			Checkout: CheckoutConfig{PaymentTimeout: time.Second},
			External: ExternalConfig{Email: EmailConfig{Provider: "log"}},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"short secret", func(c *Config) { c.JWT.Secret = "short" }, "JWT_SECRET"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "DB_DRIVER"},
		{"postgres without host", func(c *Config) { c.Database.Driver = "postgres" }, "DB_HOST"},
		{"redis without host", func(c *Config) { c.Redis.Enabled = true }, "REDIS_HOST"},
		{"zero payment timeout", func(c *Config) { c.Checkout.PaymentTimeout = 0 }, "PAYMENT_TIMEOUT"},
		{"smtp without host", func(c *Config) { c.External.Email.Provider = "smtp" }, "SMTP_HOST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
