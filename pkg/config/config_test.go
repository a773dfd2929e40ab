package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, 30*time.Second, cfg.Client.SyncInterval)
	assert.Equal(t, 5*time.Second, cfg.Client.BaseDelay)
	assert.Equal(t, 5*time.Minute, cfg.Client.MaxDelay)
	assert.Equal(t, 20*time.Second, cfg.Client.RequestTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Redis.IdempotencyTTL)
	assert.False(t, cfg.Redis.Enabled())
}

func TestFromViper_EnvComoTexto(t *testing.T) {
	v := viper.New()
	v.Set("SYNC_MAX_DELAY_SECONDS", "120")
	v.Set("DB_DRIVER", "MEMORY")
	v.Set("POS_SERVER_URL", "http://pos.local:8080/")
	v.Set("REDIS_ADDR", "localhost:6379")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.Client.MaxDelay)
	assert.Equal(t, DriverMemory, cfg.DB.Driver)
	assert.Equal(t, "http://pos.local:8080", cfg.Client.ServerURL, "se recorta la barra final")
	assert.True(t, cfg.Redis.Enabled())
}

func TestFromViper_DriverInvalido(t *testing.T) {
	v := viper.New()
	v.Set("DB_DRIVER", "oracle")
	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "pos", Password: "p@ss/word", DBName: "pos_sync", SSLMode: "disable"}
	assert.Equal(t, "postgres://pos:p%40ss%2Fword@db:5432/pos_sync?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
