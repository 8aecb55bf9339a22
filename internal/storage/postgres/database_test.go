package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gravadigital/eventmaster-api/internal/config"
)

func TestValidateConfig(t *testing.T) {
	assert.Error(t, validateConfig(nil))

	cfg := &config.Config{}
	cfg.DB.Host = "localhost"
	cfg.DB.Port = "5432"
	cfg.DB.User = "eventmaster"
	assert.EqualError(t, validateConfig(cfg), "database name cannot be empty")

	cfg.DB.Name = "eventmaster"
	assert.NoError(t, validateConfig(cfg), "password may be empty")
}

func TestNilConnection(t *testing.T) {
	assert.Error(t, HealthCheck(nil))
	assert.Error(t, AutoMigrate(nil))
	assert.NoError(t, Close(nil))
	assert.Equal(t, false, GetConnectionInfo(nil)["connected"])
}
