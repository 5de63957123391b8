package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jafarshop/gopiorder/internal/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "gopi",
		Password: "secret",
		DBName:   "gopiorder",
		SSLMode:  "disable",
	})
	assert.Equal(t, "host=db port=5432 user=gopi password=secret dbname=gopiorder sslmode=disable", dsn)
}

func TestNullString(t *testing.T) {
	assert.False(t, nullString("").Valid)
	assert.Equal(t, "TIMEOUT", nullString("TIMEOUT").String)
}
