package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-grading-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "grading", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=grading sslmode=disable application_name=grading-api connect_timeout=5", dsn)
}
