package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestDSN(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: "5433", User: "app", Password: "p@ss word", Name: "roadmap", SSLMode: "require"}
	assert.Equal(t, "postgres://app:p%40ss%20word@db:5433/roadmap?sslmode=require", cfg.DSN())
}

func TestPostgresConfigFromEnv(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "pg")
	t.Setenv("POSTGRES_NAME", "")
	cfg := PostgresConfigFromEnv()
	assert.Equal(t, "pg", cfg.Host)
	assert.Equal(t, "roadmap", cfg.Name)
	assert.Equal(t, "disable", cfg.SSLMode)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("x")))
	assert.True(t, IsUniqueViolation(fmt.Errorf("wrap: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, IsUniqueViolation(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
}
