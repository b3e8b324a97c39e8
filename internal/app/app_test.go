package app

import (
	"context"
	"testing"
	"time"

	"user-service/internal/config"
	"user-service/internal/domain/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MemoryBackend(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{Backend: "memory"},
		Events:   config.EventsConfig{Publisher: "none"},
	}

	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Empty(t, a.HealthChecks)

	ctx := context.Background()
	u, err := a.UserService.CreateUser(ctx, &user.CreateUserRequest{Name: "Ann", Email: "ann@x.com"})
	require.NoError(t, err)

	got, err := a.Repository.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	require.Eventually(t, func() bool {
		return a.Dispatcher.Stats().Published == 1
	}, time.Second, 10*time.Millisecond)
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(&config.Config{Database: config.DatabaseConfig{Backend: "cassandra"}})
	assert.Error(t, err)
}

func TestNew_UnknownPublisher(t *testing.T) {
	_, err := New(&config.Config{
		Database: config.DatabaseConfig{Backend: "memory"},
		Events:   config.EventsConfig{Publisher: "smoke-signals"},
	})
	assert.Error(t, err)
}

func TestDatabaseConfig(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{
		Host: "db", Port: 5433, Username: "svc", Password: "secret", Name: "users",
		SSLMode: "require", ConnMaxLifetime: 60, LogSQL: true,
	}}

	dbc := DatabaseConfig(cfg)
	assert.Equal(t, "db", dbc.Host)
	assert.Equal(t, 5433, dbc.Port)
	assert.Equal(t, "svc", dbc.User)
	assert.Equal(t, "users", dbc.DBName)
	assert.Equal(t, time.Minute, dbc.ConnMaxLifetime)
	assert.True(t, dbc.LogSQL)
}
