package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"user-service/internal/domain/user"
	"user-service/internal/infrastructure/events"
	"user-service/internal/infrastructure/repository"
	"user-service/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, user.Event) error { return errors.New("broker down") }
func (failingPublisher) Close() error                              { return nil }

func TestBrokerFailureDoesNotRollBackCreate(t *testing.T) {
	d := events.NewDispatcher(failingPublisher{}, 4, 1, time.Second)
	d.Start()
	svc := service.NewUserService(repository.NewMemoryUserRepository(), d)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, &user.CreateUserRequest{Name: "Ann", Email: "ann@x.com"})
	require.NoError(t, err)
	d.Stop()

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, u.ID, users[0].ID)
	assert.EqualValues(t, 1, d.Stats().Failed)
}
