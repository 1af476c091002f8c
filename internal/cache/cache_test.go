package cache

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/pribylovaa/go-attendance/internal/models"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newMiniCache(t *testing.T, ttl time.Duration) (CredentialCache, *miniredis.Miniredis) {
	t.Helper()

	mini := miniredis.RunT(t)

	c, err := NewRedisCache(context.Background(), "redis://"+mini.Addr()+"/0", "", ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c, mini
}

func testUser() *models.User {
	return &models.User{
		ID:           uuid.New(),
		Name:         "Ada",
		Email:        "Ada@X.com",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		CreatedAt:    time.Date(2025, 1, 2, 3, 4, 5, 6, time.UTC),
	}
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mini := newMiniCache(t, time.Minute)
	ctx := context.Background()

	u := testUser()
	require.NoError(t, c.Set(ctx, u))

	got, ok, err := c.Get(ctx, "ada@x.COM")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, *u, *got)

	// В ключах нет email в открытом виде.
	for _, k := range mini.Keys() {
		require.True(t, strings.HasPrefix(k, "attendance:cred:"))
		require.NotContains(t, strings.ToLower(k), "ada")
	}
}

func TestRedisCache_Miss(t *testing.T) {
	c, _ := newMiniCache(t, time.Minute)

	got, ok, err := c.Get(context.Background(), "absent@x.com")
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, got)
}

func TestRedisCache_TTL(t *testing.T) {
	c, mini := newMiniCache(t, time.Minute)
	ctx := context.Background()

	u := testUser()
	require.NoError(t, c.Set(ctx, u))

	mini.FastForward(time.Minute + time.Second)

	_, ok, err := c.Get(ctx, u.Email)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCache_Delete(t *testing.T) {
	c, mini := newMiniCache(t, time.Minute)
	ctx := context.Background()

	u := testUser()
	require.NoError(t, c.Set(ctx, u))

	require.NoError(t, c.Delete(ctx, "ADA@x.com"))

	_, ok, err := c.Get(ctx, u.Email)
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, mini.Keys())

	// Повторное удаление отсутствующей записи не ошибка.
	require.NoError(t, c.Delete(ctx, u.Email))
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	c, mini := newMiniCache(t, time.Minute)
	ctx := context.Background()

	u := testUser()
	require.NoError(t, c.Set(ctx, u))

	key := c.(*redisCache).key(u.Email)
	mini.HSet(key, "id", "not-a-uuid")

	_, ok, err := c.Get(ctx, u.Email)
	require.Error(t, err)
	require.False(t, ok)
}

func TestRedisCache_Unavailable(t *testing.T) {
	c, mini := newMiniCache(t, time.Minute)
	mini.Close()

	_, _, err := c.Get(context.Background(), "a@x.com")
	require.Error(t, err)
	require.Error(t, c.Set(context.Background(), testUser()))
	require.Error(t, c.Delete(context.Background(), "a@x.com"))
}

func TestNewRedisCache_Errors(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "://bad", "", time.Minute)
	require.Error(t, err)

	_, err = NewRedisCache(context.Background(), "redis://127.0.0.1:1/0", "", time.Minute)
	require.Error(t, err)

	mini := miniredis.RunT(t)
	_, err = NewRedisCache(context.Background(), "redis://"+mini.Addr(), "", 0)
	require.Error(t, err)
}

// TestIntegration_RedisCache — тот же контракт на настоящем Redis.
//
// Запуск локально:
//
//	GO_TEST_INTEGRATION=1 go test ./internal/cache -v -count=1
func TestIntegration_RedisCache(t *testing.T) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}
	ctr, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	c, err := NewRedisCache(ctx, fmt.Sprintf("redis://%s:%s/0", host, port.Port()), "it:cred:", time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	u := testUser()
	require.NoError(t, c.Set(ctx, u))

	got, ok, err := c.Get(ctx, strings.ToUpper(u.Email))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, u.PasswordHash, got.PasswordHash)
}
