package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCmdable struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(_ context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestGet_MissDevuelveErrMiss(t *testing.T) {
	c := &Client{store: newMockCmdable()}
	_, err := c.Get(context.Background(), "nada")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	c := &Client{store: mock}

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	assert.Equal(t, time.Minute, mock.ttls["k"])

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	ok, err := c.SetNX(ctx, "k", "otro", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "SetNX no sobrescribe")

	require.NoError(t, c.Del(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestIdempotencyKey_Formato(t *testing.T) {
	c := &Client{}
	assert.Equal(t, "pos:idempotency:invoice:abc", c.IdempotencyKey("invoice", "abc"))
	assert.Equal(t, "pos:idempotency:abc", c.IdempotencyKey(" ", "abc"))
}

func TestClienteSinInicializar(t *testing.T) {
	var c Client
	assert.Error(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}
