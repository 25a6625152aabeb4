package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), 0))

	v, ok, err := m.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", string(v))

	now = now.Add(time.Minute)
	_, ok, err = m.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire at its deadline")

	now = now.Add(24 * time.Hour)
	_, ok, _ = m.Get(ctx, "b")
	assert.True(t, ok, "zero ttl never expires")
	assert.Equal(t, 1, m.Len())
}

func TestMemory_CopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf, 0))
	buf[0] = 'x'

	v, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))
	v[1] = 'y'
	v2, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(v2))
}

func TestInvalidateLearner(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, SetJSON(ctx, m, ReadinessKey("l1"), map[string]int{"overall": 42}, 0))
	require.NoError(t, SetJSON(ctx, m, PassProbabilityKey("l1"), map[string]int{"probability": 10}, 0))
	require.NoError(t, SetJSON(ctx, m, ReadinessKey("l2"), map[string]int{"overall": 7}, 0))

	var got map[string]int
	ok, err := GetJSON(ctx, m, ReadinessKey("l1"), &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 42, got["overall"])

	require.NoError(t, InvalidateLearner(ctx, m, "l1"))
	ok, err = GetJSON(ctx, m, ReadinessKey("l1"), &got)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, _ = GetJSON(ctx, m, ReadinessKey("l2"), &got)
	assert.True(t, ok)
}

func TestGetJSON_CorruptValue(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "k", []byte("{"), 0))
	var v map[string]any
	_, err := GetJSON(ctx, m, "k", &v)
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, Config{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = New(ctx, Config{Backend: "none"})
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))
	_, ok, _ := s.Get(ctx, "k")
	assert.False(t, ok)

	_, err = New(ctx, Config{Backend: "memcached"})
	assert.Error(t, err)

	_, err = New(ctx, Config{Backend: "redis"})
	assert.Error(t, err, "redis without an address must fail")
}
