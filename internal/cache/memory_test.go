package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestMemoryCache_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := newMemoryCache(clock.now)
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	check.Equal(t, "v", string(got))

	clock.t = clock.t.Add(time.Minute)
	_, err = c.Get(ctx, "k")
	check.True(t, errors.Is(err, ErrCacheMiss))

	c.removeExpired()
	check.Equal(t, 0, c.Len())
}

func TestMemoryCache_GetOrSet(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	calls := 0
	fn := func() ([]byte, error) {
		calls++
		return []byte("1"), nil
	}
	for range 3 {
		v, err := c.GetOrSet(ctx, "admin:u1", time.Minute, fn)
		assert.NoError(t, err)
		check.Equal(t, "1", string(v))
	}
	check.Equal(t, 1, calls)

	assert.NoError(t, c.Delete(ctx, "admin:u1"))
	_, err := c.GetOrSet(ctx, "admin:u1", time.Minute, fn)
	assert.NoError(t, err)
	check.Equal(t, 2, calls)

	boom := errors.New("boom")
	_, err = c.GetOrSet(ctx, "other", time.Minute, func() ([]byte, error) { return nil, boom })
	check.True(t, errors.Is(err, boom))
	_, err = c.Get(ctx, "other")
	check.True(t, errors.Is(err, ErrCacheMiss))
}

func TestMemoryCache_CopiesValues(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	v := []byte("abc")
	assert.NoError(t, c.Set(ctx, "k", v, time.Minute))
	v[0] = 'z'
	got, _ := c.Get(ctx, "k")
	check.Equal(t, "abc", string(got))

	assert.NoError(t, c.Clear(ctx))
	check.Equal(t, 0, c.Len())
	check.NoError(t, c.Close())
	check.NoError(t, c.Close())
}
