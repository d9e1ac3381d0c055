package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache_SetGet(t *testing.T) {
	c := NewTTLCache(time.Minute)
	defer c.Close()

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("key", 42)
	val, ok := c.Get("key")
	assert.True(t, ok)
	assert.Equal(t, 42, val)

	c.Delete("key")
	_, ok = c.Get("key")
	assert.False(t, ok)
}

func TestTTLCache_Expiry(t *testing.T) {
	c := NewTTLCache(10 * time.Millisecond)
	defer c.Close()

	c.Set("key", "value")
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("key")
	assert.False(t, ok)
}

func TestTTLCache_GetOrCreate(t *testing.T) {
	c := NewTTLCache(time.Minute)
	defer c.Close()

	calls := 0
	create := func() interface{} {
		calls++
		return "created"
	}

	assert.Equal(t, "created", c.GetOrCreate("key", create))
	assert.Equal(t, "created", c.GetOrCreate("key", create))
	assert.Equal(t, 1, calls)
}

func TestTTLCache_GetOrCreateConcurrent(t *testing.T) {
	c := NewTTLCache(time.Minute)
	defer c.Close()

	// all goroutines must observe the same value
	var wg sync.WaitGroup
	results := make([]interface{}, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.GetOrCreate("shared", func() interface{} {
				return new(int)
			})
		}(i)
	}
	wg.Wait()

	for i := 1; i < 20; i++ {
		assert.Same(t, results[0], results[i])
	}
}
