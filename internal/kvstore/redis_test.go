package kvstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRedisOptionsMapping(t *testing.T) {
	config := StoreConfig{
		Type:         "redis",
		Endpoints:    []string{"redis-a:6379", "redis-b:6379"},
		Password:     "hunter2",
		DB:           3,
		MaxRetries:   5,
		PoolSize:     20,
		MinIdleConns: 4,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}

	opts := redisOptions(config)
	assert.Equal(t, "redis-a:6379", opts.Addr)
	assert.Equal(t, "hunter2", opts.Password)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, 5, opts.MaxRetries)
	assert.Equal(t, 20, opts.PoolSize)
	assert.Equal(t, 4, opts.MinIdleConns)
	assert.Equal(t, 2*time.Second, opts.DialTimeout)
	assert.Equal(t, time.Second, opts.ReadTimeout)
	assert.Equal(t, time.Second, opts.WriteTimeout)
}
