package kvstore

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Nil is returned by the read operations when a key or field does not exist.
// Both implementations return the same value so callers can compare against it
// without knowing which store is behind the interface.
var Nil = redis.Nil

type KVStore interface {
	Get(key string) (string, error)
	Set(key string, value interface{}) error
	SetNX(key string, value interface{}, ttl time.Duration) (bool, error)
	Delete(key string) error
	Keys(pattern string) ([]string, error)

	LPush(key string, values ...interface{}) error
	RPush(key string, values ...interface{}) error
	LPop(key string) (string, error)
	RPop(key string) (string, error)
	LLen(key string) (int64, error)
	LIndex(key string, index int64) (string, error)
	LRange(key string, start, stop int64) ([]string, error)
	LRem(key string, count int64, value interface{}) error

	HSet(key, field string, value interface{}) error
	HGet(key, field string) (string, error)
	HGetAll(key string) (map[string]string, error)
	HDel(key string, fields ...string) error

	INCR(key string) (int64, error)
	DECR(key string) (int64, error)

	// Publish delivers message to every current subscriber of channel.
	Publish(channel string, message interface{}) error
	// Subscribe returns a channel of messages published on channel until ctx
	// is done. The returned channel is closed afterwards.
	Subscribe(ctx context.Context, channel string) (<-chan string, error)

	Close() error
}
