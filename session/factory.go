package session

import (
	"time"

	ratehub "github.com/ratehub/ratehub-go"
)

// StoreType represents the type of session store.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeFile   StoreType = "file"
	StoreTypeRedis  StoreType = "redis"
)

// NewStore creates a new session Store of the given type.
// Supports "memory", "file" and "redis" driver types.
// For file, requires WithFilePath; for Redis, requires WithRedisClient.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	config := &storeConfig{}

	// Apply options
	for _, opt := range opts {
		opt(config)
	}

	switch storeType {
	case StoreTypeMemory:
		return &memoryStore{}, nil

	case StoreTypeFile:
		if config.filePath == "" {
			return nil, ratehub.ErrInvalidConfig
		}
		return &fileStore{path: config.filePath}, nil

	case StoreTypeRedis:
		if config.redisClient == nil {
			return nil, ratehub.ErrInvalidConfig
		}
		key := config.redisKey
		if key == "" {
			key = "ratehub:session"
		}
		ttl := config.redisTTL
		if ttl <= 0 {
			ttl = 7 * 24 * time.Hour
		}
		return &redisStore{
			client: config.redisClient,
			key:    key,
			ttl:    ttl,
		}, nil

	default:
		return nil, ratehub.ErrInvalidStoreType
	}
}
