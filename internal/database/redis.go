package database

import (
	"github.com/redis/go-redis/v9"

	"github.com/rnkp755/chefcognito/config"
)

// NewRedis creates a redis client from the application config.
func NewRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
