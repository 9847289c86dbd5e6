// Package ratelimit provides the redis-backed API rate limiter and the
// distributed lock that keeps the nightly materializer single-flight
// across replicas. Everything here degrades to a no-op when redis is
// not configured, so single-node deployments run without it.
package ratelimit

import (
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/paynest/internal/config"
)

// NewClient builds the shared redis client. Returns nil when no address
// is configured; every consumer treats a nil client as "disabled".
func NewClient(cfg config.Config) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})
}
