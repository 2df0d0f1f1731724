package llm

import (
	"context"

	"quiz-doc/internal/adapter"
	"quiz-doc/internal/cache"
	"quiz-doc/internal/config"
	"quiz-doc/internal/domain"
	"quiz-doc/internal/logger"

	"go.uber.org/zap"
)

// NewFromConfig builds the configured generator. When redis.address is set
// and reachable the generator is wrapped in a response cache; the returned
// closer then releases the Redis client.
func NewFromConfig(ctx context.Context, cfg *config.Config) (domain.TextGenerator, func() error, error) {
	noop := func() error { return nil }

	gen, err := NewGenerator(cfg.LLM)
	if err != nil {
		return nil, noop, err
	}
	logger.Get().Info("LLM generator initialized",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", gen.Model()))

	if cfg.Redis.Address == "" {
		logger.Get().Info("Redis cache is not configured. Running without response cache.")
		return gen, noop, nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Get().Warn("Redis unavailable. Running without response cache.", zap.Error(err))
		return gen, noop, nil
	}
	cached, err := NewCachedGenerator(gen, adapter.NewRedisCacheAdapter(client), cfg.Cache.LLMTTL)
	if err != nil {
		_ = client.Close()
		return nil, noop, err
	}
	logger.Get().Info("LLM response cache enabled",
		zap.String("redis", cfg.Redis.Address),
		zap.Duration("ttl", cfg.Cache.LLMTTL))
	return cached, client.Close, nil
}
