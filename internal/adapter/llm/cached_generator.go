package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"quiz-doc/internal/cache"
	"quiz-doc/internal/domain"
	"quiz-doc/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CachedGenerator memoizes responses of another generator in a domain.Cache.
// Identical prompts in flight at the same time share one upstream call.
type CachedGenerator struct {
	next        domain.TextGenerator
	cache       domain.Cache
	ttl         time.Duration
	temperature float64
	sfGroup     singleflight.Group
}

// temperatureReporter is implemented by generators whose sampling
// temperature is part of the cache key.
type temperatureReporter interface {
	Temperature() float64
}

func NewCachedGenerator(next domain.TextGenerator, c domain.Cache, ttl time.Duration) (*CachedGenerator, error) {
	if next == nil {
		return nil, fmt.Errorf("generator cannot be nil")
	}
	if c == nil {
		return nil, fmt.Errorf("cache instance cannot be nil for CachedGenerator")
	}
	g := &CachedGenerator{next: next, cache: c, ttl: ttl}
	if ts, ok := next.(temperatureReporter); ok {
		g.temperature = ts.Temperature()
	}
	return g, nil
}

func (g *CachedGenerator) Model() string {
	return g.next.Model()
}

// Ping reports whether the response cache is reachable.
func (g *CachedGenerator) Ping(ctx context.Context) error {
	return g.cache.Ping(ctx)
}

// ResponseCacheKey is the cache key of one generation request.
func ResponseCacheKey(model string, temperature float64, format domain.ResponseFormat, prompt string) string {
	t := strconv.FormatFloat(temperature, 'f', -1, 64)
	sum := sha256.Sum256([]byte(model + "|" + t + "|" + string(format) + "|" + prompt))
	return cache.GenerateCacheKey("llm", "response", hex.EncodeToString(sum[:]))
}

func (g *CachedGenerator) Generate(ctx context.Context, prompt string, format domain.ResponseFormat) (string, error) {
	l := logger.Get()
	cacheKey := ResponseCacheKey(g.next.Model(), g.temperature, format, prompt)

	cached, err := g.cache.Get(ctx, cacheKey)
	switch {
	case err == nil:
		l.Debug("LLM response cache hit", zap.String("cacheKey", cacheKey))
		return cached, nil
	case errors.Is(err, domain.ErrCacheMiss):
		l.Debug("LLM response cache miss", zap.String("cacheKey", cacheKey))
	default:
		// A broken cache must not block generation.
		l.Warn("Failed to read LLM response cache", zap.String("cacheKey", cacheKey), zap.Error(err))
	}

	res, err, _ := g.sfGroup.Do(cacheKey, func() (interface{}, error) {
		response, genErr := g.next.Generate(ctx, prompt, format)
		if genErr != nil {
			return nil, genErr
		}
		if setErr := g.cache.Set(ctx, cacheKey, response, g.ttl); setErr != nil {
			l.Warn("Failed to store LLM response in cache", zap.String("cacheKey", cacheKey), zap.Error(setErr))
		}
		return response, nil
	})
	if err != nil {
		return "", err
	}

	response, ok := res.(string)
	if !ok {
		return "", fmt.Errorf("unexpected type from singleflight.Do for LLM response: %T", res)
	}
	return response, nil
}

var _ domain.TextGenerator = (*CachedGenerator)(nil)
