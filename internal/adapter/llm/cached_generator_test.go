package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"quiz-doc/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestResponseCacheKey(t *testing.T) {
	k1 := ResponseCacheKey("gpt-4o", 0.7, domain.ResponseFormatJSON, "prompt")
	k2 := ResponseCacheKey("gpt-4o", 0.7, domain.ResponseFormatJSON, "prompt")
	k3 := ResponseCacheKey("gpt-4o-mini", 0.7, domain.ResponseFormatJSON, "prompt")
	k4 := ResponseCacheKey("gpt-4o", 0.7, domain.ResponseFormatText, "prompt")
	k5 := ResponseCacheKey("gpt-4o", 0.2, domain.ResponseFormatJSON, "prompt")

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.NotEqual(t, k1, k4)
	assert.NotEqual(t, k1, k5)
	assert.True(t, strings.HasPrefix(k1, "quizdoc:llm:response:"))
}

func TestCachedGenerator_Generate(t *testing.T) {
	ctx := context.Background()
	ttl := time.Hour
	prompt := "make a quiz"
	key := ResponseCacheKey("test-model", 0, domain.ResponseFormatJSON, prompt)

	t.Run("cache hit skips the model", func(t *testing.T) {
		c := new(MockCache)
		next := new(MockTextGenerator)
		c.On("Get", ctx, key).Return("cached", nil).Once()

		gen, err := NewCachedGenerator(next, c, ttl)
		require.NoError(t, err)

		out, err := gen.Generate(ctx, prompt, domain.ResponseFormatJSON)
		require.NoError(t, err)
		assert.Equal(t, "cached", out)
		c.AssertExpectations(t)
		next.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cache miss calls the model and stores", func(t *testing.T) {
		c := new(MockCache)
		next := new(MockTextGenerator)
		c.On("Get", ctx, key).Return("", domain.ErrCacheMiss).Once()
		next.On("Generate", ctx, prompt, domain.ResponseFormatJSON).Return("fresh", nil).Once()
		c.On("Set", ctx, key, "fresh", ttl).Return(nil).Once()

		gen, err := NewCachedGenerator(next, c, ttl)
		require.NoError(t, err)

		out, err := gen.Generate(ctx, prompt, domain.ResponseFormatJSON)
		require.NoError(t, err)
		assert.Equal(t, "fresh", out)
		c.AssertExpectations(t)
		next.AssertExpectations(t)
	})

	t.Run("cache errors do not block generation", func(t *testing.T) {
		c := new(MockCache)
		next := new(MockTextGenerator)
		c.On("Get", ctx, key).Return("", errors.New("redis down")).Once()
		next.On("Generate", ctx, prompt, domain.ResponseFormatJSON).Return("fresh", nil).Once()
		c.On("Set", ctx, key, "fresh", ttl).Return(errors.New("redis down")).Once()

		gen, err := NewCachedGenerator(next, c, ttl)
		require.NoError(t, err)

		out, err := gen.Generate(ctx, prompt, domain.ResponseFormatJSON)
		require.NoError(t, err)
		assert.Equal(t, "fresh", out)
	})

	t.Run("model failure is not cached", func(t *testing.T) {
		c := new(MockCache)
		next := new(MockTextGenerator)
		upstream := domain.NewLLMServiceError(errors.New("boom"))
		c.On("Get", ctx, key).Return("", domain.ErrCacheMiss).Once()
		next.On("Generate", ctx, prompt, domain.ResponseFormatJSON).Return("", upstream).Once()

		gen, err := NewCachedGenerator(next, c, ttl)
		require.NoError(t, err)

		_, err = gen.Generate(ctx, prompt, domain.ResponseFormatJSON)
		require.Error(t, err)
		assert.True(t, domain.HasCode(err, domain.ErrLLMServiceError))
		c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCachedGenerator_TemperatureSeparatesEntries(t *testing.T) {
	ctx := context.Background()
	prompt := "make a quiz"
	c := new(MockCache)

	cold, err := NewCachedGenerator(NewLangchainGenerator(nil, "gpt-4o", 0.2), c, time.Hour)
	require.NoError(t, err)
	warm, err := NewCachedGenerator(NewLangchainGenerator(nil, "gpt-4o", 0.9), c, time.Hour)
	require.NoError(t, err)

	coldKey := ResponseCacheKey("gpt-4o", 0.2, domain.ResponseFormatJSON, prompt)
	warmKey := ResponseCacheKey("gpt-4o", 0.9, domain.ResponseFormatJSON, prompt)
	require.NotEqual(t, coldKey, warmKey)
	c.On("Get", ctx, coldKey).Return("cold answer", nil).Once()
	c.On("Get", ctx, warmKey).Return("warm answer", nil).Once()

	out, err := cold.Generate(ctx, prompt, domain.ResponseFormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "cold answer", out)

	out, err = warm.Generate(ctx, prompt, domain.ResponseFormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "warm answer", out)
	c.AssertExpectations(t)
}

func TestCachedGenerator_Ping(t *testing.T) {
	ctx := context.Background()
	c := new(MockCache)
	gen, err := NewCachedGenerator(new(MockTextGenerator), c, time.Hour)
	require.NoError(t, err)

	c.On("Ping", ctx).Return(nil).Once()
	assert.NoError(t, gen.Ping(ctx))

	c.On("Ping", ctx).Return(errors.New("redis down")).Once()
	assert.Error(t, gen.Ping(ctx))
	c.AssertExpectations(t)
}

func TestNewCachedGenerator_Validation(t *testing.T) {
	_, err := NewCachedGenerator(nil, new(MockCache), time.Hour)
	assert.Error(t, err)

	_, err = NewCachedGenerator(new(MockTextGenerator), nil, time.Hour)
	assert.Error(t, err)
}
