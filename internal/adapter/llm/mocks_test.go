package llm

import (
	"context"
	"sync"
	"time"

	"quiz-doc/internal/domain"

	"github.com/stretchr/testify/mock"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel records the options of every call and answers with a fixed text.
type fakeModel struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
	prompts  []string
	options  []llms.CallOptions
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var opts llms.CallOptions
	for _, opt := range options {
		opt(&opts)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.options = append(m.options, opts)
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompts = append(m.prompts, text.Text)
			}
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.response}},
	}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) Generate(ctx context.Context, prompt string, format domain.ResponseFormat) (string, error) {
	args := m.Called(ctx, prompt, format)
	return args.String(0), args.Error(1)
}

func (m *MockTextGenerator) Model() string {
	return "test-model"
}

var _ domain.Cache = (*MockCache)(nil)
var _ domain.TextGenerator = (*MockTextGenerator)(nil)
