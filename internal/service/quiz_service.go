package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"quiz-doc/internal/config"
	"quiz-doc/internal/domain"
	"quiz-doc/internal/export"
	"quiz-doc/internal/logger"
	"quiz-doc/internal/metrics"
	"quiz-doc/internal/prompt"
	"quiz-doc/internal/util"

	"go.uber.org/zap"
)

// GenerateOptions are the per-call generation parameters. Zero values take
// the configured defaults.
type GenerateOptions struct {
	NumQuestions  int
	NumOptions    int
	Difficulty    int
	QuestionTypes []domain.QuestionType
	// Source is recorded in the quiz metadata, usually the input file name.
	Source string
}

// QuizService defines the quiz generation and export operations.
type QuizService interface {
	GenerateFromSections(ctx context.Context, sections []domain.Section, opts GenerateOptions) (*domain.Quiz, error)
	GenerateFromText(ctx context.Context, text string, opts GenerateOptions) (*domain.Quiz, error)
	Render(quiz *domain.Quiz, format string) (*export.Document, error)
	Export(quiz *domain.Quiz, format, dir string) (string, error)
}

type quizService struct {
	generator domain.TextGenerator
	cfg       *config.Config
	metrics   *metrics.Metrics
	builder   prompt.Builder
	writer    *export.Writer

	now     func() time.Time
	shuffle func(n int, swap func(i, j int))
}

// NewQuizService creates a QuizService. m may be nil.
func NewQuizService(generator domain.TextGenerator, cfg *config.Config, m *metrics.Metrics) QuizService {
	if cfg == nil {
		cfg = config.Default()
	}
	return &quizService{
		generator: generator,
		cfg:       cfg,
		metrics:   m,
		builder: prompt.Builder{
			Language:        cfg.Quiz.OutputLanguage,
			MaxContentChars: cfg.Quiz.MaxContentChars,
		},
		writer: export.NewWriter(export.Options{
			IncludeExplanations: cfg.Quiz.IncludeExplanations,
			IncludeDifficulty:   cfg.Quiz.IncludeDifficulty,
		}),
		now:     time.Now,
		shuffle: rand.Shuffle,
	}
}

// GenerateFromSections implements QuizService
func (s *quizService) GenerateFromSections(ctx context.Context, sections []domain.Section, opts GenerateOptions) (*domain.Quiz, error) {
	if !hasContent(sections) {
		return nil, domain.NewInvalidInputError("document contains no text")
	}
	opts, err := s.resolve(opts)
	if err != nil {
		return nil, err
	}
	text, truncated := s.builder.FromSections(sections, s.promptParams(opts))
	if truncated {
		logger.Get().Warn("QuizService: document content truncated",
			zap.String("source", opts.Source),
			zap.Int("max_chars", s.cfg.Quiz.MaxContentChars))
	}
	return s.generate(ctx, text, opts)
}

// GenerateFromText implements QuizService
func (s *quizService) GenerateFromText(ctx context.Context, text string, opts GenerateOptions) (*domain.Quiz, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.NewInvalidInputError("text cannot be empty")
	}
	opts, err := s.resolve(opts)
	if err != nil {
		return nil, err
	}
	p, truncated := s.builder.FromText(text, s.promptParams(opts))
	if truncated {
		logger.Get().Warn("QuizService: text content truncated",
			zap.Int("max_chars", s.cfg.Quiz.MaxContentChars))
	}
	return s.generate(ctx, p, opts)
}

func (s *quizService) generate(ctx context.Context, p string, opts GenerateOptions) (*domain.Quiz, error) {
	if s.generator == nil {
		return nil, domain.NewInternalError("no text generator configured", nil)
	}
	start := s.now()

	raw, err := s.generator.Generate(ctx, p, domain.ResponseFormatJSON)
	if err != nil {
		s.metrics.GenerationFinished("llm_error", time.Since(start))
		logger.Get().Error("QuizService: generation failed", zap.Error(err), zap.String("source", opts.Source))
		return nil, err
	}

	if !ValidateQuizJSON([]byte(CleanModelOutput(raw))) {
		s.metrics.GenerationFinished("malformed", time.Since(start))
		logger.Get().Error("QuizService: generation output lacks title or questions",
			zap.String("source", opts.Source),
			zap.Int("output_len", len(raw)))
		return nil, domain.NewMalformedResponseError(fmt.Errorf("output is not a quiz object"))
	}

	quiz, err := Assemble(raw, domain.QuizMetadata{
		GeneratedAt:  start.UTC().Format(time.RFC3339),
		Model:        s.generator.Model(),
		NumQuestions: opts.NumQuestions,
		Difficulty:   opts.Difficulty,
		GenerationID: util.NewULID(),
		Source:       opts.Source,
	})
	if err != nil {
		s.metrics.GenerationFinished("malformed", time.Since(start))
		logger.Get().Error("QuizService: failed to assemble quiz", zap.Error(err), zap.String("source", opts.Source))
		return nil, err
	}

	if s.cfg.Quiz.ShuffleOptions {
		s.shuffleOptions(quiz)
	}
	for _, issue := range quiz.Inconsistencies(opts.NumOptions) {
		logger.Get().Warn("QuizService: inconsistent question", zap.String("issue", issue))
	}

	s.metrics.GenerationFinished("success", time.Since(start))
	logger.Get().Info("QuizService: quiz generated",
		zap.String("generation_id", quiz.Metadata.GenerationID),
		zap.String("title", quiz.Title),
		zap.Int("questions", len(quiz.Questions)),
		zap.Duration("elapsed", time.Since(start)))
	return quiz, nil
}

// Render implements QuizService
func (s *quizService) Render(quiz *domain.Quiz, format string) (*export.Document, error) {
	doc, err := export.Render(quiz, format, s.writer.Options)
	if err != nil {
		return nil, err
	}
	s.metrics.Exported(string(doc.Format))
	return doc, nil
}

// Export implements QuizService
func (s *quizService) Export(quiz *domain.Quiz, format, dir string) (string, error) {
	if dir == "" {
		dir = s.cfg.Output.Path
	}
	path, err := s.writer.Export(quiz, format, dir)
	if err != nil {
		logger.Get().Error("QuizService: export failed", zap.Error(err), zap.String("format", format), zap.String("dir", dir))
		return "", err
	}
	if parsed, perr := export.ParseFormat(format); perr == nil {
		s.metrics.Exported(string(parsed))
	}
	logger.Get().Info("QuizService: quiz exported", zap.String("path", path))
	return path, nil
}

// resolve fills defaults and checks the requested parameters.
func (s *quizService) resolve(opts GenerateOptions) (GenerateOptions, error) {
	q := s.cfg.Quiz
	if opts.NumQuestions == 0 {
		opts.NumQuestions = q.MinQuestions
	}
	if opts.NumOptions == 0 {
		opts.NumOptions = q.NumOptions
	}
	if opts.Difficulty == 0 {
		opts.Difficulty = q.DefaultDifficulty
	}

	if opts.NumQuestions < q.MinQuestions || opts.NumQuestions > q.MaxQuestions {
		return opts, domain.NewInvalidInputError(fmt.Sprintf("num_questions must be within %d-%d, got %d", q.MinQuestions, q.MaxQuestions, opts.NumQuestions))
	}
	if opts.NumOptions < 2 {
		return opts, domain.NewInvalidInputError(fmt.Sprintf("num_options must be >= 2, got %d", opts.NumOptions))
	}
	if opts.Difficulty < 1 || opts.Difficulty > 5 {
		return opts, domain.NewInvalidInputError(fmt.Sprintf("difficulty must be within 1-5, got %d", opts.Difficulty))
	}
	return opts, nil
}

func (s *quizService) promptParams(opts GenerateOptions) prompt.Params {
	return prompt.Params{
		NumQuestions:  opts.NumQuestions,
		NumOptions:    opts.NumOptions,
		QuestionTypes: opts.QuestionTypes,
	}
}

// shuffleOptions reorders the options of every multiple-choice question. The
// correct answer is matched by value, so it stays valid.
func (s *quizService) shuffleOptions(quiz *domain.Quiz) {
	for i := range quiz.Questions {
		options := quiz.Questions[i].Options
		if !quiz.Questions[i].IsMultipleChoice() || len(options) < 2 {
			continue
		}
		s.shuffle(len(options), func(a, b int) {
			options[a], options[b] = options[b], options[a]
		})
	}
}

func hasContent(sections []domain.Section) bool {
	for _, section := range sections {
		if strings.TrimSpace(section.Title+section.Content) != "" {
			return true
		}
	}
	return false
}
