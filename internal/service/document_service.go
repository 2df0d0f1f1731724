package service

import (
	"context"
	"path/filepath"

	"quiz-doc/internal/domain"
	"quiz-doc/internal/logger"
	"quiz-doc/internal/metrics"
	"quiz-doc/internal/parser"

	"go.uber.org/zap"
)

// ProcessResult is the outcome of turning one document into a quiz.
type ProcessResult struct {
	Quiz         *domain.Quiz
	SectionCount int
}

// DocumentService runs the parse then generate pipeline for files on disk.
type DocumentService interface {
	Sections(path string) ([]domain.Section, error)
	Process(ctx context.Context, path string, opts GenerateOptions) (*ProcessResult, error)
}

type documentService struct {
	quizzes QuizService
	opts    parser.Options
	metrics *metrics.Metrics
}

// NewDocumentService creates a DocumentService. m may be nil.
func NewDocumentService(quizzes QuizService, m *metrics.Metrics) DocumentService {
	return &documentService{
		quizzes: quizzes,
		opts:    parser.DefaultOptions(),
		metrics: m,
	}
}

// Sections parses the document at path into ordered sections.
func (s *documentService) Sections(path string) ([]domain.Section, error) {
	p, err := parser.ForFile(path, s.opts)
	if err != nil {
		return nil, err
	}
	sections, err := p.Parse()
	if err != nil {
		logger.Get().Error("DocumentService: failed to parse document",
			zap.String("path", path),
			zap.String("format", string(p.Format())),
			zap.Error(err))
		return nil, err
	}
	s.metrics.DocumentParsed(string(p.Format()))
	logger.Get().Debug("DocumentService: document parsed",
		zap.String("path", path),
		zap.Int("sections", len(sections)))
	return sections, nil
}

// Process parses path and generates a quiz from its sections. The file name
// becomes the metadata source unless opts sets one.
func (s *documentService) Process(ctx context.Context, path string, opts GenerateOptions) (*ProcessResult, error) {
	sections, err := s.Sections(path)
	if err != nil {
		return nil, err
	}
	if opts.Source == "" {
		opts.Source = filepath.Base(path)
	}
	quiz, err := s.quizzes.GenerateFromSections(ctx, sections, opts)
	if err != nil {
		return nil, err
	}
	return &ProcessResult{Quiz: quiz, SectionCount: len(sections)}, nil
}
