// Command quizgen turns a document into a quiz file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"quiz-doc/internal/adapter/llm"
	"quiz-doc/internal/config"
	"quiz-doc/internal/domain"
	"quiz-doc/internal/export"
	"quiz-doc/internal/logger"
	"quiz-doc/internal/parser"
	"quiz-doc/internal/service"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const version = "1.0.0"

const usage = `Générateur de Quiz - création de quiz à partir de documents.

Usage:
  quizgen generate FILE [flags]   Génère un quiz à partir d'un document
  quizgen config                  Affiche la configuration actuelle
  quizgen --version
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "generate":
		err = runGenerate(ctx, args[1:], stdout, stderr)
	case "config":
		err = runConfig(stdout)
	case "--version", "version":
		fmt.Fprintf(stdout, "quizgen %s\n", version)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
	default:
		fmt.Fprintf(stderr, "commande inconnue: %q\n\n%s", args[0], usage)
		return 2
	}

	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Erreur: %v\n", err)
		return 1
	}
	return 0
}

func runGenerate(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("generate", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringP("output", "o", "./output", "Dossier de sortie")
	format := fs.StringP("format", "f", "json", "Format de sortie ("+strings.Join(export.FormatNames(), ", ")+")")
	numQuestions := fs.IntP("num-questions", "n", 0, "Nombre de questions")
	questionType := fs.StringP("question-type", "t", "mixed", "Type de questions (qcm, ouvert, mixed)")
	fs.IntP("difficulty", "d", 0, "Difficulté cible (1-5)")
	fs.String("api-key", "", "Clé API OpenAI")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return domain.NewInvalidInputError("un seul fichier attendu: quizgen generate FILE")
	}
	filePath := fs.Arg(0)

	// Flags override config.yaml and environment values.
	v := viper.New()
	for key, flag := range map[string]string{
		"output.path":             "output",
		"quiz.default_difficulty": "difficulty",
		"llm.api_key":             "api-key",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return err
		}
	}
	cfg, err := config.LoadConfig(v)
	if err != nil {
		return err
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		return err
	}
	defer logger.Sync()

	if _, err := export.ParseFormat(*format); err != nil {
		return err
	}
	questionTypes, err := domain.ParseQuestionTypes(*questionType)
	if err != nil {
		return err
	}
	if _, err := parser.ForFile(filePath, parser.DefaultOptions()); err != nil {
		return fmt.Errorf("%w\nFormats supportés: PDF, DOCX, PPTX, TXT, MD", err)
	}

	generator, closeCache, err := llm.NewFromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	quizzes := service.NewQuizService(generator, cfg, nil)
	documents := service.NewDocumentService(quizzes, nil)

	fmt.Fprintf(stdout, "Parsing du fichier: %s\n", filePath)
	fmt.Fprintln(stdout, "Génération du quiz avec l'IA...")
	result, err := documents.Process(ctx, filePath, service.GenerateOptions{
		NumQuestions:  *numQuestions,
		QuestionTypes: questionTypes,
		Source:        filepath.Base(filePath),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Nombre de sections trouvées: %d\n", result.SectionCount)

	outputPath, err := quizzes.Export(result.Quiz, *format, cfg.Output.Path)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Quiz généré avec succès: %s\n", outputPath)
	printSummary(stdout, result.Quiz, *format)
	return nil
}

func printSummary(w io.Writer, quiz *domain.Quiz, format string) {
	title := quiz.Title
	if title == "" {
		title = "N/A"
	}
	var mc, open int
	for _, q := range quiz.Questions {
		switch q.Type {
		case domain.QuestionTypeMultipleChoice:
			mc++
		case domain.QuestionTypeOpen:
			open++
		}
	}
	fmt.Fprintln(w, "\nRésumé du quiz:")
	fmt.Fprintf(w, "  - Titre: %s\n", title)
	fmt.Fprintf(w, "  - Questions: %d (qcm: %d, ouvert: %d)\n", len(quiz.Questions), mc, open)
	fmt.Fprintf(w, "  - Format: %s\n", format)
}

func runConfig(stdout io.Writer) error {
	cfg, err := config.LoadConfig(nil)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Configuration du Générateur de Quiz:")
	fmt.Fprintf(stdout, "  - Fournisseur: %s\n", cfg.LLM.Provider)
	fmt.Fprintf(stdout, "  - Modèle: %s\n", cfg.LLM.Model)
	fmt.Fprintf(stdout, "  - Langue: %s\n", cfg.Quiz.OutputLanguage)
	fmt.Fprintf(stdout, "  - Difficulté par défaut: %d\n", cfg.Quiz.DefaultDifficulty)
	fmt.Fprintf(stdout, "  - Nombre min de questions: %d\n", cfg.Quiz.MinQuestions)
	fmt.Fprintf(stdout, "  - Nombre max de questions: %d\n", cfg.Quiz.MaxQuestions)
	fmt.Fprintf(stdout, "  - Dossier de sortie: %s\n", cfg.Output.Path)
	return nil
}
