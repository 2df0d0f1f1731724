package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	LLM    LLMConfig
	Quiz   QuizConfig
	Output OutputConfig
	Server ServerConfig
	Redis  RedisConfig
	Cache  CacheConfig
	Logger LoggerConfig
}

type LLMConfig struct {
	Provider    string // openai | ollama
	Model       string
	APIKey      string
	BaseURL     string
	ServerURL   string // ollama server
	Temperature float64
	Timeout     time.Duration
}

// QuizConfig holds generation defaults. Every value can be overridden per call.
type QuizConfig struct {
	OutputLanguage      string
	DefaultDifficulty   int
	MinQuestions        int
	MaxQuestions        int
	NumOptions          int
	IncludeExplanations bool
	IncludeDifficulty   bool
	ShuffleOptions      bool
	MaxContentChars     int
}

type OutputConfig struct {
	Path string
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimitMB  int
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type CacheConfig struct {
	LLMTTL time.Duration
}

type LoggerConfig struct {
	Level string
	Env   string
	File  string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4o")
	v.SetDefault("llm.server_url", "http://localhost:11434")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.timeout", "120s")

	v.SetDefault("quiz.output_language", "fr")
	v.SetDefault("quiz.default_difficulty", 1)
	v.SetDefault("quiz.min_questions", 5)
	v.SetDefault("quiz.max_questions", 20)
	v.SetDefault("quiz.num_options", 4)
	v.SetDefault("quiz.include_explanations", true)
	v.SetDefault("quiz.include_difficulty", true)
	v.SetDefault("quiz.shuffle_options", false)
	v.SetDefault("quiz.max_content_chars", 8000)

	v.SetDefault("output.path", "./output")

	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.body_limit_mb", 50)

	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.llm_ttl", "24h")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")
}

// LoadConfig reads config.yaml (optional), .env (optional) and the
// environment. Pass a viper instance with bound flags to let command line
// values win; nil uses a fresh instance.
func LoadConfig(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	// .env is optional, mirrors what the environment would provide.
	_ = godotenv.Load()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", absPath)
	}

	cfg := &Config{
		LLM: LLMConfig{
			Provider:    strings.ToLower(v.GetString("llm.provider")),
			Model:       v.GetString("llm.model"),
			APIKey:      v.GetString("llm.api_key"),
			BaseURL:     v.GetString("llm.base_url"),
			ServerURL:   v.GetString("llm.server_url"),
			Temperature: v.GetFloat64("llm.temperature"),
			Timeout:     v.GetDuration("llm.timeout"),
		},
		Quiz: QuizConfig{
			OutputLanguage:      v.GetString("quiz.output_language"),
			DefaultDifficulty:   v.GetInt("quiz.default_difficulty"),
			MinQuestions:        v.GetInt("quiz.min_questions"),
			MaxQuestions:        v.GetInt("quiz.max_questions"),
			NumOptions:          v.GetInt("quiz.num_options"),
			IncludeExplanations: v.GetBool("quiz.include_explanations"),
			IncludeDifficulty:   v.GetBool("quiz.include_difficulty"),
			ShuffleOptions:      v.GetBool("quiz.shuffle_options"),
			MaxContentChars:     v.GetInt("quiz.max_content_chars"),
		},
		Output: OutputConfig{
			Path: v.GetString("output.path"),
		},
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			BodyLimitMB:  v.GetInt("server.body_limit_mb"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Cache: CacheConfig{
			LLMTTL: v.GetDuration("cache.llm_ttl"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("logger.level"),
			Env:   v.GetString("logger.env"),
			File:  v.GetString("logger.file"),
		},
	}

	// The conventional provider variable wins over an empty llm.api_key.
	if cfg.LLM.APIKey == "" {
		if openAIKey := os.Getenv("OPENAI_API_KEY"); openAIKey != "" {
			cfg.LLM.APIKey = openAIKey
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in defaults without reading files or environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	return &Config{
		LLM: LLMConfig{
			Provider:    v.GetString("llm.provider"),
			Model:       v.GetString("llm.model"),
			ServerURL:   v.GetString("llm.server_url"),
			Temperature: v.GetFloat64("llm.temperature"),
			Timeout:     v.GetDuration("llm.timeout"),
		},
		Quiz: QuizConfig{
			OutputLanguage:      v.GetString("quiz.output_language"),
			DefaultDifficulty:   v.GetInt("quiz.default_difficulty"),
			MinQuestions:        v.GetInt("quiz.min_questions"),
			MaxQuestions:        v.GetInt("quiz.max_questions"),
			NumOptions:          v.GetInt("quiz.num_options"),
			IncludeExplanations: v.GetBool("quiz.include_explanations"),
			IncludeDifficulty:   v.GetBool("quiz.include_difficulty"),
			ShuffleOptions:      v.GetBool("quiz.shuffle_options"),
			MaxContentChars:     v.GetInt("quiz.max_content_chars"),
		},
		Output: OutputConfig{Path: v.GetString("output.path")},
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
			BodyLimitMB:  v.GetInt("server.body_limit_mb"),
		},
		Cache:  CacheConfig{LLMTTL: v.GetDuration("cache.llm_ttl")},
		Logger: LoggerConfig{Level: v.GetString("logger.level"), Env: v.GetString("logger.env")},
	}
}

// Validate checks the values the core relies on.
func (c *Config) Validate() error {
	if c.Quiz.MinQuestions < 1 {
		return fmt.Errorf("quiz.min_questions must be >= 1, got %d", c.Quiz.MinQuestions)
	}
	if c.Quiz.MaxQuestions < c.Quiz.MinQuestions {
		return fmt.Errorf("quiz.max_questions (%d) must be >= quiz.min_questions (%d)", c.Quiz.MaxQuestions, c.Quiz.MinQuestions)
	}
	if c.Quiz.DefaultDifficulty < 1 || c.Quiz.DefaultDifficulty > 5 {
		return fmt.Errorf("quiz.default_difficulty must be within 1-5, got %d", c.Quiz.DefaultDifficulty)
	}
	if c.Quiz.NumOptions < 2 {
		return fmt.Errorf("quiz.num_options must be >= 2, got %d", c.Quiz.NumOptions)
	}
	if c.Quiz.MaxContentChars <= 0 {
		return fmt.Errorf("quiz.max_content_chars must be positive, got %d", c.Quiz.MaxContentChars)
	}
	switch c.LLM.Provider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("unsupported llm.provider: %q", c.LLM.Provider)
	}
	return nil
}
