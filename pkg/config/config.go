package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is returned when the OpenAI credential is absent. It is a
// configuration error: callers must fail before doing any work.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set")

type OpenAIConfig struct {
	APIKey         string  `yaml:"-"` // env only, never from file
	Model          string  `yaml:"model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
}

type DatabaseConfig struct {
	URL        string `yaml:"url"`
	Collection string `yaml:"collection"`
	VectorDim  int    `yaml:"vector_dim"`
	BatchSize  int    `yaml:"batch_size"`
	SearchK    int    `yaml:"search_k"`
}

type PipelineConfig struct {
	SourcePDFDir   string  `yaml:"source_pdf_dir"`
	GenericJSONDir string  `yaml:"generic_json_dir"`
	FinalJSONDir   string  `yaml:"final_json_dir"`
	ReviewDir      string  `yaml:"review_dir"`
	PromptFile     string  `yaml:"prompt_file"`
	ParserURL      string  `yaml:"parser_url"`
	ParserAPIKey   string  `yaml:"-"` // env only
	RateLimit      float64 `yaml:"rate_limit"`
}

type UIConfig struct {
	Streaming bool `yaml:"streaming"`
}

type Config struct {
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Database DatabaseConfig `yaml:"database"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	UI       UIConfig       `yaml:"ui"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/utilidocs/config.yaml"),
			"/etc/utilidocs/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.OpenAI.Model == "" {
		config.OpenAI.Model = "gpt-4o"
	}
	if config.OpenAI.EmbeddingModel == "" {
		config.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if config.OpenAI.MaxTokens == 0 {
		config.OpenAI.MaxTokens = 2000
	}
	// Temperature intentionally has no non-zero default: answers are
	// generated at temperature 0.

	if config.Database.Collection == "" {
		config.Database.Collection = "utility_docs"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 1536
	}
	if config.Database.BatchSize == 0 {
		config.Database.BatchSize = 100
	}
	if config.Database.SearchK == 0 {
		config.Database.SearchK = 15
	}

	if config.Pipeline.SourcePDFDir == "" {
		config.Pipeline.SourcePDFDir = "source_pdfs"
	}
	if config.Pipeline.GenericJSONDir == "" {
		config.Pipeline.GenericJSONDir = "generic_json_outputs"
	}
	if config.Pipeline.FinalJSONDir == "" {
		config.Pipeline.FinalJSONDir = "final_json_outputs"
	}
	if config.Pipeline.ReviewDir == "" {
		config.Pipeline.ReviewDir = "manual_review_needed"
	}
	if config.Pipeline.PromptFile == "" {
		config.Pipeline.PromptFile = filepath.Join("prompts", "extraction_prompt.txt")
	}
	if config.Pipeline.RateLimit == 0 {
		config.Pipeline.RateLimit = 2.0
	}
}

func mergeWithEnv(config *Config) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		config.OpenAI.APIKey = key
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if key := os.Getenv("PARSE_API_KEY"); key != "" {
		config.Pipeline.ParserAPIKey = key
	}
}

// EnsureDirectories creates the pipeline working directories if absent.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Pipeline.SourcePDFDir,
		c.Pipeline.GenericJSONDir,
		c.Pipeline.FinalJSONDir,
		c.Pipeline.ReviewDir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
