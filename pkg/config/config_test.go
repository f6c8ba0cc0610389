package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
openai:
  model: "gpt-4o"
  embedding_model: "text-embedding-3-small"
  max_tokens: 1000

database:
  url: "postgres://localhost:5432/test"
  collection: "test_docs"
  vector_dim: 768
  batch_size: 50
  search_k: 10

pipeline:
  source_pdf_dir: "pdfs"
  final_json_dir: "final"
  review_dir: "review"
  rate_limit: 1.5

ui:
  streaming: false
`
	err := os.WriteFile(configPath, []byte(configData), 0o644)
	require.NoError(t, err)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", config.OpenAI.Model)
	assert.Equal(t, "text-embedding-3-small", config.OpenAI.EmbeddingModel)
	assert.Equal(t, 1000, config.OpenAI.MaxTokens)
	assert.Equal(t, "postgres://localhost:5432/test", config.Database.URL)
	assert.Equal(t, "test_docs", config.Database.Collection)
	assert.Equal(t, 768, config.Database.VectorDim)
	assert.Equal(t, 50, config.Database.BatchSize)
	assert.Equal(t, 10, config.Database.SearchK)
	assert.Equal(t, "pdfs", config.Pipeline.SourcePDFDir)
	assert.Equal(t, 1.5, config.Pipeline.RateLimit)
	assert.False(t, config.UI.Streaming)
}

func TestLoadConfigDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	err := os.WriteFile(configPath, []byte("{}"), 0o644)
	require.NoError(t, err)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "utility_docs", config.Database.Collection)
	assert.Equal(t, 1536, config.Database.VectorDim)
	assert.Equal(t, 100, config.Database.BatchSize)
	assert.Equal(t, 15, config.Database.SearchK)
	assert.Equal(t, "gpt-4o", config.OpenAI.Model)
	assert.Equal(t, "text-embedding-3-small", config.OpenAI.EmbeddingModel)
	assert.Equal(t, float64(0), config.OpenAI.Temperature)
	assert.Equal(t, "final_json_outputs", config.Pipeline.FinalJSONDir)
	assert.Equal(t, "manual_review_needed", config.Pipeline.ReviewDir)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name          string
		config        Config
		expectedErrs  int
		errorMessages []string
	}{
		{
			name: "valid config",
			config: Config{
				OpenAI: OpenAIConfig{
					APIKey:    "sk-test",
					MaxTokens: 1000,
				},
				Database: DatabaseConfig{
					URL:        "postgres://localhost:5432/test",
					Collection: "utility_docs",
					VectorDim:  1536,
					BatchSize:  100,
					SearchK:    15,
				},
				Pipeline: PipelineConfig{
					RateLimit: 2.0,
				},
			},
			expectedErrs: 0,
		},
		{
			name: "invalid config",
			config: Config{
				OpenAI: OpenAIConfig{
					MaxTokens:   5000, // Invalid
					Temperature: 3.0,  // Invalid
				},
				Database: DatabaseConfig{
					Collection: "utility_docs",
					VectorDim:  -1, // Invalid
					BatchSize:  100,
					SearchK:    15,
				},
				Pipeline: PipelineConfig{
					RateLimit: 2.0,
				},
			},
			expectedErrs: 5,
			errorMessages: []string{
				"openai.api_key: OPENAI_API_KEY environment variable is required",
				"openai.max_tokens: max_tokens must be between 1 and 4096",
				"openai.temperature: temperature must be between 0 and 2",
				"database.url: PostgreSQL connection string is required",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errors := tt.config.Validate()

			assert.Len(t, errors, tt.expectedErrs)

			var messages []string
			for _, e := range errors {
				messages = append(messages, e.Error())
			}
			for _, msg := range tt.errorMessages {
				assert.Contains(t, messages, msg)
			}
		})
	}
}

func TestLoadConfigWithoutFileMergesEnvAndDefaults(t *testing.T) {
	// No config file anywhere: construction falls back to env + defaults
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	t.Setenv("DATABASE_URL", "postgres://env-db:5432/test")
	t.Setenv("PARSE_API_KEY", "pk-from-env")

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "sk-from-env", config.OpenAI.APIKey)
	assert.Equal(t, "postgres://env-db:5432/test", config.Database.URL)
	assert.Equal(t, "pk-from-env", config.Pipeline.ParserAPIKey)
	assert.Equal(t, "utility_docs", config.Database.Collection)
	assert.Equal(t, 100, config.Database.BatchSize)
	assert.Equal(t, 15, config.Database.SearchK)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	t.Setenv("DATABASE_URL", "postgres://env-db:5432/test")
	t.Setenv("PARSE_API_KEY", "pk-from-env")

	config := &Config{}
	mergeWithEnv(config)

	assert.Equal(t, "sk-from-env", config.OpenAI.APIKey)
	assert.Equal(t, "postgres://env-db:5432/test", config.Database.URL)
	assert.Equal(t, "pk-from-env", config.Pipeline.ParserAPIKey)
}

func TestEnsureDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	config := &Config{
		Pipeline: PipelineConfig{
			SourcePDFDir:   filepath.Join(tmpDir, "pdfs"),
			GenericJSONDir: filepath.Join(tmpDir, "generic"),
			FinalJSONDir:   filepath.Join(tmpDir, "final"),
			ReviewDir:      filepath.Join(tmpDir, "review"),
		},
	}

	require.NoError(t, config.EnsureDirectories())

	for _, dir := range []string{"pdfs", "generic", "final", "review"} {
		info, err := os.Stat(filepath.Join(tmpDir, dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
