package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/jdigiovanni4/rag-utility-doc-processor/internal/models"
	"github.com/jdigiovanni4/rag-utility-doc-processor/pkg/config"
)

// StructurerConfig represents the configuration for the JSON structurer.
type StructurerConfig struct {
	APIKey     string
	Model      string
	PromptFile string
	OutDir     string
}

// Structurer converts generic parse-service JSON into the structured final
// record via an LLM call in JSON mode at temperature 0.
type Structurer struct {
	config StructurerConfig
	model  llms.Model
}

func NewStructurer(cfg StructurerConfig) (*Structurer, error) {
	if cfg.APIKey == "" {
		return nil, config.ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}

	model, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat model: %w", err)
	}

	return NewStructurerWithModel(cfg, model), nil
}

func NewStructurerWithModel(cfg StructurerConfig, model llms.Model) *Structurer {
	return &Structurer{config: cfg, model: model}
}

func (s *Structurer) loadPromptTemplate() (string, error) {
	data, err := os.ReadFile(s.config.PromptFile)
	if err != nil {
		return "", fmt.Errorf("prompt file not found: %s: %w", s.config.PromptFile, err)
	}
	return string(data), nil
}

// Structure runs the extraction prompt over the generic JSON and writes the
// final record to <documentID>.json in the output directory.
func (s *Structurer) Structure(ctx context.Context, genericJSONPath, documentID string) (models.DocumentRecord, error) {
	if err := os.MkdirAll(s.config.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	template, err := s.loadPromptTemplate()
	if err != nil {
		return nil, err
	}

	genericJSON, err := os.ReadFile(genericJSONPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", genericJSONPath, err)
	}

	prompt := strings.ReplaceAll(template, "{{generic_json_content}}", string(genericJSON))
	prompt = strings.ReplaceAll(prompt, "{{document_id_placeholder}}", documentID)

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	response, err := s.model.GenerateContent(ctx, content,
		llms.WithTemperature(0),
		llms.WithJSONMode(),
	)
	if err != nil {
		return nil, fmt.Errorf("structuring call failed for %s: %w", documentID, err)
	}
	if len(response.Choices) == 0 {
		return nil, errors.New("structuring call returned no choices")
	}

	var record models.DocumentRecord
	if err := json.Unmarshal([]byte(response.Choices[0].Content), &record); err != nil {
		return nil, fmt.Errorf("structuring call returned invalid JSON for %s: %w", documentID, err)
	}

	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize record %s: %w", documentID, err)
	}
	outPath := filepath.Join(s.config.OutDir, documentID+".json")
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	return record, nil
}
