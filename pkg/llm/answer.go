package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/jdigiovanni4/rag-utility-doc-processor/pkg/config"
)

// NoContextAnswer is returned without any model call when retrieval found
// nothing to ground an answer on.
const NoContextAnswer = "I couldn't find any relevant documents to answer that."

const contextSeparator = "\n\n---\n\n"

const answerSystemPrompt = "You are an expert Q&A system. Answer the user's question based ONLY on " +
	"the provided context documents. If the answer isn't in the context, say so."

// GeneratorConfig represents the configuration for an answer generator.
type GeneratorConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// AnswerGenerator produces answers grounded in retrieved document texts.
type AnswerGenerator struct {
	config GeneratorConfig
	model  llms.Model
}

// NewGenerator creates an AnswerGenerator backed by the OpenAI chat API.
func NewGenerator(cfg GeneratorConfig) (*AnswerGenerator, error) {
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

	return NewGeneratorWithModel(cfg, model), nil
}

// NewGeneratorWithModel creates an AnswerGenerator with an explicit model.
func NewGeneratorWithModel(cfg GeneratorConfig, model llms.Model) *AnswerGenerator {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}
	return &AnswerGenerator{
		config: cfg,
		model:  model,
	}
}

// Answer generates a grounded response for the query from the supplied
// contexts. With no contexts it returns NoContextAnswer immediately. Model
// calls run at temperature 0.
func (g *AnswerGenerator) Answer(ctx context.Context, query string, contexts []string) (string, error) {
	if len(contexts) == 0 {
		return NoContextAnswer, nil
	}

	contextStr := strings.Join(contexts, contextSeparator)
	userPrompt := fmt.Sprintf(
		"CONTEXT DOCUMENTS:\n%s\n\nUSER'S QUESTION:\n%s\n\nANSWER:",
		contextStr, query,
	)

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, answerSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	response, err := g.model.GenerateContent(ctx, content,
		llms.WithTemperature(0),
		llms.WithMaxTokens(g.config.MaxTokens),
	)
	if err != nil {
		return "", &GenerationError{Err: err}
	}
	if len(response.Choices) == 0 {
		return "", &GenerationError{Err: errors.New("model returned no choices")}
	}

	return response.Choices[0].Content, nil
}
