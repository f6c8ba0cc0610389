package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate OpenAI config
	if c.OpenAI.APIKey == "" {
		errors = append(errors, ValidationError{
			Field:   "openai.api_key",
			Message: "OPENAI_API_KEY environment variable is required",
		})
	}

	if c.OpenAI.MaxTokens < 1 || c.OpenAI.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "openai.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "openai.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	// Validate Database config
	if c.Database.URL == "" {
		errors = append(errors, ValidationError{
			Field:   "database.url",
			Message: "PostgreSQL connection string is required",
		})
	} else if _, err := url.Parse(c.Database.URL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "database.url",
			Message: "invalid database URL",
		})
	}

	if c.Database.Collection == "" {
		errors = append(errors, ValidationError{
			Field:   "database.collection",
			Message: "collection name is required",
		})
	}

	if c.Database.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	if c.Database.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.batch_size",
			Message: "batch_size must be positive",
		})
	}

	if c.Database.SearchK < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.search_k",
			Message: "search_k must be positive",
		})
	}

	// Validate Pipeline config
	if c.Pipeline.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "pipeline.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	if c.Pipeline.ParserURL != "" {
		if _, err := url.Parse(c.Pipeline.ParserURL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "pipeline.parser_url",
				Message: "invalid parser URL",
			})
		}
	}

	return errors
}
