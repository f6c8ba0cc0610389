package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ParserConfig represents the configuration for the document-parse service
// client.
type ParserConfig struct {
	URL     string
	APIKey  string
	OutDir  string
	Timeout time.Duration
}

// ParserClient converts a scanned PDF into generic JSON by calling the
// external document-parsing service.
type ParserClient struct {
	config ParserConfig
	client *http.Client
}

func NewParserClient(config ParserConfig) (*ParserClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("PARSE_API_KEY is not set")
	}
	if config.URL == "" {
		return nil, fmt.Errorf("parser service URL is not configured")
	}
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}

	return &ParserClient{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}, nil
}

// Parse uploads the PDF, writes the returned chunk list to the generic-JSON
// directory, and returns the output path.
func (p *ParserClient) Parse(ctx context.Context, pdfPath string) (string, error) {
	if err := os.MkdirAll(p.config.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	pdfData, err := os.ReadFile(pdfPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", pdfPath, err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(pdfPath))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	if _, err := part.Write(pdfData); err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.URL, &body)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("parse service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("parse service returned status %d for %s", resp.StatusCode, filepath.Base(pdfPath))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read parse service response: %w", err)
	}

	var parsed struct {
		Chunks []map[string]interface{} `json:"chunks"`
	}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode parse service response: %w", err)
	}

	out, err := json.MarshalIndent(parsed.Chunks, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize chunks: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	outPath := filepath.Join(p.config.OutDir, baseName+".json")
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	return outPath, nil
}
