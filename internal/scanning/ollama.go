package scanning

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ollamaTimeout bounds a single Ollama call; local vision models are slow
const ollamaTimeout = 120 * time.Second

// Ollama implements the Scanner interface using Ollama
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllama creates a new Ollama Scanner instance.
// Vision models work best for invoices, e.g. llava:1.6 or qwen2-vl:7b.
func NewOllama(baseURL string, modelName string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "llava"
	}

	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   modelName,
		client: &http.Client{
			Timeout: ollamaTimeout,
		},
	}, nil
}

// ollamaChatRequest represents the request body for Ollama's chat API
type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// ollamaChatResponse represents the response from Ollama's chat API
type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// ExtractInvoice analyzes an invoice and extracts its fields
func (o *Ollama) ExtractInvoice(ctx context.Context, doc Document) (*InvoiceData, error) {
	images, err := prepareImages(doc)
	if err != nil {
		return nil, err
	}

	encoded := make([]string, len(images))
	for i, img := range images {
		encoded[i] = base64.StdEncoding.EncodeToString(img)
	}

	text, err := o.chat(ctx, []ollamaMessage{
		{
			Role:    "system",
			Content: "You are an expert at reading and extracting information from invoices. You must carefully read all text in images and extract accurate information.",
		},
		{
			Role:    "user",
			Content: invoiceScanPrompt,
			Images:  encoded,
		},
	})
	if err != nil {
		return nil, err
	}

	data, err := parseInvoiceJSON(text)
	if err != nil {
		return nil, fmt.Errorf("parsing invoice data: %w", err)
	}
	return data, nil
}

// SuggestImprovements asks the Ollama model to review extracted invoice data
func (o *Ollama) SuggestImprovements(ctx context.Context, in SuggestionInput) (*Suggestions, error) {
	text, err := o.chat(ctx, []ollamaMessage{
		{Role: "system", Content: suggestionSystemPrompt},
		{Role: "user", Content: suggestionPrompt(in)},
	})
	if err != nil {
		return nil, err
	}

	s, err := parseSuggestionsJSON(text, in)
	if err != nil {
		return nil, fmt.Errorf("parsing suggestions: %w", err)
	}
	return s, nil
}

// chat sends one non-streaming chat request and returns the answer text
func (o *Ollama) chat(ctx context.Context, messages []ollamaMessage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ollamaTimeout)
	defer cancel()

	reqBody := ollamaChatRequest{
		Model:    o.model,
		Stream:   false,
		Format:   "json",
		Messages: messages,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat", o.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling ollama API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	return chatResp.Message.Content, nil
}

// Close closes the Ollama client (no-op for HTTP client)
func (o *Ollama) Close() error {
	return nil
}
