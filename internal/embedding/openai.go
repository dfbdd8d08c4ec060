package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gojektech/heimdall/v6"
	"github.com/gojektech/heimdall/v6/httpclient"
)

// OpenAIConfig configures the OpenAI embeddings client.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Retries int
	// Backoff is the constant wait between retries.
	Backoff time.Duration
}

// OpenAI calls the /v1/embeddings endpoint. Transport errors and 5xx
// responses are retried by the heimdall client.
type OpenAI struct {
	client  heimdall.Doer
	baseURL string
	apiKey  string
	model   string
}

// NewOpenAI builds a client with a constant-backoff retrier.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 200 * time.Millisecond
	}
	backoff := heimdall.NewConstantBackoff(cfg.Backoff, 5*time.Millisecond)
	client := httpclient.NewClient(
		httpclient.WithHTTPTimeout(cfg.Timeout),
		httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
		httpclient.WithRetryCount(cfg.Retries),
	)
	return &OpenAI{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}
}

// Model is the embedding model name.
func (o *OpenAI) Model() string { return o.model }

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Embed returns the first embedding of the response.
func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: o.model, Input: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embeddings request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embeddings response: %w", err)
	}

	var out embeddingResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode >= http.StatusBadRequest {
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			return nil, fmt.Errorf("openai embeddings: %s: %s", resp.Status, out.Error.Message)
		}
		return nil, fmt.Errorf("openai embeddings: %s", resp.Status)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode embeddings response: %w", decodeErr)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, errors.New("openai embeddings: empty response")
	}
	return out.Data[0].Embedding, nil
}
