package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	sonarerr "github.com/akodali/logsonar/internal/errors"
)

// Ollama API constants.
const (
	// DefaultOllamaHost is the default Ollama API endpoint.
	DefaultOllamaHost = "http://localhost:11434"

	// DefaultOllamaModel is the default embedding model. Log lines are
	// short natural-language-ish text, so a small general model suffices.
	DefaultOllamaModel = "all-minilm"

	// ollamaConnectTimeout bounds the initial health check.
	ollamaConnectTimeout = 5 * time.Second

	// ollamaPoolSize sizes the HTTP connection pool.
	ollamaPoolSize = 4
)

// fallbackOllamaModels are tried in order if the primary model is not
// installed.
var fallbackOllamaModels = []string{
	"nomic-embed-text",
	"mxbai-embed-large",
}

// OllamaConfig configures the Ollama embedder.
type OllamaConfig struct {
	// Host is the Ollama API endpoint (default: http://localhost:11434).
	Host string

	// Model is the embedding model to use (default: all-minilm).
	Model string

	// FallbackModels are tried in order if primary model unavailable.
	FallbackModels []string

	// Dimensions can be set to override auto-detection (0 = auto-detect).
	Dimensions int

	// BatchSize for batch embedding requests (default: 16).
	BatchSize int

	// Timeout for API requests (default: 60s).
	Timeout time.Duration

	// MaxRetries for transient failures (default: 3).
	MaxRetries int

	// SkipHealthCheck skips the initial Ollama availability check (tests).
	SkipHealthCheck bool
}

// DefaultOllamaConfig returns sensible defaults.
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		Host:           DefaultOllamaHost,
		Model:          DefaultOllamaModel,
		FallbackModels: fallbackOllamaModels,
		Dimensions:     0, // auto-detect
		BatchSize:      DefaultBatchSize,
		Timeout:        DefaultTimeout,
		MaxRetries:     DefaultMaxRetries,
	}
}

// ollamaEmbedRequest is the Ollama /api/embed request.
type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"` // string or []string for batch
}

// ollamaEmbedResponse is the Ollama /api/embed response.
type ollamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

// ollamaModelListResponse is the Ollama /api/tags response.
type ollamaModelListResponse struct {
	Models []ollamaModelInfo `json:"models"`
}

// ollamaModelInfo describes an installed model.
type ollamaModelInfo struct {
	Name string `json:"name"`
}

// OllamaEmbedder generates embeddings using Ollama's HTTP API.
type OllamaEmbedder struct {
	client    *http.Client
	transport *http.Transport
	config    OllamaConfig
	modelName string
	dims      int

	mu     sync.RWMutex
	closed bool
}

var _ Embedder = (*OllamaEmbedder)(nil)

// NewOllamaEmbedder creates a new Ollama embedder. Unless SkipHealthCheck is
// set it verifies the endpoint, resolves the model (with fallbacks), and
// auto-detects embedding dimensions.
func NewOllamaEmbedder(ctx context.Context, cfg OllamaConfig) (*OllamaEmbedder, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultOllamaHost
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.FallbackModels == nil {
		cfg.FallbackModels = fallbackOllamaModels
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	// No http.Client.Timeout: per-request context timeouts control deadlines.
	transport := &http.Transport{
		MaxIdleConns:        ollamaPoolSize,
		MaxIdleConnsPerHost: ollamaPoolSize,
		MaxConnsPerHost:     ollamaPoolSize * 2,
		IdleConnTimeout:     10 * time.Second,
	}

	e := &OllamaEmbedder{
		client:    &http.Client{Transport: transport},
		transport: transport,
		config:    cfg,
		modelName: cfg.Model,
		dims:      cfg.Dimensions,
	}

	if !cfg.SkipHealthCheck {
		checkCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()

		modelName, err := e.findAvailableModel(checkCtx)
		if err != nil {
			transport.CloseIdleConnections()
			return nil, sonarerr.Wrap(err, sonarerr.ErrCodeEmbedUnavailable,
				"failed to connect to Ollama or find an embedding model")
		}
		e.modelName = modelName

		if cfg.Dimensions == 0 {
			dims, err := e.detectDimensions(checkCtx)
			if err != nil {
				transport.CloseIdleConnections()
				return nil, sonarerr.Wrap(err, sonarerr.ErrCodeEmbedUnavailable,
					"failed to detect embedding dimensions")
			}
			e.dims = dims
		}
	}

	if e.dims == 0 {
		e.dims = DefaultDimensions
	}

	return e, nil
}

// listModels gets available models from Ollama.
func (e *OllamaEmbedder) listModels(ctx context.Context) ([]ollamaModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.config.Host+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connect to Ollama: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result ollamaModelListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return result.Models, nil
}

// findAvailableModel resolves the primary model or one of the fallbacks
// against the endpoint's installed models. Tags are matched loosely: both
// "all-minilm" and "all-minilm:latest" resolve.
func (e *OllamaEmbedder) findAvailableModel(ctx context.Context) (string, error) {
	models, err := e.listModels(ctx)
	if err != nil {
		return "", err
	}

	available := make(map[string]string) // normalized -> actual
	for _, m := range models {
		name := strings.ToLower(m.Name)
		available[name] = m.Name
		base := strings.Split(name, ":")[0]
		if _, exists := available[base]; !exists {
			available[base] = m.Name
		}
	}

	candidates := append([]string{e.config.Model}, e.config.FallbackModels...)
	for _, candidate := range candidates {
		name := strings.ToLower(candidate)
		if actual, ok := available[name]; ok {
			return actual, nil
		}
		if actual, ok := available[strings.Split(name, ":")[0]]; ok {
			return actual, nil
		}
	}

	return "", fmt.Errorf("no embedding model available (tried %s and %v)",
		e.config.Model, e.config.FallbackModels)
}

// detectDimensions auto-detects embedding dimensions from a probe embedding.
func (e *OllamaEmbedder) detectDimensions(ctx context.Context) (int, error) {
	vectors, err := e.doEmbed(ctx, []string{"dimension detection"})
	if err != nil {
		return 0, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return 0, fmt.Errorf("empty embedding returned")
	}
	return len(vectors[0]), nil
}

// Embed generates embedding for a single text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(text) == "" {
		return make([]float32, e.dims), nil
	}

	embeddings, err := e.doEmbedWithRetry(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts using Ollama's batch
// API. One HTTP call per BatchSize window, not per text.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))

	// Empty inputs get zero vectors without an API call.
	type indexedText struct {
		idx  int
		text string
	}
	var nonEmpty []indexedText
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			results[i] = make([]float32, e.dims)
		} else {
			nonEmpty = append(nonEmpty, indexedText{i, text})
		}
	}

	for start := 0; start < len(nonEmpty); start += e.config.BatchSize {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		end := min(start+e.config.BatchSize, len(nonEmpty))
		batch := nonEmpty[start:end]

		batchTexts := make([]string, len(batch))
		for i, it := range batch {
			batchTexts[i] = it.text
		}

		embeddings, err := e.doEmbedWithRetry(ctx, batchTexts)
		if err != nil {
			return nil, sonarerr.Wrap(err, sonarerr.ErrCodeEmbedBatch, "failed to embed batch")
		}
		if len(embeddings) != len(batch) {
			return nil, sonarerr.Newf(sonarerr.ErrCodeEmbedBatch,
				"embedding count mismatch: sent %d texts, got %d vectors", len(batch), len(embeddings))
		}

		for i, emb := range embeddings {
			results[batch[i].idx] = emb
		}
	}

	return results, nil
}

// doEmbedWithRetry calls the embed API with exponential backoff on failure.
func (e *OllamaEmbedder) doEmbedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	retryCfg := DefaultRetryConfig()
	retryCfg.MaxRetries = e.config.MaxRetries

	var result [][]float32
	err := Retry(ctx, retryCfg, func() error {
		reqCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()

		vectors, err := e.doEmbed(reqCtx, texts)
		if err != nil {
			slog.Debug("embed attempt failed", slog.String("error", err.Error()))
			return err
		}
		result = vectors
		return nil
	})
	return result, err
}

// doEmbed performs one /api/embed call.
func (e *OllamaEmbedder) doEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := ollamaEmbedRequest{
		Model: e.modelName,
		Input: texts,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.Host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		vec := make([]float32, len(emb))
		for j, val := range emb {
			vec[j] = float32(val)
		}
		vectors[i] = vec
	}

	return vectors, nil
}

func (e *OllamaEmbedder) checkOpen() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return fmt.Errorf("embedder is closed")
	}
	return nil
}

// Dimensions returns the embedding dimension.
func (e *OllamaEmbedder) Dimensions() int {
	return e.dims
}

// ModelName returns the resolved model identifier.
func (e *OllamaEmbedder) ModelName() string {
	return e.modelName
}

// Available checks whether the Ollama endpoint responds.
func (e *OllamaEmbedder) Available(ctx context.Context) bool {
	if err := e.checkOpen(); err != nil {
		return false
	}

	checkCtx, cancel := context.WithTimeout(ctx, ollamaConnectTimeout)
	defer cancel()

	_, err := e.listModels(checkCtx)
	return err == nil
}

// Close releases HTTP resources.
func (e *OllamaEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.transport.CloseIdleConnections()
	return nil
}
