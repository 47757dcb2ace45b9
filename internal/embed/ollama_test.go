package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOllama serves /api/tags and /api/embed with canned data.
func fakeOllama(t *testing.T, installed []string, dims int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		models := make([]map[string]any, len(installed))
		for i, name := range installed {
			models[i] = map[string]any{"name": name}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"models": models})
	})
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var inputs []string
		switch v := req.Input.(type) {
		case string:
			inputs = []string{v}
		case []any:
			for _, item := range v {
				inputs = append(inputs, item.(string))
			}
		}

		embeddings := make([][]float64, len(inputs))
		for i, text := range inputs {
			vec := make([]float64, dims)
			// Unique per input so ordering bugs are visible.
			vec[0] = float64(len(text))
			embeddings[i] = vec
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":      req.Model,
			"embeddings": embeddings,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaEmbedder_ResolvesModelAndDimensions(t *testing.T) {
	srv := fakeOllama(t, []string{"all-minilm:latest"}, 384)

	cfg := DefaultOllamaConfig()
	cfg.Host = srv.URL

	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	assert.Equal(t, "all-minilm:latest", e.ModelName())
	assert.Equal(t, 384, e.Dimensions())
	assert.True(t, e.Available(context.Background()))
}

func TestOllamaEmbedder_FallsBackWhenPrimaryMissing(t *testing.T) {
	srv := fakeOllama(t, []string{"nomic-embed-text:latest"}, 768)

	cfg := DefaultOllamaConfig()
	cfg.Host = srv.URL

	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	assert.Equal(t, "nomic-embed-text:latest", e.ModelName())
}

func TestOllamaEmbedder_NoModelInstalled(t *testing.T) {
	srv := fakeOllama(t, nil, 384)

	cfg := DefaultOllamaConfig()
	cfg.Host = srv.URL
	cfg.MaxRetries = 1

	_, err := NewOllamaEmbedder(context.Background(), cfg)
	assert.Error(t, err)
}

func TestOllamaEmbedder_BatchPreservesOrder(t *testing.T) {
	srv := fakeOllama(t, []string{"all-minilm"}, 8)

	cfg := DefaultOllamaConfig()
	cfg.Host = srv.URL
	cfg.BatchSize = 2 // force multiple windows

	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := e.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))

	// The fake encodes len(text) into vec[0]; order must survive batching.
	for i, text := range texts {
		assert.Equal(t, float32(len(text)), vectors[i][0], "index %d", i)
	}
}

func TestOllamaEmbedder_EmptyTextGetsZeroVectorWithoutCall(t *testing.T) {
	srv := fakeOllama(t, []string{"all-minilm"}, 4)

	cfg := DefaultOllamaConfig()
	cfg.Host = srv.URL

	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	vectors, err := e.EmbedBatch(context.Background(), []string{"  "})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Equal(t, make([]float32, 4), vectors[0])
}

func TestOllamaEmbedder_ServerErrorSurfaces(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]any{{"name": "all-minilm"}},
		})
	})
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := DefaultOllamaConfig()
	cfg.Host = srv.URL
	cfg.Dimensions = 4 // skip dimension probe, it would fail
	cfg.MaxRetries = 1

	e, err := NewOllamaEmbedder(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	_, err = e.EmbedBatch(context.Background(), []string{"boom"})
	assert.Error(t, err)
}
