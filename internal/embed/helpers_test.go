package embed

import (
	"context"
	"sync/atomic"
)

// countingEmbedder wraps StaticEmbedder and counts calls reaching the
// backend. Used to verify caching short-circuits repeated work.
type countingEmbedder struct {
	inner      *StaticEmbedder
	embedCalls atomic.Int64
	batchCalls atomic.Int64
	batchTexts atomic.Int64
}

func newCountingEmbedder() *countingEmbedder {
	return &countingEmbedder{inner: NewStaticEmbedder()}
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.embedCalls.Add(1)
	return c.inner.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batchCalls.Add(1)
	c.batchTexts.Add(int64(len(texts)))
	return c.inner.EmbedBatch(ctx, texts)
}

func (c *countingEmbedder) Dimensions() int                     { return c.inner.Dimensions() }
func (c *countingEmbedder) ModelName() string                   { return "counting-static" }
func (c *countingEmbedder) Available(ctx context.Context) bool  { return c.inner.Available(ctx) }
func (c *countingEmbedder) Close() error                        { return c.inner.Close() }
