// Package query answers free-text similarity queries against the live
// vector index. A query line is cleaned of its trailing option tokens,
// embedded, and matched against the indexed log records.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/akodali/logsonar/internal/embed"
	"github.com/akodali/logsonar/internal/store"
)

const (
	// resultTimeFormat matches the format repeat summaries are stamped
	// with, so indexed and displayed timestamps read the same.
	resultTimeFormat = "2006-01-02 15:04:05"

	msgNoResults = "no results"
	msgEmptyIdx  = "no logs indexed yet"
)

// Engine resolves one query line to a formatted response.
type Engine struct {
	store    *store.Store
	embedder embed.Embedder
	defaults Options
	logger   *slog.Logger
}

// NewEngine builds a query engine over the shared store. The embedder is
// typically the cached wrapper, so repeated queries skip the backend.
func NewEngine(st *store.Store, embedder embed.Embedder, defaults Options, logger *slog.Logger) *Engine {
	if defaults.K <= 0 {
		defaults.K = 5
	}
	if defaults.Display == "" {
		defaults.Display = DisplayPretty
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: st, embedder: embedder, defaults: defaults, logger: logger}
}

// Handle answers a single query line. Option parsing and the empty-text
// check happen before any embedding work.
func (e *Engine) Handle(ctx context.Context, line string) (string, error) {
	text, opts := parseOptions(line, e.defaults, e.logger)
	if text == "" {
		return msgNoResults, nil
	}

	size := e.store.Size()
	if size == 0 {
		return msgEmptyIdx, nil
	}

	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return "", err
	}

	results, err := e.store.Search(vec, opts.K)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return msgNoResults, nil
	}

	e.logger.Debug("query answered",
		"k", opts.K, "display", opts.Display, "results", len(results), "indexed", size)
	return formatResults(results, opts.Display), nil
}

func formatResults(results []store.Result, display string) string {
	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if display == DisplayRaw {
			sb.WriteString(r.Record.Text)
			continue
		}
		fmt.Fprintf(&sb, "%s | dist=%.4f | %s",
			r.Record.Timestamp.Format(resultTimeFormat), r.Distance, r.Record.Text)
	}
	return sb.String()
}
