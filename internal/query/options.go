package query

import (
	"log/slog"
	"strconv"
	"strings"
)

// Display modes for query results.
const (
	DisplayRaw    = "raw"
	DisplayPretty = "pretty"
)

// Options are the per-query knobs carried as trailing tokens on the query
// line.
type Options struct {
	K       int
	Display string
}

// parseOptions strips trailing `k=<int>` and `display=<raw|pretty>` tokens,
// in either order, from the query line and returns the remaining text. A
// recognized token with an invalid value is still consumed; the option
// keeps its default and the problem is logged. Tokens appearing mid-query
// are ordinary query text.
func parseOptions(line string, defaults Options, logger *slog.Logger) (string, Options) {
	opts := defaults
	fields := strings.Fields(line)

	for len(fields) > 0 {
		last := fields[len(fields)-1]
		switch {
		case strings.HasPrefix(last, "k="):
			value := strings.TrimPrefix(last, "k=")
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				opts.K = n
			} else {
				logger.Warn("ignoring invalid k option", "value", value, "default", defaults.K)
			}
		case strings.HasPrefix(last, "display="):
			value := strings.TrimPrefix(last, "display=")
			if value == DisplayRaw || value == DisplayPretty {
				opts.Display = value
			} else {
				logger.Warn("ignoring invalid display option", "value", value, "default", defaults.Display)
			}
		default:
			return strings.Join(fields, " "), opts
		}
		fields = fields[:len(fields)-1]
	}
	return "", opts
}
