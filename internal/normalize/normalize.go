// Package normalize produces deduplication fingerprints for raw log lines.
//
// A fingerprint is the line with its volatile fields removed: the leading
// syslog timestamp and hostname, numeric process identifiers, and runs of
// whitespace. Two lines that differ only in those fields share a fingerprint.
// Fingerprints are cache keys only; the raw line remains the displayed text.
package normalize

import (
	"regexp"
	"strings"
)

// Patterns are compiled once at package init. Fingerprint is on the hot
// ingest path and runs once per raw line.
var (
	// "Nov 04 23:58:33 archlinux " - syslog short-format timestamp + hostname.
	timestampHostRe = regexp.MustCompile(`^[A-Z][a-z]{2}\s+\d{1,2}\s+\d{2}:\d{2}:\d{2}\s+\S+\s+`)

	// "[1234]" - bracketed PID markers, e.g. "systemd[1]:".
	bracketPIDRe = regexp.MustCompile(`\[\d+\]`)

	// "pid=1234" / "pid 1234" - key-value PID fields some daemons emit.
	kvPIDRe = regexp.MustCompile(`\bpid[ =]\d+\b`)

	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Fingerprint strips volatile fields from a raw log line for repeat
// detection. It is deterministic, idempotent, and total: a line that matches
// none of the expected shapes degrades to its own (whitespace-collapsed)
// fingerprint rather than failing.
//
//	"Nov 04 23:58:33 archlinux systemd[1]: ollama.service failed"
//
// becomes
//
//	"systemd: ollama.service failed"
//
// The strip chain runs to a fixed point: a residue that itself starts with
// another timestamp/hostname prefix (forwarded or nested log lines) is
// stripped again, so reapplying Fingerprint never changes the result.
func Fingerprint(raw string) string {
	s := raw
	for {
		next := stripOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func stripOnce(s string) string {
	s = timestampHostRe.ReplaceAllString(s, "")
	s = bracketPIDRe.ReplaceAllString(s, "")
	s = kvPIDRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
