package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_StripsTimestampAndHostname(t *testing.T) {
	// Given: the same message logged at two different times on two hosts
	a := "Nov 04 23:58:33 archlinux systemd[1]: ollama.service failed"
	b := "Nov 05 00:12:07 buildbox systemd[814]: ollama.service failed"

	// Then: both collapse to the same fingerprint
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.Equal(t, "systemd: ollama.service failed", Fingerprint(a))
}

func TestFingerprint_StripsKeyValuePID(t *testing.T) {
	a := "Nov 04 10:00:01 web01 sshd: session opened pid=4491"
	b := "Nov 04 10:00:09 web01 sshd: session opened pid=4512"

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.Equal(t, "sshd: session opened", Fingerprint(a))
}

func TestFingerprint_CollapsesWhitespace(t *testing.T) {
	got := Fingerprint("kernel:   usb 1-2    new device\t found")
	assert.Equal(t, "kernel: usb 1-2 new device found", got)
}

func TestFingerprint_Idempotent(t *testing.T) {
	lines := []string{
		"Nov 04 23:58:33 archlinux systemd[1]: ollama.service failed",
		"plain message with no prefix",
		"kernel: out of memory pid=99",
		"",
		"   ",
		"[42] orphan bracket",
		// Nested prefixes, as when one logger forwards another's line.
		"Jan 01 00:00:00 hostA Feb 02 11:11:11 hostB disk failure",
		"[99] Nov 04 23:58:33 archlinux kernel: oops",
	}

	for _, line := range lines {
		once := Fingerprint(line)
		assert.Equal(t, once, Fingerprint(once), "not idempotent for %q", line)
	}
}

func TestFingerprint_StripsNestedPrefixes(t *testing.T) {
	// A forwarded line carries two timestamp/host prefixes; both are
	// volatile and both must go.
	got := Fingerprint("Jan 01 00:00:00 hostA Feb 02 11:11:11 hostB disk failure")
	assert.Equal(t, "disk failure", got)
}

func TestFingerprint_TotalOnMalformedInput(t *testing.T) {
	// Lines that match no expected shape pass through trimmed, never error.
	cases := map[string]string{
		"":                        "",
		"    ":                    "",
		"no timestamp here":       "no timestamp here",
		"{\"json\":\"payload\"}":  "{\"json\":\"payload\"}",
		"\x00binary\x01 garbage":  "\x00binary\x01 garbage",
		"Nov 04 bad timestamp ok": "Nov 04 bad timestamp ok",
	}

	for in, want := range cases {
		assert.Equal(t, want, Fingerprint(in))
	}
}
