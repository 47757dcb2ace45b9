//go:build ignore

// Generates a synthetic syslog corpus for exercising logsonar end to end.
// Usage: go run scripts/generate-log-corpus.go -lines 10000 -output testdata/syslog.log
//
// The corpus mixes unique lines with heavy repeaters so both the dedup path
// and the summary path get traffic, then can be replayed with:
//
//	logsonar --file testdata/syslog.log
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

var (
	numLines  = flag.Int("lines", 10000, "Number of log lines to generate")
	output    = flag.String("output", "testdata/syslog.log", "Output file")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
	repeatPct = flag.Int("repeat-pct", 60, "Percentage of lines drawn from the repeater pool")
)

var hosts = []string{"web-01", "web-02", "db-01", "cache-01", "worker-03"}

// Fixed text so repeats fingerprint identically.
var repeaters = []string{
	"sshd[4242]: Failed password for invalid user admin from 10.0.0.17 port 22022 ssh2",
	"systemd[1]: Started Session 812 of user deploy.",
	"cron[1933]: (root) CMD (/usr/local/bin/healthcheck.sh)",
	"kernel: TCP: request_sock_TCP: Possible SYN flooding on port 443. Sending cookies.",
	"nginx[2210]: upstream timed out (110: Connection timed out) while reading response header",
}

var uniques = []string{
	"kernel: EXT4-fs error (device sda%d): ext4_find_entry: reading directory lblock %d",
	"oom-killer: Killed process %d (java) total-vm:%dkB",
	"postgres[%d]: FATAL: remaining connection slots are reserved, %d active",
	"app[%d]: panic: runtime error: invalid memory address, goroutine %d",
	"dockerd[%d]: container %d exited with non-zero status",
	"smartd[%d]: Device /dev/sd%d, SMART prefailure attribute warning",
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(filepath.Dir(*output), 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	f, err := os.Create(*output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()

	ts := time.Now().Add(-time.Duration(*numLines) * time.Second)
	for i := 0; i < *numLines; i++ {
		var msg string
		if rng.Intn(100) < *repeatPct {
			msg = repeaters[rng.Intn(len(repeaters))]
		} else {
			msg = fmt.Sprintf(uniques[rng.Intn(len(uniques))], rng.Intn(9000)+1000, rng.Intn(100000))
		}
		host := hosts[rng.Intn(len(hosts))]
		fmt.Fprintf(f, "%s %s %s\n", ts.Format("Jan _2 15:04:05"), host, msg)
		ts = ts.Add(time.Second)
	}
	fmt.Printf("wrote %d lines to %s\n", *numLines, *output)
}
