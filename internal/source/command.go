package source

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"syscall"
	"time"

	sonarerr "github.com/akodali/logsonar/internal/errors"
)

const (
	// terminateGrace is how long a process gets after SIGTERM before
	// it is killed outright.
	terminateGrace = 5 * time.Second

	// restartBackoff is the pause before respawning a source process
	// that exited on its own.
	restartBackoff = 1 * time.Second

	// maxLineSize bounds the scanner buffer. Journal lines can carry
	// large payloads but anything past this is pathological.
	maxLineSize = 256 * 1024
)

// CommandSource follows the stdout of a long-running subprocess, one log
// line per scanned row. If the process exits on its own it is respawned
// up to MaxRestarts times before the stream is declared dead.
type CommandSource struct {
	argv        []string
	maxRestarts int
	logger      *slog.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

// NewCommandSource builds a source that spawns argv and follows its stdout.
func NewCommandSource(argv []string, maxRestarts int, logger *slog.Logger) (*CommandSource, error) {
	if len(argv) == 0 {
		return nil, sonarerr.New(sonarerr.ErrCodeSourceSpawn, "source command is empty", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandSource{
		argv:        argv,
		maxRestarts: maxRestarts,
		logger:      logger,
	}, nil
}

// Lines spawns the process and streams its stdout lines. The returned
// channel closes once the process is gone for good: context cancellation,
// or exit with the restart budget exhausted.
func (s *CommandSource) Lines(ctx context.Context) (<-chan string, error) {
	if err := s.start(); err != nil {
		return nil, err
	}
	out := make(chan string)
	go s.run(ctx, out)
	return out, nil
}

// Stop signals the current process and reaps it. Safe to call while Lines
// is still draining; the scanner unblocks on the closed pipe.
func (s *CommandSource) Stop() error {
	s.terminate()
	return nil
}

func (s *CommandSource) start() error {
	cmd := exec.Command(s.argv[0], s.argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return sonarerr.Wrap(err, sonarerr.ErrCodeSourceSpawn, "open stdout pipe")
	}
	if err := cmd.Start(); err != nil {
		return sonarerr.Wrap(err, sonarerr.ErrCodeSourceSpawn, "spawn source command").
			WithDetail("command", s.argv[0])
	}
	s.mu.Lock()
	s.cmd = cmd
	s.stdout = stdout
	s.mu.Unlock()
	s.logger.Info("source process started", "command", s.argv[0], "pid", cmd.Process.Pid)
	return nil
}

func (s *CommandSource) run(ctx context.Context, out chan<- string) {
	defer close(out)
	defer s.terminate()

	restarts := 0
	for {
		s.mu.Lock()
		stdout := s.stdout
		s.mu.Unlock()

		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), maxLineSize)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			select {
			case out <- line:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			s.logger.Warn("source read error", "error", err)
		}

		// Pipe drained: the process exited or we are shutting down.
		s.terminate()
		if ctx.Err() != nil {
			return
		}
		if restarts >= s.maxRestarts {
			s.logger.Error("source terminated, restart budget exhausted",
				"command", s.argv[0], "restarts", restarts)
			return
		}
		restarts++
		s.logger.Warn("source process exited, restarting",
			"command", s.argv[0], "attempt", restarts)
		select {
		case <-time.After(restartBackoff):
		case <-ctx.Done():
			return
		}
		if err := s.start(); err != nil {
			s.logger.Error("source restart failed", "error", err)
			return
		}
	}
}

// terminate takes ownership of the current process, signals it, and waits.
// The ownership handoff under the mutex makes it idempotent and safe to
// race between Stop and the run loop.
func (s *CommandSource) terminate() {
	s.mu.Lock()
	cmd := s.cmd
	s.cmd = nil
	s.stdout = nil
	s.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()

	// Signal errors are expected when the process already exited; the
	// Wait above still reaps it either way.
	_ = cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-done:
	case <-time.After(terminateGrace):
		_ = cmd.Process.Kill()
		<-done
	}
}
