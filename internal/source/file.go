package source

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	sonarerr "github.com/akodali/logsonar/internal/errors"
)

// FileSource reads an existing log file from the top and then follows
// appends, tail -F style. Truncation (logrotate copytruncate) resets the
// read offset to the new end of file.
type FileSource struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	file    *os.File
}

// NewFileSource builds a source tailing the file at path.
func NewFileSource(path string, logger *slog.Logger) (*FileSource, error) {
	if path == "" {
		return nil, sonarerr.New(sonarerr.ErrCodeSourceFile, "source file path is empty", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{path: path, logger: logger}, nil
}

// Lines opens the file and streams its lines, existing content first, then
// appended lines as they arrive. The channel closes on context cancellation
// or when the file becomes unwatchable.
func (s *FileSource) Lines(ctx context.Context) (<-chan string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, sonarerr.Wrap(err, sonarerr.ErrCodeSourceFile, "open source file").
			WithDetail("path", s.path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		f.Close()
		return nil, sonarerr.Wrap(err, sonarerr.ErrCodeSourceFile, "create file watcher")
	}
	// Watch the parent directory so rotation (rename + recreate) is
	// still observable after the original inode goes away.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		f.Close()
		watcher.Close()
		return nil, sonarerr.Wrap(err, sonarerr.ErrCodeSourceFile, "watch source directory").
			WithDetail("path", s.path)
	}

	s.mu.Lock()
	s.file = f
	s.watcher = watcher
	s.mu.Unlock()

	out := make(chan string)
	go s.run(ctx, out)
	return out, nil
}

// Stop closes the watcher and the file handle, unblocking the follow loop.
func (s *FileSource) Stop() error {
	s.mu.Lock()
	watcher := s.watcher
	file := s.file
	s.watcher = nil
	s.file = nil
	s.mu.Unlock()
	if watcher != nil {
		_ = watcher.Close()
	}
	if file != nil {
		_ = file.Close()
	}
	return nil
}

func (s *FileSource) run(ctx context.Context, out chan<- string) {
	defer close(out)
	defer s.Stop()

	s.mu.Lock()
	file := s.file
	watcher := s.watcher
	s.mu.Unlock()
	if file == nil || watcher == nil {
		return
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	var partial strings.Builder
	offset := int64(0)

	// Drain everything readable right now, then block on events.
	if !s.drain(ctx, out, file, reader, &partial, &offset) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				// Rotated and recreated: reopen from the top.
				nf, err := os.Open(s.path)
				if err != nil {
					s.logger.Warn("reopen rotated file failed", "error", err)
					continue
				}
				file.Close()
				file = nf
				s.mu.Lock()
				s.file = nf
				s.mu.Unlock()
				reader.Reset(file)
				partial.Reset()
				offset = 0
			}
			if !s.drain(ctx, out, file, reader, &partial, &offset) {
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("file watch error", "error", err)
		}
	}
}

// drain reads all currently available bytes, emitting complete lines and
// holding any trailing partial line until its newline arrives. Returns
// false when the stream should stop.
func (s *FileSource) drain(ctx context.Context, out chan<- string, file *os.File, reader *bufio.Reader, partial *strings.Builder, offset *int64) bool {
	if st, err := file.Stat(); err == nil && st.Size() < *offset {
		// Truncated in place: restart from the top.
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			s.logger.Warn("seek after truncation failed", "error", err)
			return false
		}
		reader.Reset(file)
		partial.Reset()
		*offset = 0
	}
	for {
		chunk, err := reader.ReadString('\n')
		*offset += int64(len(chunk))
		if err == nil {
			partial.WriteString(strings.TrimRight(chunk, "\n"))
			line := partial.String()
			partial.Reset()
			if line == "" {
				continue
			}
			select {
			case out <- line:
			case <-ctx.Done():
				return false
			}
			continue
		}
		partial.WriteString(chunk)
		if err == io.EOF {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		s.logger.Warn("source file read error", "error", err)
		return false
	}
}
