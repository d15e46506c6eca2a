package geo

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

const tailLines = 64

// FileSource reads fixes from a JSON-lines feed file that another process
// appends to, such as a gpspipe -w capture.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource returns a source reading path.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileSource{path: filepath.Clean(path), logger: logger}
}

// Path returns the feed file path.
func (s *FileSource) Path() string { return s.path }

// Last returns the most recent fix already in the file.
func (s *FileSource) Last() (Fix, error) {
	lines, err := readTail(s.path, tailLines)
	if err != nil {
		return Fix{}, err
	}
	for i := len(lines) - 1; i >= 0; i-- {
		reading, ok := ParseLine([]byte(lines[i]))
		if ok && reading.Err == nil {
			return reading.Fix, nil
		}
	}
	return Fix{}, ErrNoFix
}

// Current returns the last fix in the file, or waits for the next one to be
// appended until ctx is done.
func (s *FileSource) Current(ctx context.Context) (Fix, error) {
	fix, err := s.Last()
	if err == nil {
		return fix, nil
	}
	if !errors.Is(err, ErrNoFix) {
		return Fix{}, err
	}

	for reading := range s.Watch(ctx) {
		if reading.Err != nil {
			s.logger.Debug("skipping feed reading", "error", reading.Err)
			continue
		}
		return reading.Fix, nil
	}
	if ctx.Err() != nil {
		return Fix{}, fmt.Errorf("wait for fix: %w", ctx.Err())
	}
	return Fix{}, ErrNoFix
}

// Watch follows lines appended after the call. The parent directory is
// watched so the feed may be created, rotated or truncated while running.
func (s *FileSource) Watch(ctx context.Context) <-chan Reading {
	out := make(chan Reading)
	go func() {
		defer close(out)
		if err := s.follow(ctx, out); err != nil {
			select {
			case out <- Reading{Err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return out
}

func (s *FileSource) follow(ctx context.Context, out chan<- Reading) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}

	f := follower{path: s.path}
	if info, err := os.Stat(s.path); err == nil {
		f.offset = info.Size()
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			switch {
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				readings, err := f.drain()
				if err != nil {
					s.logger.Debug("read feed failed", "path", s.path, "error", err)
					continue
				}
				for _, r := range readings {
					select {
					case out <- r:
					case <-ctx.Done():
						return nil
					}
				}
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				f.reset()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Debug("feed watcher error", "error", err)
		}
	}
}

// follower tracks the read position in a growing file.
type follower struct {
	path    string
	offset  int64
	partial []byte
}

func (f *follower) reset() {
	f.offset = 0
	f.partial = nil
}

// drain reads everything past the offset and returns the readings of the
// complete lines. A file shorter than the offset was truncated and is read
// from the start.
func (f *follower) drain() ([]Reading, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat feed: %w", err)
	}
	if info.Size() < f.offset {
		f.reset()
	}
	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek feed: %w", err)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	f.offset += int64(len(data))

	buf := append(f.partial, data...)
	var readings []Reading
	for {
		idx := bytes.IndexByte(buf, '\n')
		if idx < 0 {
			break
		}
		if r, ok := ParseLine(buf[:idx]); ok {
			readings = append(readings, r)
		}
		buf = buf[idx+1:]
	}
	f.partial = append([]byte(nil), buf...)
	return readings, nil
}

// readTail returns at most maxLines from the end of the file at path. A
// missing file yields no lines.
func readTail(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open feed: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}
