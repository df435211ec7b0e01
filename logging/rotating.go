package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	defaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	logFilePrefix      = "dosing-"
	cleanupInterval    = 24 * time.Hour
)

// RotatingWriter writes JSON log lines to one file per ISO week. When a file reaches
// maxFileSize, writing continues in a numbered sibling (dosing-2026-W42_01.log).
type RotatingWriter struct {
	dir         string
	retention   time.Duration
	maxFileSize int64

	mu      sync.Mutex
	file    *os.File
	seq     int
	week    string
	size    int64
	closed  bool
	now     func() time.Time
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewRotatingWriter opens the current week's file in dir and starts the retention cleanup
func NewRotatingWriter(dir string, retentionWeeks int, maxFileSize int64) (*RotatingWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	rw := &RotatingWriter{
		dir:         dir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		now:         time.Now,
		cancel:      cancel,
		stopped:     make(chan struct{}),
	}

	rw.mu.Lock()
	err := rw.rotate(weekKey(rw.now()), 0)
	rw.mu.Unlock()
	if err != nil {
		cancel()
		return nil, err
	}

	go rw.cleanupLoop(ctx)

	return rw, nil
}

// weekKey returns the ISO week in YYYY-Www form
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// rotate opens the first file of week with room, starting at sequence from (caller holds mu)
func (rw *RotatingWriter) rotate(week string, from int) error {
	if rw.file != nil {
		if err := rw.file.Close(); err != nil {
			slog.Warn("Failed to close log file during rotation", "error", err)
		}
		rw.file = nil
	}

	name, seq := rw.pickFile(week, from)
	path := filepath.Join(rw.dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to stat log file %s: %w", path, err)
	}

	rw.file = file
	rw.seq = seq
	rw.week = week
	rw.size = info.Size()
	return nil
}

// pickFile returns the first file of the week, from sequence from on, that still has room
func (rw *RotatingWriter) pickFile(week string, from int) (string, int) {
	for seq := from; ; seq++ {
		name := logFileName(week, seq)
		if rw.hasRoom(name) {
			return name, seq
		}
	}
}

// logFileName returns dosing-<week>.log for sequence 0 and dosing-<week>_NN.log after
func logFileName(week string, seq int) string {
	if seq == 0 {
		return logFilePrefix + week + ".log"
	}
	return fmt.Sprintf("%s%s_%02d.log", logFilePrefix, week, seq)
}

func (rw *RotatingWriter) hasRoom(name string) bool {
	info, err := os.Stat(filepath.Join(rw.dir, name))
	if err != nil {
		return true
	}
	return rw.maxFileSize <= 0 || info.Size() < rw.maxFileSize
}

// Write appends p to the current file, rotating first on a new week or a full file
func (rw *RotatingWriter) Write(p []byte) (int, error) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if rw.closed {
		return 0, os.ErrClosed
	}

	week := weekKey(rw.now())
	full := rw.maxFileSize > 0 && rw.size > 0 && rw.size+int64(len(p)) > rw.maxFileSize
	if rw.file == nil || week != rw.week || full {
		from := 0
		if full && week == rw.week {
			from = rw.seq + 1
		}
		if err := rw.rotate(week, from); err != nil {
			return 0, err
		}
	}

	n, err := rw.file.Write(p)
	rw.size += int64(n)
	return n, err
}

func (rw *RotatingWriter) cleanupLoop(ctx context.Context) {
	defer close(rw.stopped)

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := rw.cleanup(); err != nil {
				slog.Warn("Failed to clean up old log files", "error", err)
			}
		}
	}
}

// cleanup removes log files last modified before the retention window
func (rw *RotatingWriter) cleanup() (int, error) {
	entries, err := os.ReadDir(rw.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := rw.now().Add(-rw.retention)
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, logFilePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}

		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(rw.dir, name)); err == nil {
			removed++
		}
	}

	return removed, nil
}

// Close stops the cleanup goroutine and closes the current file
func (rw *RotatingWriter) Close() error {
	rw.cancel()
	<-rw.stopped

	rw.mu.Lock()
	defer rw.mu.Unlock()

	rw.closed = true
	if rw.file == nil {
		return nil
	}
	err := rw.file.Close()
	rw.file = nil
	return err
}
