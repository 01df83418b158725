// Package logger wires slog to stdout plus a size-rotated log file.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Rotator is an io.Writer that rotates the underlying file once it
// exceeds MaxSize bytes, keeping up to MaxBackups numbered backups.
type Rotator struct {
	Filename   string
	MaxSize    int64 // bytes
	MaxBackups int

	mu   sync.Mutex
	file *os.File
	size int64
}

// Setup routes slog output to stdout and the rotating file at the given
// level. An unopenable log file degrades to stdout-only.
func Setup(filename string, maxSizeMB int64, maxBackups int, level string) {
	var w io.Writer = os.Stdout

	if filename != "" {
		r := &Rotator{
			Filename:   filename,
			MaxSize:    maxSizeMB * 1024 * 1024,
			MaxBackups: maxBackups,
		}
		if err := r.openExistingOrNew(); err != nil {
			fmt.Fprintf(os.Stderr, "log file unavailable, stdout only: %v\n", err)
		} else {
			w = io.MultiWriter(os.Stdout, r)
		}
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	slog.SetDefault(slog.New(handler))
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (r *Rotator) openExistingOrNew() error {
	info, err := os.Stat(r.Filename)
	if os.IsNotExist(err) {
		return r.openNew()
	}
	if err != nil {
		return err
	}

	f, err := os.OpenFile(r.Filename, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	r.file = f
	r.size = info.Size()
	return nil
}

func (r *Rotator) openNew() error {
	f, err := os.OpenFile(r.Filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	r.file = f
	r.size = 0
	return nil
}

func (r *Rotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err := r.openExistingOrNew(); err != nil {
			return 0, err
		}
	}
	if r.size+int64(len(p)) > r.MaxSize {
		if err := r.rotate(); err != nil {
			// Keep writing to the oversized file rather than drop logs.
			fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

// rotate shifts backups up one slot (log.1 -> log.2, ...) and truncates
// the live file.
func (r *Rotator) rotate() error {
	if r.file != nil {
		r.file.Close()
	}

	for i := r.MaxBackups - 1; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", r.Filename, i)
		if _, err := os.Stat(oldPath); os.IsNotExist(err) {
			continue
		}
		os.Rename(oldPath, fmt.Sprintf("%s.%d", r.Filename, i+1))
	}
	if _, err := os.Stat(r.Filename); err == nil {
		os.Rename(r.Filename, r.Filename+".1")
	}
	return r.openNew()
}
