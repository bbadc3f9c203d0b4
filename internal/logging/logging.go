// Package logging builds the loggers the console and its daemons write to.
//
// Interactive commands log to stderr. Long-running processes (the inbox
// daemon, the dashboard server) log to a rotating file so a kiosk left
// running for months doesn't fill the disk.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls file logging rotation.
type Options struct {
	// File is the log file path; empty means stderr only.
	File string

	// MaxSizeMB is the size a log file reaches before rotation.
	MaxSizeMB int

	// MaxBackups is how many rotated files to keep.
	MaxBackups int

	// MaxAgeDays is how long rotated files are kept.
	MaxAgeDays int
}

// New returns a logger with the given prefix writing to stderr.
func New(prefix string) *log.Logger {
	return log.New(os.Stderr, "["+prefix+"] ", log.LstdFlags)
}

// NewRotating returns a logger writing to both stderr and a size-rotated
// file, plus a closer for the file. With no file configured it degrades to
// a plain stderr logger.
func NewRotating(prefix string, opts Options) (*log.Logger, io.Closer) {
	if opts.File == "" {
		return New(prefix), nopCloser{}
	}

	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
	}

	w := io.MultiWriter(os.Stderr, rotator)
	return log.New(w, "["+prefix+"] ", log.LstdFlags), rotator
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
