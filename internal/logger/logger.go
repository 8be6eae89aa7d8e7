package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const filePrefix = "datamate-"

// Config logger configuration
type Config struct {
	LogDir     string // Log directory, empty disables the file sink
	Level      string // debug | info | warn | error
	MaxDays    int    // Max days to keep logs
	ConsoleOut bool   // Output to console as well
}

// RotatingFile is an io.Writer that appends to one log file per day
// and removes files older than maxDays.
type RotatingFile struct {
	mu          sync.Mutex
	dir         string
	maxDays     int
	currentFile *os.File
	currentDate string
	now         func() time.Time
}

// NewRotatingFile creates the log directory and opens today's file
func NewRotatingFile(dir string, maxDays int) (*RotatingFile, error) {
	if maxDays <= 0 {
		maxDays = 7
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f := &RotatingFile{
		dir:     dir,
		maxDays: maxDays,
		now:     time.Now,
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.rotateIfNeeded(); err != nil {
		return nil, err
	}
	return f, nil
}

// Write implements io.Writer
func (f *RotatingFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.rotateIfNeeded(); err != nil {
		return 0, err
	}
	return f.currentFile.Write(p)
}

// Close closes the current file
func (f *RotatingFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.currentFile == nil {
		return nil
	}
	err := f.currentFile.Close()
	f.currentFile = nil
	f.currentDate = ""
	return err
}

// rotateIfNeeded opens a new file when the date changed; caller holds mu
func (f *RotatingFile) rotateIfNeeded() error {
	today := f.now().Format("2006-01-02")
	if f.currentDate == today && f.currentFile != nil {
		return nil
	}

	if f.currentFile != nil {
		f.currentFile.Close()
	}

	filename := filepath.Join(f.dir, filePrefix+today+".log")
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	f.currentFile = file
	f.currentDate = today

	f.cleanOldLogs()
	return nil
}

// cleanOldLogs removes log files beyond maxDays
func (f *RotatingFile) cleanOldLogs() {
	files, err := filepath.Glob(filepath.Join(f.dir, filePrefix+"*.log"))
	if err != nil || len(files) <= f.maxDays {
		return
	}

	// names sort by date
	sort.Strings(files)
	for i := 0; i < len(files)-f.maxDays; i++ {
		os.Remove(files[i])
	}
}

// ParseLevel maps a config level name to a zerolog level, defaulting to info
func ParseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the application logger. The returned closer releases the log file.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	var (
		writers []io.Writer
		closer  io.Closer = nopCloser{}
	)

	if cfg.LogDir != "" {
		file, err := NewRotatingFile(cfg.LogDir, cfg.MaxDays)
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		writers = append(writers, file)
		closer = file
	}

	if cfg.ConsoleOut {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "15:04:05",
		})
	}

	if len(writers) == 0 {
		return zerolog.Nop(), closer, nil
	}

	log := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Str("app", "datamate").
		Logger().
		Level(ParseLevel(cfg.Level))
	return log, closer, nil
}
