package log

import (
	"io"
	"os"
	"strings"
	"sync"

	sserrors "github.com/YuminosukeSato/sleepstat/pkg/errors"
)

var (
	providerMu sync.RWMutex
	provider   LoggerProvider = NewConsoleProvider(os.Stderr, LevelInfo)
)

// SetProvider replaces the process-wide logger provider.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	provider = p
}

// GetLogger returns the default logger of the process-wide provider.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLogger()
}

// GetLoggerWithName returns a component logger of the process-wide provider.
func GetLoggerWithName(name string) Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLoggerWithName(name)
}

// ParseLevel converts a config string into a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, sserrors.NewValidationError("log.level", "must be one of debug, info, warn, error", level)
	}
}

// Setup installs a zerolog provider as the process-wide provider and routes
// library warnings into it. format is "console" or "json".
func Setup(level, format string, w io.Writer) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	var p *ZerologProvider
	switch strings.ToLower(format) {
	case "json":
		p = NewZerologProvider(w, lvl)
	case "console", "":
		p = NewConsoleProvider(w, lvl)
	default:
		return sserrors.NewValidationError("log.format", "must be console or json", format)
	}
	SetProvider(p)
	sserrors.SetZerologWarnFunc(p.WarnSink())
	return nil
}
