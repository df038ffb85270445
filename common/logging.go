package common

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

func getLogger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "oxy-gltf",
		})
		logger.SetLevel(log.InfoLevel)
	})
	return logger
}

// SetLogLevel changes the level of the shared logger.
// Unknown level names fall back to info.
//
// Parameters:
//   - level: one of "debug", "info", "warn", "error"
func SetLogLevel(level string) {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	getLogger().SetLevel(lvl)
}

// SetLogOutput redirects the shared logger.
//
// Parameters:
//   - w: the destination for every subsequent log line
func SetLogOutput(w io.Writer) {
	getLogger().SetOutput(w)
}

// LogDebug logs msg at debug level with alternating key/value pairs.
func LogDebug(msg string, keyvals ...any) {
	getLogger().Debug(msg, keyvals...)
}

// LogInfo logs msg at info level with alternating key/value pairs.
func LogInfo(msg string, keyvals ...any) {
	getLogger().Info(msg, keyvals...)
}

// LogWarn logs msg at warn level with alternating key/value pairs.
func LogWarn(msg string, keyvals ...any) {
	getLogger().Warn(msg, keyvals...)
}

// LogError logs msg at error level with alternating key/value pairs.
func LogError(msg string, keyvals ...any) {
	getLogger().Error(msg, keyvals...)
}
