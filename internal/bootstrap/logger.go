package bootstrap

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/osse101/DCM_Go/internal/config"
	"github.com/osse101/DCM_Go/internal/logger"
)

// SetupLogger initializes the application logger. With a log directory set,
// output goes to stdout and a timestamped session file, and older session
// files beyond the retention count are removed.
// Returns the log file handle (caller must close, nil without a directory).
func SetupLogger(cfg *config.Config, stdout io.Writer) (*os.File, error) {
	var (
		out     = stdout
		logFile *os.File
	)

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, DirPermission); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedCreateLogsDir, err)
		}

		cleanupLogs(cfg.LogDir, LogFileRetentionCount)

		name := fmt.Sprintf(LogFileNamePattern, time.Now().Format(LogFileTimestampFormat))
		f, err := os.OpenFile(filepath.Join(cfg.LogDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, LogFilePermission)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedOpenLogFile, err)
		}
		logFile = f
		out = io.MultiWriter(stdout, f)
	}

	addSource := cfg.Environment == "dev" || cfg.Environment == "development"
	logger.InitLoggerWithWriter(logger.NewConfig(
		cfg.LogLevel,
		cfg.LogFormat,
		cfg.ServiceName,
		cfg.Version,
		cfg.Environment,
		addSource,
	), out)

	slog.Info(LogMsgLoggingInitialized, "level", cfg.LogLevel, "format", cfg.LogFormat, "log_dir", cfg.LogDir)
	slog.Info(LogMsgStartingEngine,
		"environment", cfg.Environment,
		"version", cfg.Version,
		"storage", cfg.StorageDriver)
	slog.Debug(LogMsgConfigurationLoaded,
		"port", cfg.Port,
		"default_leverage_bound", cfg.DefaultLeverageBound,
		"max_leverage_bound", cfg.MaxLeverageBound,
		"max_participants", cfg.MaxParticipants,
		"db_host", cfg.DBHost,
		"db_name", cfg.DBName)

	return logFile, nil
}

// cleanupLogs keeps the newest keep session logs. Names carry a sortable
// timestamp, so lexical order is age order.
func cleanupLogs(logDir string, keep int) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	var logFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), LogFileExtension) {
			logFiles = append(logFiles, entry.Name())
		}
	}
	if len(logFiles) <= keep {
		return
	}

	sort.Strings(logFiles)
	for _, name := range logFiles[:len(logFiles)-keep] {
		if err := os.Remove(filepath.Join(logDir, name)); err != nil {
			slog.Warn(LogMsgFailedDeleteOldLog, "file", name, "error", err)
		}
	}
}
