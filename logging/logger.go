package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/grovetools/moonsync/config"
	"github.com/grovetools/moonsync/pkg/paths"
	"github.com/grovetools/moonsync/util/pathutil"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Environment variables read by NewLogger.
const (
	EnvLogLevel  = "MOONSYNC_LOG_LEVEL"
	EnvLogCaller = "MOONSYNC_LOG_CALLER"
	EnvDebug     = "MOONSYNC_DEBUG"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex

	activeConfig *Config
	levelForced  string
)

// Configure sets the logging section used by loggers created afterwards and
// drops the cached ones. Without it NewLogger reads the default
// configuration file itself.
func Configure(cfg *config.Config) error {
	var logCfg Config
	if cfg != nil {
		if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
			return err
		}
	}

	loggersMu.Lock()
	defer loggersMu.Unlock()
	activeConfig = &logCfg
	loggers = make(map[string]*logrus.Entry)
	return nil
}

// SetLevel forces the level of every logger, existing and future. The
// --verbose flag uses it.
func SetLevel(level string) {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	levelForced = level
	if parsed, err := logrus.ParseLevel(level); err == nil {
		for _, entry := range loggers {
			entry.Logger.SetLevel(parsed)
		}
	}
}

// Reset drops cached loggers and configuration.
func Reset() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	loggers = make(map[string]*logrus.Entry)
	activeConfig = nil
	levelForced = ""
}

// NewLogger creates and returns a pre-configured logger for a specific component.
// It uses a singleton pattern per component to avoid re-initializing.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	logCfg := loadConfig()
	logger := logrus.New()

	// Configure Level
	levelStr := "info"
	switch {
	case levelForced != "":
		levelStr = levelForced
	case os.Getenv(EnvLogLevel) != "":
		levelStr = os.Getenv(EnvLogLevel)
	case logCfg.Level != "":
		levelStr = logCfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if os.Getenv(EnvLogCaller) == "true" || logCfg.ReportCaller {
		logger.SetReportCaller(true)
	}

	logger.SetFormatter(newFormatter(logCfg.Format.Preset, logCfg.Format))

	var writers []io.Writer

	if logCfg.File.Enabled {
		logFilePath := logCfg.File.Path
		if logFilePath == "" {
			if err := paths.EnsureDirs(); err != nil {
				logger.Warnf("Failed to create moonsync directories: %v", err)
			}
			logFilePath = filepath.Join(paths.LogDir(), fmt.Sprintf("%s-%s.log", component, time.Now().Format("2006-01-02")))
		}
		if expanded, err := pathutil.Expand(logFilePath); err == nil {
			logFilePath = expanded
		}
		if w, err := openLogFile(logFilePath); err != nil {
			logger.Warnf("Failed to open log file %s: %v", logFilePath, err)
		} else {
			logger.AddHook(&fileHook{w: w, formatter: newFormatter(logCfg.File.Format, logCfg.Format)})
		}
	}

	if shouldLogToStderr(logCfg.Format.StructuredToStderr, logger.GetLevel()) {
		writers = append(writers, os.Stderr)
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}

func loadConfig() Config {
	if activeConfig != nil {
		return *activeConfig
	}
	var logCfg Config
	cfg, err := config.LoadDefault("")
	if err == nil {
		if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
			logrus.Warnf("Failed to parse 'logging' config: %v", err)
		}
	}
	return logCfg
}

func newFormatter(preset string, format FormatConfig) logrus.Formatter {
	switch preset {
	case "json":
		return &logrus.JSONFormatter{}
	case "simple":
		return &TextFormatter{Config: FormatConfig{
			DisableTimestamp: true,
			DisableComponent: true,
		}}
	default:
		return &TextFormatter{Config: format}
	}
}

// shouldLogToStderr decides whether structured logs reach the terminal. In
// "auto" mode they do when debugging or when stderr is not interactive.
func shouldLogToStderr(mode string, level logrus.Level) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	isDebug := os.Getenv(EnvDebug) == "1" || level >= logrus.DebugLevel
	isInteractive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	return isDebug || !isInteractive
}

func openLogFile(path string) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}
