package debug

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Debug levels
const (
	LevelOff     = 0 // No output
	LevelInfo    = 1 // Important info (start-up, boundaries opened, captures)
	LevelLive    = 2 // Live info (keys handled, commands sent)
	LevelVerbose = 3 // Verbose (settings applied, dialogs)
	LevelTrace   = 4 // Trace (GPIO, raw serial bytes, raw input)
)

var (
	level  int
	output io.Writer = os.Stderr
	logger *zap.SugaredLogger

	lineEnding = zapcore.DefaultLineEnding
)

// Init initializes the debug system with a level (0-4).
// 0 = no output
// 1 = important info (start-up, captures)
// 2 = live info (key events, serial commands)
// 3 = verbose (camera properties, dialogs)
// 4 = trace (GPIO, raw bytes)
//
// Output goes to stderr: stdout belongs to the raw-mode terminal.
func Init(debugLevel int) {
	level = debugLevel
	rebuild()
}

// SetOutput redirects log output. Mostly useful in tests.
func SetOutput(w io.Writer) {
	output = w
	rebuild()
}

// Sync flushes buffered log entries.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}

// SetRawTerminal switches line endings to CRLF while the terminal is in raw
// mode, where a bare LF no longer returns the carriage.
func SetRawTerminal(raw bool) {
	if raw {
		lineEnding = "\r\n"
	} else {
		lineEnding = zapcore.DefaultLineEnding
	}
	rebuild()
}

func rebuild() {
	if level <= LevelOff {
		logger = nil
		return
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05.000000")
	encCfg.LineEnding = lineEnding
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(output),
		zapcore.DebugLevel,
	)
	logger = zap.New(core).Named("microscopy").Sugar()
}

// Level returns the current debug level.
func Level() int {
	return level
}

// IsEnabled returns true if debug level is >= the requested level.
func IsEnabled(minLevel int) bool {
	return level >= minLevel
}

// --- Level 1 functions (Info): important info ---

// Info prints a level 1 message (important info).
func Info(format string, args ...interface{}) {
	if level >= LevelInfo && logger != nil {
		logger.Infof(format, args...)
	}
}

// Warn prints a level 1 warning.
func Warn(format string, args ...interface{}) {
	if level >= LevelInfo && logger != nil {
		logger.Warnf(format, args...)
	}
}

// Summary prints an important banner (level 1).
func Summary(title string) {
	if level >= LevelInfo && logger != nil {
		logger.Info("═══════════════════════════════════════")
		logger.Infof("  %s", title)
		logger.Info("═══════════════════════════════════════")
	}
}

// --- Level 2 functions (Live): real-time info ---

// Live prints a level 2 message (live info).
func Live(format string, args ...interface{}) {
	if level >= LevelLive && logger != nil {
		logger.Infof("[LIVE] "+format, args...)
	}
}

// Key prints a handled key event (level 2).
func Key(kind string, key fmt.Stringer) {
	if level >= LevelLive && logger != nil {
		logger.Infof("[LIVE] key %s %s", kind, key)
	}
}

// Command prints a command sent to the stage controller (level 2).
func Command(cmd string) {
	if level >= LevelLive && logger != nil {
		logger.Infof("[LIVE] serial <- %q", cmd)
	}
}

// --- Level 3 functions (Verbose): everything ---

// Verbose prints a level 3 message (verbose).
func Verbose(format string, args ...interface{}) {
	if level >= LevelVerbose && logger != nil {
		logger.Debugf("[VERBOSE] "+format, args...)
	}
}

// Printf is an alias for Verbose.
func Printf(format string, args ...interface{}) {
	Verbose(format, args...)
}

// PrintStruct prints a struct in formatted form (level 3).
func PrintStruct(name string, v interface{}) {
	if level >= LevelVerbose && logger != nil {
		logger.Debugf("[VERBOSE] %s: %+v", name, v)
	}
}

// Section prints a section separator (level 3).
func Section(name string) {
	if level >= LevelVerbose && logger != nil {
		logger.Debug("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		logger.Debugf("  %s", name)
		logger.Debug("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	}
}

// Step prints a numbered step (level 3).
func Step(num int, description string) {
	if level >= LevelVerbose && logger != nil {
		logger.Debugf("[VERBOSE] Step %d: %s", num, description)
	}
}

// Value prints a named value (level 1).
func Value(name string, value interface{}) {
	if level >= LevelInfo && logger != nil {
		logger.Infof("  %s = %v", name, value)
	}
}

// --- Level 4 functions (Trace): very low level ---

// Trace prints a level 4 message.
func Trace(format string, args ...interface{}) {
	if level >= LevelTrace && logger != nil {
		logger.Debugf("[TRACE] "+format, args...)
	}
}

// GPIO prints a GPIO operation (level 4).
func GPIO(operation string, pin int, value interface{}) {
	if level >= LevelTrace && logger != nil {
		logger.Debugf("[GPIO] %s pin=%d value=%v", operation, pin, value)
	}
}

// --- General functions ---

// Error prints an error (level 1+).
func Error(err error) {
	if level >= LevelInfo && logger != nil {
		logger.Errorf("%v", err)
	}
}
