package cache

import (
	"fmt"

	"github.com/rs/zerolog"
)

// NoOpLogger is a logger that does nothing.
type NoOpLogger struct{}

// Debug logs a debug message (no-op).
func (n *NoOpLogger) Debug(msg string, args ...any) {}

// Info logs an info message (no-op).
func (n *NoOpLogger) Info(msg string, args ...any) {}

// Warn logs a warning message (no-op).
func (n *NoOpLogger) Warn(msg string, args ...any) {}

// Error logs an error message (no-op).
func (n *NoOpLogger) Error(msg string, args ...any) {}

// NewNoOpLogger creates a new no-op logger.
func NewNoOpLogger() Logger {
	return &NoOpLogger{}
}

// ConsoleLogger prints log lines to stdout, tagged with a prefix.
type ConsoleLogger struct {
	prefix string
}

// Debug logs a debug message to console.
func (cl *ConsoleLogger) Debug(msg string, args ...any) {
	cl.print("DEBUG", msg, args)
}

// Info logs an info message to console.
func (cl *ConsoleLogger) Info(msg string, args ...any) {
	cl.print("INFO", msg, args)
}

// Warn logs a warning message to console.
func (cl *ConsoleLogger) Warn(msg string, args ...any) {
	cl.print("WARN", msg, args)
}

// Error logs an error message to console.
func (cl *ConsoleLogger) Error(msg string, args ...any) {
	cl.print("ERROR", msg, args)
}

func (cl *ConsoleLogger) print(level, msg string, args []any) {
	fmt.Printf("[%s] %s: %s", level, cl.prefix, msg)
	if len(args) > 0 {
		fmt.Printf(" %v", args)
	}
	fmt.Println()
}

// NewConsoleLogger creates a new console logger.
func NewConsoleLogger(prefix string) Logger {
	return &ConsoleLogger{prefix: prefix}
}

// ZerologLogger adapts a zerolog.Logger. Args are key/value pairs.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger creates a Logger backed by zl.
func NewZerologLogger(zl zerolog.Logger) Logger {
	return &ZerologLogger{log: zl}
}

// Debug logs a debug message.
func (zl *ZerologLogger) Debug(msg string, args ...any) {
	zl.log.Debug().Fields(args).Msg(msg)
}

// Info logs an info message.
func (zl *ZerologLogger) Info(msg string, args ...any) {
	zl.log.Info().Fields(args).Msg(msg)
}

// Warn logs a warning message.
func (zl *ZerologLogger) Warn(msg string, args ...any) {
	zl.log.Warn().Fields(args).Msg(msg)
}

// Error logs an error message.
func (zl *ZerologLogger) Error(msg string, args ...any) {
	zl.log.Error().Fields(args).Msg(msg)
}
