// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

// Package minilog is a small leveled logger: named loggers are registered
// with AddLogger and fan out package-level Debug/Info/Warn/Error/Fatal
// calls, each gated by its own minimum level.
package minilog

import (
	"fmt"
	"strings"
)

// Level is a logging severity. Levels are ordered DEBUG < INFO < WARN <
// ERROR < FATAL; a logger registered at level L emits messages at L or
// more severe.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// LevelFromString parses one of "debug", "info", "warn", "error", "fatal"
// case-insensitively; used by cmd/ flag parsing.
func LevelFromString(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warn":
		return WARN, nil
	case "error":
		return ERROR, nil
	case "fatal":
		return FATAL, nil
	default:
		return 0, fmt.Errorf("minilog: unknown level %q", s)
	}
}
