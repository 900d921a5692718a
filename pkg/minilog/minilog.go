// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

package minilog

import (
	"io"
	"log"
	"os"
	"sync"
)

var (
	loggersLock sync.Mutex
	loggers     = map[string]*minilogger{}
)

// writerLogger adapts an io.Writer (via the standard library's log.Logger,
// for its date/time prefix) to the logger interface minilogger expects.
type writerLogger struct {
	*log.Logger
}

// AddLogger registers a named logger writing to w, gated at minimum level.
// Registering under a name that already exists replaces the prior logger.
func AddLogger(name string, w io.Writer, level Level, useColor bool) {
	loggersLock.Lock()
	defer loggersLock.Unlock()

	loggers[name] = &minilogger{
		logger: writerLogger{log.New(w, "", log.Ldate|log.Ltime)},
		Level:  level,
		Color:  useColor,
	}
}

// AddRingLogger registers a ring-buffer logger of the given capacity,
// letting operators dump recent log history (e.g. over an RPC
// introspection call) without tailing a file.
func AddRingLogger(name string, size int, level Level) *Ring {
	r := NewRing(size)

	loggersLock.Lock()
	defer loggersLock.Unlock()

	loggers[name] = &minilogger{
		logger: r,
		Level:  level,
	}
	return r
}

// DelLogger removes a previously registered logger.
func DelLogger(name string) {
	loggersLock.Lock()
	defer loggersLock.Unlock()
	delete(loggers, name)
}

// Filter adds a substring filter to the named logger: any message
// containing the filter string is dropped.
func Filter(name, filter string) {
	loggersLock.Lock()
	defer loggersLock.Unlock()
	if l, ok := loggers[name]; ok {
		l.filters = append(l.filters, filter)
	}
}

func fanout(level Level, format string, arg ...interface{}) {
	loggersLock.Lock()
	defer loggersLock.Unlock()
	for _, l := range loggers {
		l.log(level, "", format, arg...)
	}
}

func fanoutln(level Level, arg ...interface{}) {
	loggersLock.Lock()
	defer loggersLock.Unlock()
	for _, l := range loggers {
		l.logln(level, "", arg...)
	}
}

func Debug(format string, arg ...interface{}) { fanout(DEBUG, format, arg...) }
func Info(format string, arg ...interface{})  { fanout(INFO, format, arg...) }
func Warn(format string, arg ...interface{})  { fanout(WARN, format, arg...) }
func Error(format string, arg ...interface{}) { fanout(ERROR, format, arg...) }

func Debugln(arg ...interface{}) { fanoutln(DEBUG, arg...) }
func Infoln(arg ...interface{})  { fanoutln(INFO, arg...) }
func Warnln(arg ...interface{})  { fanoutln(WARN, arg...) }
func Errorln(arg ...interface{}) { fanoutln(ERROR, arg...) }

// Fatal logs at FATAL and terminates the process, matching the reference
// logger's "programmer errors abort the process" policy (spec.md §7).
func Fatal(format string, arg ...interface{}) {
	fanout(FATAL, format, arg...)
	os.Exit(1)
}

func Fatalln(arg ...interface{}) {
	fanoutln(FATAL, arg...)
	os.Exit(1)
}
