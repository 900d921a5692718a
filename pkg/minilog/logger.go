// Copyright 2015-2026 National Technology & Engineering Solutions of Sandia, LLC (NTESS).
// Under the terms of Contract DE-NA0003525 with NTESS, the U.S. Government retains certain
// rights in this software.

package minilog

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

type logger interface {
	Println(...interface{})
}

// levelColor replaces the reference implementation's hand-rolled ANSI
// escape table with github.com/fatih/color, which already handles reset
// sequences and disables itself on non-terminal writers.
var levelColor = map[Level]*color.Color{
	DEBUG: color.New(color.FgCyan),
	INFO:  color.New(color.FgGreen),
	WARN:  color.New(color.FgYellow),
	ERROR: color.New(color.FgRed),
	FATAL: color.New(color.FgHiRed, color.Bold),
}

type minilogger struct {
	// embed
	logger

	Level   Level
	Color   bool // print in color
	filters []string
}

func (l *minilogger) prologue(level Level, name string) (msg string) {
	label := level.String()
	if l.Color {
		if c, ok := levelColor[level]; ok {
			label = c.Sprint(label)
		}
	}
	msg = label + " "

	if name == "" {
		_, file, line, _ := runtime.Caller(4)
		short := file
		for i := len(file) - 1; i > 0; i-- {
			if file[i] == '/' {
				short = file[i+1:]
				break
			}
		}
		msg += short + ":" + strconv.Itoa(line) + ": "
	} else {
		msg += name + ": "
	}

	return
}

func (l *minilogger) log(level Level, name, format string, arg ...interface{}) {
	if level < l.Level {
		return
	}
	msg := l.prologue(level, name) + fmt.Sprintf(format, arg...)
	for _, f := range l.filters {
		if strings.Contains(msg, f) {
			return
		}
	}
	l.Println(msg)
}

func (l *minilogger) logln(level Level, name string, arg ...interface{}) {
	if level < l.Level {
		return
	}
	msg := l.prologue(level, name) + fmt.Sprint(arg...)
	for _, f := range l.filters {
		if strings.Contains(msg, f) {
			return
		}
	}
	l.Println(msg)
}
