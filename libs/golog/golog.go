// Package golog provides a leveled logger with pluggable handlers.
package golog

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Level represents a log level (CRIT, ERR, ...)
type Level int32

type Logger interface {
	Context(ctx ...interface{}) Logger

	SetLevel(l Level) Level
	Level() Level
	// L returns true if the current level is greater than or equal to 'l'
	L(l Level) bool

	SetHandler(h Handler)
	Handler() Handler

	Logf(calldepth int, l Level, format string, args ...interface{})
	Criticalf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type Handler interface {
	Log(e *Entry) error
}

type Entry struct {
	Time time.Time
	Lvl  Level
	Msg  string
	Ctx  []interface{}
	Src  string
}

// Log levels
const (
	CRIT  Level = iota // For panics (code bugs)
	ERR                // General errors (e.g. errors from collaborators)
	WARN               // e.g. correctable but inconsistent state
	INFO               // e.g. access logs, analytics, ...
	DEBUG              // Normally turned off but can help to track down issues
)

// Levels maps log level to a string
var Levels = map[Level]string{
	CRIT:  "CRIT",
	ERR:   "ERR",
	WARN:  "WARN",
	INFO:  "INFO",
	DEBUG: "DEBUG",
}

func (l Level) String() string {
	if s := Levels[l]; s != "" {
		return s
	}
	return strconv.Itoa(int(l))
}

type logger struct {
	mu  sync.Mutex
	ctx []interface{}
	hnd Handler
	lvl Level
}

var defaultL *logger

func init() {
	defaultL = &logger{
		ctx: nil,
		hnd: DefaultHandler,
		lvl: INFO,
	}
}

var DefaultHandler = IOHandler(os.Stdout, os.Stderr, LogfmtFormatter())

func Default() Logger {
	return defaultL
}

func (l *logger) Context(ctx ...interface{}) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	nctx := make([]interface{}, 0, len(l.ctx)+len(ctx))
	nctx = append(nctx, l.ctx...)
	nctx = append(nctx, ctx...)
	return &logger{
		ctx: nctx,
		hnd: l.hnd,
		lvl: l.lvl,
	}
}

func (l *logger) SetLevel(lvl Level) Level {
	return Level(atomic.SwapInt32((*int32)(&l.lvl), int32(lvl)))
}

func (l *logger) Level() Level {
	return Level(atomic.LoadInt32((*int32)(&l.lvl)))
}

func (l *logger) L(lvl Level) bool {
	return l.Level() >= lvl
}

func (l *logger) SetHandler(h Handler) {
	l.mu.Lock()
	l.hnd = h
	l.mu.Unlock()
}

func (l *logger) Handler() Handler {
	l.mu.Lock()
	h := l.hnd
	l.mu.Unlock()
	return h
}

func (l *logger) Logf(calldepth int, lvl Level, format string, args ...interface{}) {
	if !l.L(lvl) {
		return
	}
	e := &Entry{
		Time: time.Now(),
		Lvl:  lvl,
		Msg:  fmt.Sprintf(format, args...),
		Ctx:  l.ctx,
	}
	if calldepth > 0 {
		if _, file, line, ok := runtime.Caller(calldepth); ok {
			e.Src = file + ":" + strconv.Itoa(line)
		}
	}
	if err := l.Handler().Log(e); err != nil {
		fmt.Fprintf(os.Stderr, "golog: failed to log entry: %s\n", err)
	}
}

func (l *logger) Criticalf(format string, args ...interface{}) {
	l.Logf(2, CRIT, format, args...)
}

func (l *logger) Errorf(format string, args ...interface{}) {
	l.Logf(2, ERR, format, args...)
}

func (l *logger) Warningf(format string, args ...interface{}) {
	l.Logf(2, WARN, format, args...)
}

func (l *logger) Infof(format string, args ...interface{}) {
	l.Logf(2, INFO, format, args...)
}

func (l *logger) Debugf(format string, args ...interface{}) {
	l.Logf(2, DEBUG, format, args...)
}

// Package level helpers that log through the default logger.

func Criticalf(format string, args ...interface{}) {
	defaultL.Logf(2, CRIT, format, args...)
}

func Errorf(format string, args ...interface{}) {
	defaultL.Logf(2, ERR, format, args...)
}

func Warningf(format string, args ...interface{}) {
	defaultL.Logf(2, WARN, format, args...)
}

func Infof(format string, args ...interface{}) {
	defaultL.Logf(2, INFO, format, args...)
}

func Debugf(format string, args ...interface{}) {
	defaultL.Logf(2, DEBUG, format, args...)
}
