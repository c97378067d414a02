// Package errors provides error wrapping that retains a trace of where an
// error originated and passed through, along with optional annotations.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

type aerr struct {
	err         error
	trace       []string
	annotations []string
}

func (e aerr) Error() string {
	var b strings.Builder
	b.WriteString(e.err.Error())
	if len(e.annotations) != 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(e.annotations, ", "))
		b.WriteString("]")
	}
	for _, t := range e.trace {
		b.WriteString("\n\t")
		b.WriteString(t)
	}
	return b.String()
}

// New returns an error with the provided message.
func New(msg string) error {
	return errors.New(msg)
}

// Errorf returns an error with a formatted message.
func Errorf(f string, v ...interface{}) error {
	return fmt.Errorf(f, v...)
}

func wrap(err error) aerr {
	if e, ok := err.(aerr); ok {
		return e
	}
	return aerr{err: err}
}

func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	if i := strings.LastIndexByte(file, '/'); i >= 0 {
		file = file[i+1:]
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// Trace wraps an error recording the location of the call. Use it whenever
// an error crosses a function boundary to retain the path the error took.
func Trace(err error) error {
	if err == nil {
		return nil
	}
	e := wrap(err)
	e.trace = append(e.trace, caller(2))
	return e
}

// Cause returns the underlying error that caused err if it is wrapped,
// otherwise err itself is returned.
func Cause(err error) error {
	if e, ok := err.(aerr); ok {
		return e.err
	}
	return err
}
