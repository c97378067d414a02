package errors

import "fmt"

// Annotate attaches a contextual message to an error without hiding the
// underlying cause from Cause.
func Annotate(err error, msg string) error {
	if err == nil {
		return nil
	}
	e := wrap(err)
	e.annotations = append(e.annotations, msg)
	return e
}

// Annotatef attaches a formatted contextual message to an error.
func Annotatef(err error, f string, v ...interface{}) error {
	if err == nil {
		return nil
	}
	e := wrap(err)
	e.annotations = append(e.annotations, fmt.Sprintf(f, v...))
	return e
}

// Annotations returns the messages attached to an error, outermost last.
func Annotations(err error) []string {
	e, ok := err.(aerr)
	if !ok {
		return nil
	}
	return e.annotations
}
