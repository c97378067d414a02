// Package test provides assertion helpers for unit tests.
package test

import (
	"fmt"
	"path"
	"reflect"
	"runtime"
	"testing"
)

func callerString(skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d", path.Base(file), line)
}

// OK fails the test if err is not nil.
func OK(t testing.TB, err error) {
	if err != nil {
		t.Fatalf("%s: unexpected error: %s", callerString(1), err)
	}
}

// Equals fails the test if expected is not deeply equal to actual.
func Equals(t testing.TB, expected, actual interface{}) {
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("%s:\n\texpected: %#v\n\tgot:      %#v", callerString(1), expected, actual)
	}
}

// Assert fails the test with msg if the condition is false.
func Assert(t testing.TB, condition bool, msg string) {
	if !condition {
		t.Fatalf("%s: %s", callerString(1), msg)
	}
}

// AssertNil fails the test if the provided value is not nil.
func AssertNil(t testing.TB, v interface{}) {
	if v != nil && !reflect.ValueOf(v).IsNil() {
		t.Fatalf("%s: expected nil, got %#v", callerString(1), v)
	}
}

// AssertNotNil fails the test if the provided value is nil.
func AssertNotNil(t testing.TB, v interface{}) {
	if v == nil || (reflect.ValueOf(v).Kind() == reflect.Ptr && reflect.ValueOf(v).IsNil()) {
		t.Fatalf("%s: expected a value, got nil", callerString(1))
	}
}
