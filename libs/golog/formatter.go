package golog

import (
	"bytes"
	"fmt"
	"strings"
)

const timeFormat = "2006-01-02T15:04:05-0700"

type Formatter interface {
	Format(e *Entry) []byte
}

type FormatterFunc func(*Entry) []byte

func (f FormatterFunc) Format(e *Entry) []byte {
	return f(e)
}

// LogfmtFormatter formats entries as logfmt style key=value pairs.
func LogfmtFormatter() Formatter {
	return FormatterFunc(func(e *Entry) []byte {
		buf := &bytes.Buffer{}
		buf.WriteString("t=")
		buf.WriteString(e.Time.Format(timeFormat))
		buf.WriteString(" lvl=")
		buf.WriteString(e.Lvl.String())
		buf.WriteString(" msg=")
		buf.WriteString(quoteIfNeeded(e.Msg))
		for i := 0; i+1 < len(e.Ctx); i += 2 {
			k, ok := e.Ctx[i].(string)
			if !ok {
				k = fmt.Sprintf("%v", e.Ctx[i])
			}
			buf.WriteByte(' ')
			buf.WriteString(k)
			buf.WriteByte('=')
			buf.WriteString(quoteIfNeeded(fmt.Sprintf("%v", e.Ctx[i+1])))
		}
		if e.Src != "" {
			buf.WriteString(" src=")
			buf.WriteString(quoteIfNeeded(e.Src))
		}
		buf.WriteByte('\n')
		return buf.Bytes()
	})
}

func quoteIfNeeded(s string) string {
	if strings.ContainsAny(s, " \t\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
