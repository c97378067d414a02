package golog

import "io"

type HandlerFunc func(e *Entry) error

func (h HandlerFunc) Log(e *Entry) error {
	return h(e)
}

// IOHandler writes WARN and above to err and everything else to out.
func IOHandler(out, err io.Writer, fmtr Formatter) Handler {
	return &ioHandler{out: out, err: err, fmtr: fmtr}
}

type ioHandler struct {
	out, err io.Writer
	fmtr     Formatter
}

func (o *ioHandler) Log(e *Entry) error {
	m := o.fmtr.Format(e)
	if e.Lvl <= WARN {
		_, err := o.err.Write(m)
		return err
	}
	_, err := o.out.Write(m)
	return err
}
