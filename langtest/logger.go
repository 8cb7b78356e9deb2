// Copyright © 2024 The ELPS authors

package langtest

import (
	"bytes"
	"io"
	"testing"
)

// Logger is an io.Writer which forwards complete lines to a test log.
type Logger struct {
	t   testing.TB
	buf []byte
}

var _ io.Writer = (*Logger)(nil)

// NewLogger returns a Logger writing to the log of t.
func NewLogger(t testing.TB) *Logger {
	return &Logger{
		t: t,
	}
}

// Write buffers b and logs every complete line it holds.
func (log *Logger) Write(b []byte) (int, error) {
	log.buf = append(log.buf, b...)
	for {
		i := bytes.IndexByte(log.buf, '\n')
		if i < 0 {
			return len(b), nil
		}
		log.t.Log(string(log.buf[:i])) // slice does not include \n
		log.buf = log.buf[i+1:]
	}
}

// Flush logs any partial line left in the buffer.
func (log *Logger) Flush() {
	if len(log.buf) == 0 {
		return
	}
	log.t.Log(string(log.buf))
	log.buf = nil
}
