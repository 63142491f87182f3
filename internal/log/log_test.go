package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type failingCloser struct{ closed bool }

func (f *failingCloser) Close() error {
	f.closed = true
	return errors.New("boom")
}

func TestSetAndRestore(t *testing.T) {
	var buf bytes.Buffer
	Set(New(&buf, logrus.DebugLevel))
	t.Cleanup(func() { Set(nil) })

	Debugf("hello %s", "world")
	assert.Contains(t, buf.String(), "hello world")

	Set(nil)
	buf.Reset()
	Errorf("silent")
	assert.Empty(t, buf.String())
}

func TestCloseAndLogError(t *testing.T) {
	var buf bytes.Buffer
	Set(New(&buf, logrus.DebugLevel))
	t.Cleanup(func() { Set(nil) })

	c := &failingCloser{}
	CloseAndLogError(c, "thing")
	assert.True(t, c.closed)
	assert.Contains(t, buf.String(), "failed to close thing: boom")

	// nil closers are ignored
	CloseAndLogError(nil, "nothing")
}
