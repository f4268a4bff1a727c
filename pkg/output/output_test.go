package output

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureStdout(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	f()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func captureStderr(f func()) string {
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	f()

	w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func TestSuccess(t *testing.T) {
	output := captureStdout(func() {
		Success("Generated %d events", 500)
	})

	assert.Contains(t, output, "✓")
	assert.Contains(t, output, "Generated 500 events")
}

func TestError(t *testing.T) {
	output := captureStderr(func() {
		Error("invalid filter: %s", "Foo<>3")
	})

	assert.Contains(t, output, "✗")
	assert.Contains(t, output, "invalid filter: Foo<>3")
}

func TestInfo(t *testing.T) {
	output := captureStdout(func() {
		Info("Processed %d events", 10)
	})

	assert.Contains(t, output, "Processed 10 events")
	assert.NotContains(t, output, "✓")
	assert.NotContains(t, output, "✗")
}

func TestWarn(t *testing.T) {
	output := captureStdout(func() {
		Warn("%d events lost", 3)
	})

	assert.Contains(t, output, "⚠")
	assert.Contains(t, output, "3 events lost")
}

func TestHeader(t *testing.T) {
	output := captureStdout(func() {
		Header("PID      Event")
	})

	assert.Contains(t, output, "PID      Event")
}
