package cli

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func TestProgressRendersLabelAndCounts(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "linting")

	progress.Start(4)
	progress.Increment()
	progress.Increment()
	progress.Finish()

	output := buf.String()
	if !strings.Contains(output, "linting [") {
		t.Errorf("output %q missing label", output)
	}
	if !strings.Contains(output, "4/4") {
		t.Errorf("output %q missing completed count", output)
	}
	if !strings.Contains(output, " in ") {
		t.Errorf("output %q missing elapsed time", output)
	}
}

func TestProgressZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "linting")

	progress.Start(0)
	progress.Increment()
	progress.Finish()

	if buf.Len() != 0 {
		t.Errorf("zero-total run produced output %q", buf.String())
	}
}

func TestProgressError(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "sweep")

	progress.Start(3)
	progress.Error(fmt.Errorf("store unavailable"))

	output := buf.String()
	if !strings.Contains(output, "sweep") || !strings.Contains(output, "store unavailable") {
		t.Errorf("error output = %q", output)
	}
}

func TestProgressConcurrentIncrements(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "processing")

	progress.Start(100)
	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 10; j++ {
				progress.Increment()
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	progress.Finish()

	if !strings.Contains(buf.String(), "100/100") {
		t.Errorf("output %q missing final count", buf.String())
	}
}

func TestNewProgressReporterNilWriter(t *testing.T) {
	progress := NewProgressReporter(nil, "linting")
	if progress == nil {
		t.Fatal("NewProgressReporter(nil) returned nil")
	}
}
