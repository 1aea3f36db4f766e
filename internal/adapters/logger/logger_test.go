package logger_test

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"go.heddle.dev/heddle/internal/adapters/logger"
	"go.heddle.dev/heddle/internal/core/domain"
	"go.trai.ch/zerr"
)

// captureStderr captures output written to os.Stderr during fn.
func captureStderr(fn func()) (string, error) {
	originalStderr := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		return "", err
	}
	os.Stderr = w

	done := make(chan string, 1)
	go func() {
		buf, _ := io.ReadAll(r)
		done <- string(buf)
	}()

	fn()

	if err := w.Close(); err != nil {
		os.Stderr = originalStderr
		return "", err
	}
	output := <-done
	if err := r.Close(); err != nil {
		os.Stderr = originalStderr
		return "", err
	}
	os.Stderr = originalStderr
	return output, nil
}

func TestLogger_WritesToStderr(t *testing.T) {
	// The logger binds stderr at construction, so it is created inside the
	// capture function.
	output, err := captureStderr(func() {
		lg := logger.New(false)
		lg.Info("some message")
	})
	if err != nil {
		t.Fatalf("Failed to capture stderr: %v", err)
	}

	if !strings.Contains(output, "some message") {
		t.Errorf("Expected output to contain 'some message', got: %s", output)
	}
	if !strings.Contains(output, "INFO") {
		t.Errorf("Expected output to contain 'INFO', got: %s", output)
	}
}

func TestLogger_DebugSuppressedByDefault(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.New(false)
	lg.SetOutput(&buf)

	lg.Debug("quiet detail")
	if buf.Len() != 0 {
		t.Errorf("Expected debug output to be suppressed, got: %s", buf.String())
	}

	lg.Info("loud enough")
	if !strings.Contains(buf.String(), "loud enough") {
		t.Errorf("Expected info output, got: %s", buf.String())
	}
}

func TestLogger_VerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.New(true)
	lg.SetOutput(&buf)

	lg.Debug("quiet detail")
	if !strings.Contains(buf.String(), "quiet detail") {
		t.Errorf("Expected debug output in verbose mode, got: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "DEBUG") {
		t.Errorf("Expected output to contain 'DEBUG', got: %s", buf.String())
	}
}

func TestLogger_Warn(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.New(false)
	lg.SetOutput(&buf)

	lg.Warn("some warning")
	if !strings.Contains(buf.String(), "some warning") {
		t.Errorf("Expected output to contain 'some warning', got: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "WARN") {
		t.Errorf("Expected output to contain 'WARN', got: %s", buf.String())
	}
}

func TestLogger_ErrorIncludesMetadata(t *testing.T) {
	var buf bytes.Buffer
	lg := logger.New(false)
	lg.SetOutput(&buf)

	err := zerr.With(domain.ErrPackageNotFound, "package", "Core")
	lg.Error(zerr.With(err, "path", "/work/example"))

	output := buf.String()
	for _, want := range []string{"ERROR", "package not found", "package=Core", "path=/work/example"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got: %s", want, output)
		}
	}
}
