package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestConfigError(t *testing.T) {
	underlying := errors.New("unknown engine")
	err := NewConfigError("engine", "tgrep", underlying).WithSuggestion("tgrep2")

	if err.Type != ErrorTypeConfig {
		t.Errorf("Expected Type to be ErrorTypeConfig, got %v", err.Type)
	}

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	expectedMsg := `config error for field engine (value "tgrep"): unknown engine; did you mean "tgrep2"?`
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestUnsupportedError(t *testing.T) {
	err := NewUnsupportedError("regex", "trees")

	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected errors.Is(err, ErrUnsupported)")
	}

	wrapped := fmt.Errorf("engine: %w", err)
	if !IsUnsupported(wrapped) {
		t.Errorf("Expected wrapped error to be recognised as unsupported")
	}

	var target *UnsupportedError
	if !errors.As(wrapped, &target) || target.Operation != "trees" {
		t.Errorf("Expected errors.As to recover the operation, got %+v", target)
	}
}

func TestProcessError(t *testing.T) {
	underlying := errors.New("exit status 2")
	err := NewProcessError("tgrep2 query", "corpus.mrg.t2c.gz", 2, "  bad pattern\n", underlying)

	if err.ExitCode != 2 {
		t.Errorf("Expected ExitCode 2, got %d", err.ExitCode)
	}

	expectedMsg := "tgrep2 query failed for corpus.mrg.t2c.gz (exit 2): bad pattern"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}

	noStderr := NewProcessError("tgrep2 extract", "c.t2c.gz", 1, "", underlying)
	if noStderr.Error() != "tgrep2 extract failed for c.t2c.gz (exit 1): exit status 2" {
		t.Errorf("Unexpected message without stderr: %q", noStderr.Error())
	}
}

func TestParseError(t *testing.T) {
	underlying := errors.New("missing delimiter")
	err := NewParseError("corpus.t2c.gz", 3, "garbage", underlying)

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	expectedMsg := `parse error at corpus.t2c.gz:3 (near "garbage"): missing delimiter`
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestSearchError(t *testing.T) {
	underlying := errors.New("invalid pattern")
	err := NewSearchError("(cat", underlying)

	if err.Type != ErrorTypeSearch {
		t.Errorf("Expected Type to be ErrorTypeSearch, got %v", err.Type)
	}

	expectedMsg := `search failed for pattern "(cat": invalid pattern`
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestFileError(t *testing.T) {
	err := NewFileError("read", "/corpus.txt", errors.New("open /corpus.txt: permission denied"))
	if err.Type != ErrorTypePermission {
		t.Errorf("Expected Type to be ErrorTypePermission, got %v", err.Type)
	}

	err = NewFileError("read", "/corpus.txt", errors.New("no such file or directory"))
	if err.Type != ErrorTypeFileNotFound {
		t.Errorf("Expected Type to be ErrorTypeFileNotFound, got %v", err.Type)
	}
}
