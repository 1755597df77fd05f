package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		code     string
		category Category
		severity Severity
	}{
		{ErrCodeConfigInvalid, CategoryConfig, SeverityError},
		{ErrCodeRecordWrite, CategoryStorage, SeverityError},
		{ErrCodeRecordCorrupt, CategoryStorage, SeverityFatal},
		{ErrCodeOracleUnavailable, CategoryOracle, SeverityWarning},
		{ErrCodeLockContention, CategoryLock, SeverityInfo},
		{ErrCodeLockArtifact, CategoryLock, SeverityError},
		{ErrCodeInternal, CategoryInternal, SeverityError},
	}

	for _, tt := range tests {
		err := New(tt.code, "test", nil)
		if err.Category != tt.category {
			t.Errorf("code %s: category = %s, want %s", tt.code, err.Category, tt.category)
		}
		if err.Severity != tt.severity {
			t.Errorf("code %s: severity = %s, want %s", tt.code, err.Severity, tt.severity)
		}
	}
}

func TestError_Format(t *testing.T) {
	err := New(ErrCodeLockArtifact, "cannot create lock file", nil)
	want := "[ERR_402_LOCK_ARTIFACT] cannot create lock file"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(ErrCodeRecordWrite, cause)

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
	if err.Message != "disk full" {
		t.Errorf("Message = %q, want cause message", err.Message)
	}
}

func TestWrap_NilError(t *testing.T) {
	if err := Wrap(ErrCodeRecordWrite, nil); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestIsContention(t *testing.T) {
	cont := Contention("/some/path")
	if !IsContention(cont) {
		t.Error("IsContention should be true for contention error")
	}
	if cont.Details["path"] != "/some/path" {
		t.Errorf("path detail = %q", cont.Details["path"])
	}

	// Still detected through wrapping.
	wrapped := fmt.Errorf("indexing failed: %w", cont)
	if !IsContention(wrapped) {
		t.Error("IsContention should see through error wrapping")
	}

	other := New(ErrCodeLockArtifact, "io error", nil)
	if IsContention(other) {
		t.Error("IsContention should be false for non-contention lock error")
	}
	if IsContention(nil) {
		t.Error("IsContention(nil) should be false")
	}
}

func TestIs_MatchesByCode(t *testing.T) {
	a := New(ErrCodeOracleParse, "bad json", nil)
	b := New(ErrCodeOracleParse, "different message", nil)
	if !stderrors.Is(a, b) {
		t.Error("errors with the same code should match via errors.Is")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(New(ErrCodeOracleUnavailable, "timeout", nil)) {
		t.Error("oracle unavailable should be retryable")
	}
	if IsRetryable(New(ErrCodeRecordWrite, "failed", nil)) {
		t.Error("record write should not be retryable")
	}
	if IsRetryable(stderrors.New("plain")) {
		t.Error("plain errors are not retryable")
	}
}
