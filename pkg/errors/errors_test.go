package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNotFound(t *testing.T) {
	err := NotFound(CodeSessionNotFound, "reconciliation session", "s1")

	if !IsNotFound(err) {
		t.Error("expected IsNotFound to be true")
	}
	if IsValidation(err) {
		t.Error("expected IsValidation to be false")
	}
	if err.Code != CodeSessionNotFound {
		t.Errorf("code = %s, want %s", err.Code, CodeSessionNotFound)
	}
	if err.Context["id"] != "s1" {
		t.Errorf("context id = %v, want s1", err.Context["id"])
	}
}

func TestValidation(t *testing.T) {
	err := Validation(CodeInvalidConfig, "date tolerance", -1, "cannot be negative")

	if !IsValidation(err) {
		t.Error("expected IsValidation to be true")
	}
	if err.ExitCode() != 2 {
		t.Errorf("exit code = %d, want 2", err.ExitCode())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Storage("insert item", cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected wrapped cause to be in the chain")
	}
	if err.ExitCode() != 4 {
		t.Errorf("storage exit code = %d, want 4", err.ExitCode())
	}
	if len(err.StackTrace) == 0 {
		t.Error("expected a captured stack trace")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, CategoryStorage, CodeStorageFailure, "nothing") != nil {
		t.Error("wrapping nil should return nil")
	}
}

func TestAsEngineErrorThroughChain(t *testing.T) {
	inner := NotFound(CodePatternNotFound, "recurring pattern", "p1")
	wrapped := fmt.Errorf("sweep failed: %w", inner)

	got, ok := AsEngineError(wrapped)
	if !ok {
		t.Fatal("expected engine error in chain")
	}
	if got.Code != CodePatternNotFound {
		t.Errorf("code = %s, want %s", got.Code, CodePatternNotFound)
	}
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should see through fmt wrapping")
	}
}

func TestWrapIfNeeded(t *testing.T) {
	engine := Validation(CodeInvalidInput, "field", "v", "bad")
	if got := WrapIfNeeded(engine, CategoryInternal, CodeUnexpectedError, "x"); got != engine {
		t.Error("existing engine error should pass through unchanged")
	}

	plain := fmt.Errorf("boom")
	got := WrapIfNeeded(plain, CategoryInternal, CodeUnexpectedError, "processing failed")
	if got.Category != CategoryInternal {
		t.Errorf("category = %s, want %s", got.Category, CategoryInternal)
	}
	if !stderrors.Is(got, plain) {
		t.Error("expected original error in the chain")
	}
}
