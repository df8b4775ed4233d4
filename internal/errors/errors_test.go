package errors

import (
	stderrors "errors"
	"testing"
)

func TestWrapPreservesCode(t *testing.T) {
	base := New(CodeValidationError, "bad request")
	wrapped := Wrap(base, "decoding payload")

	if GetCode(wrapped) != CodeValidationError {
		t.Errorf("wrapping an AppError should keep its code, got %q", GetCode(wrapped))
	}
	if !stderrors.Is(wrapped, base) {
		t.Error("wrapped error should match the original through errors.Is")
	}
}

func TestWrapPlainError(t *testing.T) {
	cause := stderrors.New("connection refused")
	wrapped := Wrapf(cause, "connecting to %s", "db")

	if GetCode(wrapped) != CodeInternalError {
		t.Errorf("plain errors wrap with the internal code, got %q", GetCode(wrapped))
	}
	if wrapped.Error() != "connecting to db: connection refused" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
	if !stderrors.Is(wrapped, cause) {
		t.Error("cause should survive wrapping")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "anything") != nil {
		t.Error("Wrap(nil) should stay nil")
	}
	if Wrapf(nil, "anything") != nil {
		t.Error("Wrapf(nil) should stay nil")
	}
	if WithCode(CodeDatabaseError, nil) != nil {
		t.Error("WithCode(nil) should stay nil")
	}
}

func TestWithCode(t *testing.T) {
	cause := stderrors.New("no rows")
	coded := WithCode(CodeDatabaseError, Wrap(cause, "loading result"))

	if GetCode(coded) != CodeDatabaseError {
		t.Errorf("GetCode = %q, want %q", GetCode(coded), CodeDatabaseError)
	}
	if !stderrors.Is(coded, cause) {
		t.Error("recoding should keep the cause chain")
	}
	if coded.Error() != "loading result: no rows" {
		t.Errorf("Error() = %q", coded.Error())
	}
}

func TestGetCodeUnknown(t *testing.T) {
	if got := GetCode(stderrors.New("plain")); got != "UNKNOWN" {
		t.Errorf("GetCode on a plain error = %q", got)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		err  *AppError
		code string
	}{
		{ConfigInvalid("bad env"), CodeConfigInvalid},
		{ValidationError("bad body"), CodeValidationError},
		{InvalidInput("bad id"), CodeInvalidInput},
	}
	for _, tt := range tests {
		if tt.err.Code != tt.code {
			t.Errorf("constructor produced code %q, want %q", tt.err.Code, tt.code)
		}
	}
}
