package exitcodes

import (
	"errors"
	"fmt"
	"testing"
)

// TestExitCodeConstants verifies all exit code constants have expected values
func TestExitCodeConstants(t *testing.T) {
	tests := []struct {
		name string
		code int
		want int
	}{
		{"Success", Success, 0},
		{"GeneralError", GeneralError, 1},
		{"InvalidArgs", InvalidArgs, 2},
		{"PreconditionFailed", PreconditionFailed, 3},
		{"NetworkError", NetworkError, 4},
		{"IOError", IOError, 5},
		{"ValidationError", ValidationError, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code != tt.want {
				t.Errorf("%s = %d, want %d", tt.name, tt.code, tt.want)
			}
		})
	}
}

// TestNewError tests NewError constructor
func TestNewError(t *testing.T) {
	tests := []struct {
		name        string
		code        int
		message     string
		wantCode    int
		wantMessage string
	}{
		{
			name:        "simple error",
			code:        InvalidArgs,
			message:     "invalid argument",
			wantCode:    InvalidArgs,
			wantMessage: "invalid argument",
		},
		{
			name:        "network error",
			code:        NetworkError,
			message:     "connection failed",
			wantCode:    NetworkError,
			wantMessage: "connection failed",
		},
		{
			name:        "custom code",
			code:        99,
			message:     "custom error",
			wantCode:    99,
			wantMessage: "custom error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewError(tt.code, tt.message)
			if err.Code != tt.wantCode {
				t.Errorf("NewError() Code = %d, want %d", err.Code, tt.wantCode)
			}
			if err.Message != tt.wantMessage {
				t.Errorf("NewError() Message = %q, want %q", err.Message, tt.wantMessage)
			}
			if err.Cause != nil {
				t.Errorf("NewError() Cause = %v, want nil", err.Cause)
			}
			if err.Error() != tt.wantMessage {
				t.Errorf("NewError().Error() = %q, want %q", err.Error(), tt.wantMessage)
			}
		})
	}
}

// TestWrapError tests WrapError constructor
func TestWrapError(t *testing.T) {
	baseErr := errors.New("base error")

	tests := []struct {
		name        string
		code        int
		message     string
		cause       error
		wantCode    int
		wantMessage string
		wantError   string
	}{
		{
			name:        "wrap standard error",
			code:        NetworkError,
			message:     "connection failed",
			cause:       baseErr,
			wantCode:    NetworkError,
			wantMessage: "connection failed",
			wantError:   "connection failed: base error",
		},
		{
			name:        "wrap nil error",
			code:        InvalidArgs,
			message:     "validation failed",
			cause:       nil,
			wantCode:    InvalidArgs,
			wantMessage: "validation failed",
			wantError:   "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapError(tt.code, tt.message, tt.cause)
			if err.Code != tt.wantCode {
				t.Errorf("WrapError() Code = %d, want %d", err.Code, tt.wantCode)
			}
			if err.Message != tt.wantMessage {
				t.Errorf("WrapError() Message = %q, want %q", err.Message, tt.wantMessage)
			}
			if err.Cause != tt.cause {
				t.Errorf("WrapError() Cause = %v, want %v", err.Cause, tt.cause)
			}
			if err.Error() != tt.wantError {
				t.Errorf("WrapError().Error() = %q, want %q", err.Error(), tt.wantError)
			}
		})
	}
}

// TestErrorWithCode_Unwrap tests the Unwrap() method
func TestErrorWithCode_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")

	tests := []struct {
		name string
		err  *ErrorWithCode
		want error
	}{
		{
			name: "unwrap with cause",
			err:  &ErrorWithCode{Code: InvalidArgs, Message: "wrapper", Cause: baseErr},
			want: baseErr,
		},
		{
			name: "unwrap without cause",
			err:  &ErrorWithCode{Code: NetworkError, Message: "no cause"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Unwrap(); got != tt.want {
				t.Errorf("ErrorWithCode.Unwrap() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestCodeForError tests CodeForError function
func TestCodeForError(t *testing.T) {
	standardErr := errors.New("standard error")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "nil error",
			err:  nil,
			want: Success,
		},
		{
			name: "InvalidArgs error",
			err:  InvalidArgsError("invalid arg"),
			want: InvalidArgs,
		},
		{
			name: "PreconditionFailed error",
			err:  PreconditionError("conditions unmet"),
			want: PreconditionFailed,
		},
		{
			name: "NetworkError error",
			err:  NetworkErr("feed unreachable"),
			want: NetworkError,
		},
		{
			name: "IOError error",
			err:  IOErr("cache write failed"),
			want: IOError,
		},
		{
			name: "ValidationError error",
			err:  ValidationErr("checksum mismatch"),
			want: ValidationError,
		},
		{
			name: "custom code",
			err:  NewError(99, "custom error"),
			want: 99,
		},
		{
			name: "standard error",
			err:  standardErr,
			want: GeneralError,
		},
		{
			name: "wrapped ErrorWithCode",
			err:  WrapError(NetworkError, "network issue", standardErr),
			want: NetworkError,
		},
		{
			name: "ErrorWithCode behind fmt.Errorf",
			err:  fmt.Errorf("download: %w", NetworkErr("connection reset")),
			want: NetworkError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeForError(tt.err); got != tt.want {
				t.Errorf("CodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// TestErrorChaining tests that errors can be properly chained and unwrapped
func TestErrorChaining(t *testing.T) {
	baseErr := errors.New("base error")
	wrappedErr := WrapError(NetworkError, "network failure", baseErr)

	if wrappedErr.Error() != "network failure: base error" {
		t.Errorf("Error() = %q, want %q", wrappedErr.Error(), "network failure: base error")
	}

	if unwrapped := wrappedErr.Unwrap(); unwrapped != baseErr {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, baseErr)
	}

	if !errors.Is(wrappedErr, baseErr) {
		t.Errorf("errors.Is(wrappedErr, baseErr) = false, want true")
	}
}

// TestMultipleLevelWrapping tests wrapping ErrorWithCode with another ErrorWithCode
func TestMultipleLevelWrapping(t *testing.T) {
	baseErr := errors.New("io error")
	level1 := WrapError(IOError, "cache write failed", baseErr)
	level2 := WrapError(GeneralError, "operation failed", level1)

	if level2.Unwrap() != level1 {
		t.Errorf("level2.Unwrap() != level1")
	}
	if level1.Unwrap() != baseErr {
		t.Errorf("level1.Unwrap() != baseErr")
	}
	if !errors.Is(level2, baseErr) {
		t.Errorf("errors.Is(level2, baseErr) = false, want true")
	}

	// CodeForError should return the code from the outermost error
	if code := CodeForError(level2); code != GeneralError {
		t.Errorf("CodeForError(level2) = %d, want %d", code, GeneralError)
	}
}
