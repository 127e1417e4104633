package gemmshapes

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestStructuredErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType ErrorType
		wantOp   string
		checkFn  func(error) bool
	}{
		{
			name:     "Empty Name",
			err:      ErrEmptyName,
			wantType: ErrTypeInvalidArg,
			wantOp:   "Validate",
			checkFn:  IsInvalidArgError,
		},
		{
			name:     "Non-positive Tokens",
			err:      ErrNonPositiveTokens,
			wantType: ErrTypeInvalidArg,
			wantOp:   "Problems",
			checkFn:  IsInvalidArgError,
		},
		{
			name:     "Not Found",
			err:      NewNotFoundError("Lookup", "gpt-5"),
			wantType: ErrTypeNotFound,
			wantOp:   "Lookup",
			checkFn:  IsNotFoundError,
		},
		{
			name:     "Duplicate",
			err:      NewDuplicateError("Register", "llama2-7b"),
			wantType: ErrTypeDuplicate,
			wantOp:   "Register",
			checkFn:  IsDuplicateError,
		},
		{
			name:     "Decode",
			err:      NewDecodeError("config.Parse", "bad yaml", errors.New("line 3")),
			wantType: ErrTypeDecode,
			wantOp:   "config.Parse",
			checkFn:  IsDecodeError,
		},
		{
			name:     "IO",
			err:      NewIOError("config.Load", "reading overlay", fs.ErrNotExist),
			wantType: ErrTypeIO,
			wantOp:   "config.Load",
			checkFn:  IsIOError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e *Error
			if !errors.As(tt.err, &e) {
				t.Fatalf("expected *Error, got %T", tt.err)
			}
			if e.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", e.Type, tt.wantType)
			}
			if e.Op != tt.wantOp {
				t.Errorf("Op = %q, want %q", e.Op, tt.wantOp)
			}
			if !tt.checkFn(tt.err) {
				t.Errorf("type check failed for %v", tt.err)
			}
			if !tt.checkFn(fmt.Errorf("wrapped: %w", tt.err)) {
				t.Errorf("type check failed through wrapping for %v", tt.err)
			}
			if !strings.Contains(e.Error(), tt.wantType.String()) {
				t.Errorf("message %q lacks type %s", e.Error(), tt.wantType)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	err := NewIOError("config.Load", "reading overlay", fs.ErrNotExist)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("IO error should unwrap to fs.ErrNotExist")
	}
	if !strings.Contains(err.Error(), "caused by") {
		t.Errorf("message %q should include the cause", err.Error())
	}
	if IsNotFoundError(err) || IsNotFoundError(nil) || IsNotFoundError(errors.New("plain")) {
		t.Error("IsNotFoundError matched a non-NotFound error")
	}
	if got := ErrorType(42).String(); got != "Unknown" {
		t.Errorf("ErrorType(42).String() = %q", got)
	}
}
