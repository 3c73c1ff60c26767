package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/stmtimport/internal/csvfile"
	"github.com/JonMunkholm/stmtimport/internal/database"
	"github.com/JonMunkholm/stmtimport/internal/export"
	"github.com/JonMunkholm/stmtimport/internal/strategy"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"duplicate account name", errors.New(`ERROR: duplicate key value violates unique constraint "accounts_name_key"`), "DB001"},
		{"foreign key", errors.New("insert or update violates foreign key constraint"), "DB002"},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: connection refused"), "DB003"},
		{"deadlock", errors.New("ERROR: deadlock detected"), "DB005"},
		{"wrapped import not found", fmt.Errorf("import abc: %w", ErrImportNotFound), "IMP001"},
		{"invalid phase", fmt.Errorf("commit: %w", ErrInvalidPhase), "IMP002"},
		{"limiter busy", ErrTooManyImports, "IMP003"},
		{"commit incomplete", fmt.Errorf("commit: %w", ErrCommitIncomplete), "IMP006"},
		{"not archived", fmt.Errorf("import x: %w", ErrNotArchived), "IMP007"},
		{"file too large", fmt.Errorf("%w: limit is 10 bytes", ErrFileTooLarge), "FILE001"},
		{"no header", csvfile.ErrNoHeader, "FILE002"},
		{"too many rows", fmt.Errorf("%w: limit is 2", csvfile.ErrTooManyRows), "FILE003"},
		{"no file", errors.New("no file provided"), "FILE004"},
		{"unreadable csv", errors.New(`read csv row 3: bare " in non-quoted field`), "FILE005"},
		{"no matching strategy", ErrNoMatchingStrategy, "STR002"},
		{"incomplete strategy", fmt.Errorf("%w: missing AMOUNT", ErrStrategyIncomplete), "STR003"},
		{"unresolved reference", fmt.Errorf("%w: account %q not found", export.ErrUnresolved, "Main"), "STR004"},
		{"unsupported version", export.ErrUnsupportedVersion, "STR005"},
		{"strategy not found", fmt.Errorf("strategy 4: %w", database.ErrNotFound), "STR001"},
		{"duplicate field", fmt.Errorf("%w: AMOUNT", strategy.ErrDuplicateField), "MAP002"},
		{"invalid mapping", fmt.Errorf("%w: column required", strategy.ErrInvalidMapping), "MAP001"},
		{"cancelled", fmt.Errorf("commit: %w", context.Canceled), "IMP004"},
		{"deadline", context.DeadlineExceeded, "IMP005"},
		{"rate limit", errors.New("rate limit exceeded"), "RATE001"},
		{"case insensitive", errors.New("DUPLICATE KEY value"), "DB001"},
		{"unknown error returns default", errors.New("some random internal error"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.err != nil && got.Message == "" {
				t.Error("MapError() returned an empty message")
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrImportNotFound)
	want := "Import session not found (Code: IMP001). The import may have expired. Upload the file again"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"sentinel is user facing", ErrInvalidPhase, true},
		{"pattern is user facing", errors.New("duplicate key"), true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("get import: %w", ErrImportNotFound)
		userErr := NewUserError(techErr)

		if userErr.Error() != "Import session not found" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, ErrImportNotFound) {
			t.Error("Unwrap() should expose the original error")
		}
	})
}
