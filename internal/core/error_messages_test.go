package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "duplicate key",
			err:      errors.New(`ERROR: duplicate key value violates unique constraint "string_translations_pair_locale_key"`),
			wantCode: "DB001",
		},
		{
			name:     "foreign key",
			err:      errors.New("insert or update on table violates foreign key constraint"),
			wantCode: "DB002",
		},
		{
			name:     "connection refused",
			err:      errors.New("dial tcp 127.0.0.1:5432: connection refused"),
			wantCode: "DB003",
		},
		{
			name:     "serialization failure",
			err:      errors.New("could not serialize access due to concurrent update"),
			wantCode: "DB007",
		},
		{
			name:     "wrapped file too large",
			err:      fmt.Errorf("decode: %w", &StructuralError{Reason: ReasonUnreadable, Cause: ErrFileTooLarge}),
			wantCode: "FILE001",
		},
		{
			name:     "unreadable workbook",
			err:      &StructuralError{Reason: ReasonUnreadable, Cause: errors.New("zip: not a valid zip file")},
			wantCode: "XLS001",
		},
		{
			name:     "identity mismatch",
			err:      &StructuralError{Reason: ReasonIdentityMismatch},
			wantCode: "XLS002",
		},
		{
			name:     "header mismatch",
			err:      &StructuralError{Reason: ReasonHeaderMismatch},
			wantCode: "XLS003",
		},
		{
			name:     "unstorable text on export",
			err:      fmt.Errorf("encode workbook: row 4 (body.heading): %w", ErrUnsupportedText),
			wantCode: "XLS004",
		},
		{
			name:     "permission denied",
			err:      fmt.Errorf("%w: u-1 may not edit", ErrPermissionDenied),
			wantCode: "AUTH001",
		},
		{
			name:     "unit not found",
			err:      fmt.Errorf("%w: 1234", ErrUnitNotFound),
			wantCode: "AUTH002",
		},
		{
			name:     "limiter full",
			err:      ErrTooManyImports,
			wantCode: "UPL002",
		},
		{
			name:     "unit locked",
			err:      ErrImportInProgress,
			wantCode: "LOCK001",
		},
		{
			name:     "cancelled beats pattern table",
			err:      fmt.Errorf("row 3: find string: %w", context.Canceled),
			wantCode: "UPL004",
		},
		{
			name:     "deadline",
			err:      context.DeadlineExceeded,
			wantCode: "UPL005",
		},
		{
			name:     "unknown error returns default",
			err:      errors.New("some random internal error"),
			wantCode: "ERR000",
		},
		{
			name:     "case insensitive matching",
			err:      errors.New("DEADLOCK detected"),
			wantCode: "DB006",
		},
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

func TestOutcomeMessage(t *testing.T) {
	tests := []struct {
		status ImportStatus
		want   string
	}{
		{StatusWrongUnit, "Cannot import XLSX file that was created for a different translation."},
		{StatusInvalidFile, "Please upload a valid XLSX file."},
		{StatusImported, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := OutcomeMessage(&ImportOutcome{Status: tt.status}).Message; got != tt.want {
				t.Errorf("OutcomeMessage(%s) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrTooManyImports)

	expected := "System is busy processing other imports (Code: UPL002). Please wait a moment and try again"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", errors.New("duplicate key"), true},
		{"sentinel is user facing", ErrPermissionDenied, true},
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
