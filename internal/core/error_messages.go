package core

// error_messages.go maps technical errors to user-facing messages with a
// support code.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: The translation was written concurrently
//	DB002 - Foreign key: Referenced string or context no longer exists
//	DB003 - Connection refused: Unable to connect to database
//	DB004 - Connection reset: Database connection was interrupted
//	DB005 - Timeout: Operation timed out
//	DB006 - Deadlock: Database was busy with conflicting operations
//	DB007 - Serialization: Concurrent import conflict
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Not a spreadsheet
//	FILE004 - No file provided
//	FILE005 - Empty file
//
// # Workbook Errors (XLS001-XLS099)
//
//	XLS001 - Unreadable workbook
//	XLS002 - Workbook created for a different translation
//	XLS003 - Header row was modified
//	XLS004 - Content holds characters a spreadsheet cannot store
//
// # Permission Errors (AUTH001-AUTH099)
//
//	AUTH001 - Permission denied
//	AUTH002 - Translation not found
//
// # Import Errors (UPL001-UPL099)
//
//	UPL002 - System busy: too many imports
//	UPL004 - Request cancelled
//	UPL005 - Request timed out
//
// # Lock Errors (LOCK001-LOCK099)
//
//	LOCK001 - Import already running for this unit
//
// # Default Error (ERR000)
//
// When a user reports ERR000, check the application logs for the original
// technical error.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Remove unrelated sheets or split the translation",
		Code:    "FILE001",
	}
	msgInvalidFile = UserMessage{
		Message: "Please upload a valid XLSX file.",
		Action:  "Export the translation again and edit only the Translation column",
		Code:    "XLS001",
	}
	msgWrongUnit = UserMessage{
		Message: "Cannot import XLSX file that was created for a different translation.",
		Action:  "Download the spreadsheet for this translation and try again",
		Code:    "XLS002",
	}
	msgHeaderChanged = UserMessage{
		Message: "The spreadsheet header row was modified",
		Action:  "Restore the ID, Original and Translation headers in row 3",
		Code:    "XLS003",
	}
	msgUnsupportedText = UserMessage{
		Message: "The content contains characters that cannot be stored in a spreadsheet",
		Action:  "Remove control characters from the reported row and export again",
		Code:    "XLS004",
	}
	msgPermissionDenied = UserMessage{
		Message: "You do not have permission to edit this translation",
		Action:  "Ask an administrator for access",
		Code:    "AUTH001",
	}
	msgUnitNotFound = UserMessage{
		Message: "Translation not found",
		Action:  "Check the link or select the translation again",
		Code:    "AUTH002",
	}
	msgTooManyImports = UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgImportInProgress = UserMessage{
		Message: "Another import of this translation is running",
		Action:  "Wait for it to finish, then upload again",
		Code:    "LOCK001",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}
	msgDeadline = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "UPL005",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user
// messages. The first match wins, so specific patterns come first.
var errorPatterns = []errorPattern{
	{"duplicate key", UserMessage{
		Message: "The translation was changed by someone else during the import",
		Action:  "Upload the file again",
		Code:    "DB001",
	}},
	{"violates foreign key", UserMessage{
		Message: "A source string or context was removed during the import",
		Action:  "Export the translation again and reapply your changes",
		Code:    "DB002",
	}},
	{"connection refused", UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB003",
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB004",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "DB005",
	}},
	{"deadlock", UserMessage{
		Message: "Database was busy with conflicting operations",
		Action:  "Please try again",
		Code:    "DB006",
	}},
	{"could not serialize", UserMessage{
		Message: "Another import changed the same translations",
		Action:  "Please try again",
		Code:    "DB007",
	}},
	{"not a valid zip", msgInvalidFile},
	{"zip: ", UserMessage{
		Message: "File is not a spreadsheet",
		Action:  "Upload the .xlsx file that was downloaded from this page",
		Code:    "FILE002",
	}},
	{"no file provided", UserMessage{
		Message: "No file was selected",
		Action:  "Please select an XLSX file to upload",
		Code:    "FILE004",
	}},
	{"empty file", UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload the XLSX file exported from this page",
		Code:    "FILE005",
	}},
	{"request body too large", msgFileTooLarge},
	{"context canceled", msgCancelled},
	{"context deadline exceeded", msgDeadline},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Known
// sentinel and typed errors are matched with errors.Is/As before the
// pattern table is consulted.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if msg, ok := mapKnown(err); ok {
		return msg
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

func mapKnown(err error) (UserMessage, bool) {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return msgFileTooLarge, true
	case errors.Is(err, ErrUnsupportedText):
		return msgUnsupportedText, true
	case errors.Is(err, ErrPermissionDenied):
		return msgPermissionDenied, true
	case errors.Is(err, ErrUnitNotFound):
		return msgUnitNotFound, true
	case errors.Is(err, ErrTooManyImports):
		return msgTooManyImports, true
	case errors.Is(err, ErrImportInProgress):
		return msgImportInProgress, true
	case errors.Is(err, context.Canceled):
		return msgCancelled, true
	case errors.Is(err, context.DeadlineExceeded):
		return msgDeadline, true
	}

	var se *StructuralError
	if errors.As(err, &se) {
		switch se.Reason {
		case ReasonIdentityMismatch:
			return msgWrongUnit, true
		case ReasonHeaderMismatch:
			return msgHeaderChanged, true
		default:
			return msgInvalidFile, true
		}
	}
	return UserMessage{}, false
}

// OutcomeMessage returns the user message for a rejected import outcome.
func OutcomeMessage(o *ImportOutcome) UserMessage {
	switch o.Status {
	case StatusWrongUnit:
		return msgWrongUnit
	case StatusInvalidFile:
		return msgInvalidFile
	default:
		return UserMessage{}
	}
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
