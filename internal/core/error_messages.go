package core

// error_messages.go turns technical errors into coded messages for users.
// Support staff look a code up here to see what triggered it.
//
// Database (DB001-DB099)
//
//	DB001 - Name already in use           patterns: "duplicate key", "violates unique"
//	DB002 - Referenced record missing     patterns: "violates foreign key"
//	DB003 - Database unreachable          patterns: "connection refused"
//	DB004 - Connection interrupted        patterns: "connection reset"
//	DB005 - Database busy                 patterns: "deadlock"
//
// Mapping (MAP001-MAP099)
//
//	MAP001 - Invalid field mapping        strategy.ErrInvalidMapping
//	MAP002 - Field mapped twice           strategy.ErrDuplicateField
//	MAP003 - Amount could not be parsed   patterns: "failed to parse amount"
//	MAP004 - Date could not be parsed     patterns: "failed to parse timestamp"
//
// Strategies and resolution (STR001-STR099)
//
//	STR001 - Strategy not found           database.ErrNotFound
//	STR002 - No strategy matches the file ErrNoMatchingStrategy
//	STR003 - Strategy is incomplete       ErrStrategyIncomplete
//	STR004 - Unresolved reference         export.ErrUnresolved
//	STR005 - Unsupported export version   export.ErrUnsupportedVersion
//	STR006 - Strategy name required      patterns: "strategy name is required"
//
// Files (FILE001-FILE099)
//
//	FILE001 - File too large              ErrFileTooLarge
//	FILE002 - No header row               csvfile.ErrNoHeader
//	FILE003 - Too many rows               csvfile.ErrTooManyRows
//	FILE004 - No file selected            patterns: "no file provided"
//	FILE005 - Not a readable CSV          patterns: "read csv"
//
// Import sessions (IMP001-IMP099)
//
//	IMP001 - Import expired or unknown    ErrImportNotFound
//	IMP002 - Step not allowed now         ErrInvalidPhase
//	IMP003 - Too many imports running     ErrTooManyImports
//	IMP004 - Request cancelled            context.Canceled
//	IMP005 - Request timed out            context.DeadlineExceeded, pattern "timeout"
//	IMP006 - Commit was rolled back       ErrCommitIncomplete
//	IMP007 - Statement not archived       ErrNotArchived
//
// Rate limiting
//
//	RATE001 - Too many requests           patterns: "rate limit"
//
// Anything else is ERR000; check the logs for the technical error.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/stmtimport/internal/csvfile"
	"github.com/JonMunkholm/stmtimport/internal/database"
	"github.com/JonMunkholm/stmtimport/internal/export"
	"github.com/JonMunkholm/stmtimport/internal/strategy"
)

// UserMessage is what a user sees for a failed operation.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

// errorSentinels are matched with errors.Is before any pattern.
var errorSentinels = []struct {
	err error
	msg UserMessage
}{
	{ErrImportNotFound, UserMessage{"Import session not found", "The import may have expired. Upload the file again", "IMP001"}},
	{ErrInvalidPhase, UserMessage{"This step is not allowed for the import right now", "Create the pending accounts first, or start a new import", "IMP002"}},
	{ErrTooManyImports, UserMessage{"Too many imports in progress", "Please wait a moment and try again", "IMP003"}},
	{ErrCommitIncomplete, UserMessage{"The import could not be saved completely and was rolled back", "Commit the import again", "IMP006"}},
	{ErrNotArchived, UserMessage{"No archived copy of this statement", "Statements are only archived when a bucket is configured", "IMP007"}},
	{ErrFileTooLarge, UserMessage{"File exceeds the maximum size", "Split the statement into smaller files", "FILE001"}},
	{csvfile.ErrNoHeader, UserMessage{"The file has no header row", "Export the statement with column headings", "FILE002"}},
	{csvfile.ErrTooManyRows, UserMessage{"The file has too many rows", "Split the statement into smaller files", "FILE003"}},
	{ErrNoMatchingStrategy, UserMessage{"No import strategy matches this file", "Create a strategy for these columns or choose one explicitly", "STR002"}},
	{ErrStrategyIncomplete, UserMessage{"The import strategy is incomplete", "Map every required field before importing", "STR003"}},
	{export.ErrUnresolved, UserMessage{"The strategy refers to something that does not exist", "Map the reference to an existing entry or create it", "STR004"}},
	{export.ErrUnsupportedVersion, UserMessage{"The export file version is not supported", "Export the strategy again from an up to date installation", "STR005"}},
	{database.ErrNotFound, UserMessage{"Strategy not found", "Refresh the list and pick an existing strategy", "STR001"}},
	{strategy.ErrDuplicateField, UserMessage{"A field is mapped more than once", "Remove the duplicate field mapping", "MAP002"}},
	{strategy.ErrInvalidMapping, UserMessage{"A field mapping is invalid", "Check the columns and options of each mapping", "MAP001"}},
	{context.Canceled, UserMessage{"Request was cancelled", "Please try again", "IMP004"}},
	{context.DeadlineExceeded, UserMessage{"Request timed out", "Try a smaller file or try again later", "IMP005"}},
}

// errorPatterns are matched case-insensitively against the error text.
// The first match wins, so specific patterns come first.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"duplicate key", UserMessage{"That name is already in use", "Pick a different name or reuse the existing entry", "DB001"}},
	{"violates unique", UserMessage{"That name is already in use", "Pick a different name or reuse the existing entry", "DB001"}},
	{"violates foreign key", UserMessage{"Referenced record does not exist", "Reload the page and try again", "DB002"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB003"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB004"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB005"}},
	{"failed to parse amount", UserMessage{"An amount could not be read", "Check the amount columns and their number format", "MAP003"}},
	{"failed to parse timestamp", UserMessage{"A date could not be read", "Check the date format of the strategy", "MAP004"}},
	{"strategy name is required", UserMessage{"The strategy needs a name", "Enter a name for the strategy", "STR006"}},
	{"no file provided", UserMessage{"No file was selected", "Choose a CSV statement to upload", "FILE004"}},
	{"read csv", UserMessage{"The file is not a readable CSV", "Save the statement as CSV and try again", "FILE005"}},
	{"timeout", UserMessage{"Request timed out", "Try a smaller file or try again later", "IMP005"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError returns the user message for err, or the ERR000 fallback.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, s := range errorSentinels {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}
	text := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(text, p.pattern) {
			return p.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string { return e.User.Message }

func (e *UserError) Unwrap() error { return e.Technical }

// NewUserError maps err. It returns nil for a nil err.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
