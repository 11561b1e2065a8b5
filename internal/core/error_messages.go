// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// Errors are classified in two passes. Known sentinels are matched with
// errors.Is first, so wrapped errors keep their code no matter how the
// message reads. Anything left is matched case-insensitively against message
// patterns, and finally falls back to ERR000.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: The file exceeds the upload size limit
//	          Action: Upload a smaller file or remove unused columns
//	          Sentinel: ErrFileTooLarge. Patterns: "request body too large", "file too large"
//	          HTTP 413
//
//	FILE002 - Invalid content: The file could not be read as a table
//	          Action: Check that the file is a valid CSV, XLS or XLSX document
//	          Sentinel: dataset.ErrParse
//	          HTTP 422
//
//	FILE004 - No file: No file was provided
//	          Action: Attach a file in the "file" form field
//	          Sentinel: ErrNoFileProvided
//	          HTTP 400
//
//	FILE006 - Unsupported type: Only csv, xls and xlsx files are accepted
//	          Action: Save the file in one of the supported formats
//	          Sentinel: dataset.ErrUnsupportedFormat
//	          HTTP 415
//
// # Column Errors (COL001-COL099)
//
//	COL001 - Unknown column: The requested column is not in the file
//	         Action: Check the column name against the file header
//	         Sentinel: dataset.ErrUnknownColumn
//	         HTTP 400
//
//	COL002 - Missing column: No group column was given
//	         Action: Provide the group_by form field
//	         Sentinel: ErrMissingColumn
//	         HTTP 400
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many uploads in progress
//	         Action: Please wait a moment and try again
//	         Sentinel: ErrTooManyUploads
//	         HTTP 503
//
//	UPL004 - Request cancelled: Request was cancelled
//	         Action: Please try again
//	         Sentinel: context.Canceled
//	         HTTP 408
//
//	UPL005 - Request timeout: Analysis took too long
//	         Action: Try a smaller file or try again later
//	         Sentinel: context.DeadlineExceeded. Patterns: "timeout"
//	         HTTP 504
//
// # Record Errors (REC001-REC099)
//
//	REC001 - History disabled: Upload history is not enabled
//	         Action: Configure DATABASE_URL to keep upload records
//	         Sentinel: ErrRecordsDisabled
//	         HTTP 404
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//	          HTTP 429
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//	         HTTP 500
//
// # For Support Staff
//
// When a user reports an error code:
//  1. Look up the code in this reference
//  2. Check the associated sentinel or patterns to understand what triggered it
//  3. Review the suggested action to guide the user
//  4. If ERR000, check application logs for the original technical error
package core

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/tabstat/internal/dataset"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
	Status  int    // HTTP status

	// Detail is the error text that pinpoints the problem, such as the line
	// of a parse failure or the missing column name. Only set for FILE002
	// and COL001, whose details come from the file itself.
	Detail string
}

var (
	msgFileTooLarge = UserMessage{
		Message: "The file exceeds the upload size limit",
		Action:  "Upload a smaller file or remove unused columns",
		Code:    "FILE001",
		Status:  http.StatusRequestEntityTooLarge,
	}
	msgTimeout = UserMessage{
		Message: "Analysis took too long",
		Action:  "Try a smaller file or try again later",
		Code:    "UPL005",
		Status:  http.StatusGatewayTimeout,
	}
)

// errorSentinel maps a sentinel error to its user message.
type errorSentinel struct {
	err    error
	msg    UserMessage
	detail bool
}

// errorSentinels is checked in order with errors.Is before any pattern.
var errorSentinels = []errorSentinel{
	{err: ErrFileTooLarge, msg: msgFileTooLarge},
	{
		err: ErrNoFileProvided,
		msg: UserMessage{
			Message: "No file was provided",
			Action:  `Attach a file in the "file" form field`,
			Code:    "FILE004",
			Status:  http.StatusBadRequest,
		},
	},
	{
		err: dataset.ErrUnsupportedFormat,
		msg: UserMessage{
			Message: "Only csv, xls and xlsx files are accepted",
			Action:  "Save the file in one of the supported formats",
			Code:    "FILE006",
			Status:  http.StatusUnsupportedMediaType,
		},
	},
	{
		err: dataset.ErrParse,
		msg: UserMessage{
			Message: "The file could not be read as a table",
			Action:  "Check that the file is a valid CSV, XLS or XLSX document",
			Code:    "FILE002",
			Status:  http.StatusUnprocessableEntity,
		},
		detail: true,
	},
	{
		err: dataset.ErrUnknownColumn,
		msg: UserMessage{
			Message: "The requested column is not in the file",
			Action:  "Check the column name against the file header",
			Code:    "COL001",
			Status:  http.StatusBadRequest,
		},
		detail: true,
	},
	{
		err: ErrMissingColumn,
		msg: UserMessage{
			Message: "No group column was given",
			Action:  "Provide the group_by form field",
			Code:    "COL002",
			Status:  http.StatusBadRequest,
		},
	},
	{
		err: ErrTooManyUploads,
		msg: UserMessage{
			Message: "Too many uploads in progress",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
			Status:  http.StatusServiceUnavailable,
		},
	},
	{
		err: context.Canceled,
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
			Status:  http.StatusRequestTimeout,
		},
	},
	{err: context.DeadlineExceeded, msg: msgTimeout},
	{
		err: ErrRecordsDisabled,
		msg: UserMessage{
			Message: "Upload history is not enabled",
			Action:  "Configure DATABASE_URL to keep upload records",
			Code:    "REC001",
			Status:  http.StatusNotFound,
		},
	},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages
// for errors that do not wrap a known sentinel. The first match wins.
var errorPatterns = []errorPattern{
	{"request body too large", msgFileTooLarge},
	{"file too large", msgFileTooLarge},
	{"timeout", msgTimeout},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
			Status:  http.StatusTooManyRequests,
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
	Status:  http.StatusInternalServerError,
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	err := fmt.Errorf("summary: %w", dataset.ErrParse)
//	msg := MapError(err)
//	// msg.Code == "FILE002"
//	// msg.Status == 422
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, es := range errorSentinels {
		if errors.Is(err, es.err) {
			msg := es.msg
			if es.detail {
				msg.Detail = innermost(err, es.err)
			}
			return msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// innermost returns the text of the deepest error in err's chain that still
// matches target, skipping the caller's own wrapping.
func innermost(err, target error) string {
	var found error
	for e := err; e != nil; e = errors.Unwrap(e) {
		if e != target && errors.Is(e, target) {
			found = e
		}
	}
	if found == nil {
		return ""
	}
	return found.Error()
}
