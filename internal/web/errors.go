package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. Error is mapped via core.MapError to a user message and HTTP status
//  4. Technical error + context is logged with request ID for correlation
//  5. User message, plus the file-level detail for parse and column
//     errors, is written as JSON or MessagePack

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/tabstat/internal/core"
	"github.com/JonMunkholm/tabstat/internal/logging"
)

var errRateLimited = errors.New("rate limit exceeded")

// ErrorResponse represents the structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs the technical error server-side and returns the mapped
// user-facing message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context()).With(
		"path", r.URL.Path,
		"method", r.Method,
		"status", msg.Status,
		"code", msg.Code,
		"error", err.Error(),
	)
	if msg.Status >= http.StatusInternalServerError {
		logger.Error("request error")
	} else {
		logger.Warn("request rejected")
	}

	respond(w, r, msg.Status, newErrorResponse(msg))
}

// newErrorResponse builds the response body for msg. Message carries the
// detail when the error points at something in the uploaded file.
func newErrorResponse(msg core.UserMessage) ErrorResponse {
	message := msg.Message
	if msg.Detail != "" {
		message += ": " + msg.Detail
	}
	return ErrorResponse{
		Error:   msg.Message,
		Message: message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
}
