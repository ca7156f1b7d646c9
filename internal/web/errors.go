package web

// errors.go provides unified error response handling for the web layer.
//
// Every failure is logged with its technical cause and request ID, mapped to
// a core.UserMessage, localized, and rendered as JSON, an HTMX fragment or a
// full HTML page depending on the request.

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/locsheet/internal/core"
	"github.com/JonMunkholm/locsheet/internal/logging"
	"github.com/JonMunkholm/locsheet/internal/web/views"
)

var (
	errNoFile    = errors.New("no file provided")
	errEmptyFile = errors.New("empty file")
)

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusForError maps an error to an HTTP status code.
func statusForError(err error) int {
	var se *core.StructuralError
	switch {
	case errors.Is(err, core.ErrUnitNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrImportInProgress):
		return http.StatusConflict
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errNoFile), errors.Is(err, errEmptyFile):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &se), errors.Is(err, core.ErrUnsupportedText):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the localized user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", strconv.Itoa(int(s.cfg.Upload.MaxWaitTime.Seconds())))
	}
	s.writeUserMessage(w, r, msg, status)
}

// writeUserMessage renders msg in the format the client asked for.
func (s *Server) writeUserMessage(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	lang := s.lang(r)
	msg = s.localize(lang, msg)

	if wantsJSON(r) {
		writeJSON(w, status, ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
		return
	}

	alert := views.ErrorAlertPanel(views.ErrorAlert{
		Heading: s.t(lang, "error_heading", nil),
		Message: msg.Message,
		Action:  msg.Action,
		Code:    s.t(lang, "error_code", map[string]any{"Code": msg.Code}),
	})
	if isHTMX(r) {
		s.render(w, r, status, alert)
		return
	}
	s.render(w, r, status, views.Page(lang, s.t(lang, "page_title", nil), "", "", alert))
}

func (s *Server) localize(lang string, msg core.UserMessage) core.UserMessage {
	if s.translator == nil {
		return msg
	}
	return s.translator.UserMessage(lang, msg)
}

func (s *Server) t(lang, id string, data map[string]any) string {
	if s.translator == nil {
		return id
	}
	return s.translator.T(lang, id, data)
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
