package web

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/locsheet/internal/core"
	"github.com/JonMunkholm/locsheet/internal/logging"
	"github.com/JonMunkholm/locsheet/internal/web/views"
)

// multipartOverhead is allowed on top of the file size limit for form
// boundaries and the other fields.
const multipartOverhead = 1 << 20

// maxMemory is the part of a multipart form kept in memory; the rest is
// spooled to disk.
const maxMemory = 8 << 20

// handleDownload serves the unit's spreadsheet as an attachment.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	unitID, ok := parseUnitID(chi.URLParam(r, "unitID"))
	if !ok {
		s.respondError(w, r, fmt.Errorf("%w: %q", core.ErrUnitNotFound, chi.URLParam(r, "unitID")))
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	file, err := s.service.ExportUnit(ctx, unitID, actorFrom(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", file.ContentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Filename}))
	h.Set("Content-Length", strconv.Itoa(len(file.Data)))
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		logging.FromContext(r.Context()).Warn("download interrupted", "unit_id", unitID.String(), "error", err)
	}
}

// importResponse is the JSON body returned by the upload endpoint.
type importResponse struct {
	*core.ImportOutcome
	Message         string   `json:"message"`
	Action          string   `json:"action,omitempty"`
	Code            string   `json:"code,omitempty"`
	WarningMessages []string `json:"warningMessages,omitempty"`
}

// handleUpload imports an edited spreadsheet. Form fields:
//
//	file           the workbook (required)
//	delete_unseen  delete target-locale translations missing from the file
//	next           local URL to redirect to after a successful import
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	unitID, ok := parseUnitID(chi.URLParam(r, "unitID"))
	if !ok {
		s.respondError(w, r, fmt.Errorf("%w: %q", core.ErrUnitNotFound, chi.URLParam(r, "unitID")))
		return
	}

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, core.ErrFileTooLarge)
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err))
		return
	}
	defer file.Close()

	switch {
	case header.Size == 0:
		s.respondError(w, r, errEmptyFile)
		return
	case header.Size > maxSize:
		s.respondError(w, r, core.ErrFileTooLarge)
		return
	}

	opts := core.ImportOptions{
		DeleteUnseen: formBool(r.FormValue("delete_unseen")),
		ToolName:     s.cfg.Interchange.ToolName,
	}
	next := r.FormValue("next")
	actor := actorFrom(r)
	ctx := WithRequestMetadata(r.Context(), r)

	release, err := s.locker.Acquire(ctx, unitID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer release()

	outcome, err := s.service.ImportUnit(ctx, unitID, file, actor, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logger := logging.ForUnit(r.Context(), unitID.String(), actor.ID)
	lang := s.lang(r)

	if outcome.Status != core.StatusImported {
		logger.Info("upload rejected",
			slog.String("status", string(outcome.Status)),
			slog.String("reason", outcome.Reason),
			slog.String("filename", header.Filename),
		)
		s.respondRejected(w, r, lang, outcome)
		return
	}

	logger.Info("upload imported",
		slog.String("filename", header.Filename),
		slog.Int("applied", outcome.Applied),
		slog.Int64("deleted", outcome.Deleted),
		slog.Int("warnings", len(outcome.Warnings)),
		slog.Duration("duration", outcome.Duration),
	)

	if isLocalURL(next) && !isHTMX(r) && !wantsJSON(r) {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	s.respondImported(w, r, lang, outcome, next)
}

func (s *Server) respondRejected(w http.ResponseWriter, r *http.Request, lang string, outcome *core.ImportOutcome) {
	msg := s.localize(lang, core.OutcomeMessage(outcome))
	if wantsJSON(r) {
		writeJSON(w, http.StatusUnprocessableEntity, importResponse{
			ImportOutcome: outcome,
			Message:       msg.Message,
			Action:        msg.Action,
			Code:          msg.Code,
		})
		return
	}
	s.writeUserMessage(w, r, core.OutcomeMessage(outcome), http.StatusUnprocessableEntity)
}

func (s *Server) respondImported(w http.ResponseWriter, r *http.Request, lang string, outcome *core.ImportOutcome, next string) {
	view := views.ImportResult{Headline: string(outcome.Status)}
	var warnings []string
	if s.translator != nil {
		view.Headline = s.translator.Headline(lang, outcome)
		view.Details = []string{
			s.translator.Plural(lang, "summary_created", outcome.Created),
			s.translator.Plural(lang, "summary_updated", outcome.Updated),
		}
		if outcome.Deleted > 0 {
			view.Details = append(view.Details, s.translator.Plural(lang, "summary_deleted", int(outcome.Deleted)))
		}
		if outcome.DryRun {
			view.Notice = s.translator.T(lang, "summary_dry_run", nil)
		}
		if len(outcome.Warnings) > 0 {
			view.WarningsHeading = s.translator.Plural(lang, "summary_warnings", len(outcome.Warnings))
		}
		for _, wr := range outcome.Warnings {
			warnings = append(warnings, s.translator.Warning(lang, wr))
		}
	} else {
		for _, wr := range outcome.Warnings {
			warnings = append(warnings, wr.String())
		}
	}
	view.Warnings = warnings

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, importResponse{
			ImportOutcome:   outcome,
			Message:         view.Headline,
			WarningMessages: warnings,
		})
		return
	}

	panel := views.ImportResultPanel(view)
	if isHTMX(r) {
		s.render(w, r, http.StatusOK, panel)
		return
	}
	back := ""
	if isLocalURL(next) {
		back = next
	}
	s.render(w, r, http.StatusOK, views.Page(lang, s.t(lang, "page_title", nil), back, s.t(lang, "back_link", nil), panel))
}

// render writes an HTML component with the given status.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render failed", "error", err)
	}
}
