package web

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/stmtimport/internal/core"
	"github.com/JonMunkholm/stmtimport/internal/web/templates"
)

// multipartOverhead is allowed on top of the file size limit for the other
// form parts and boundaries.
const multipartOverhead = 1 << 20

// handlePrepareImport reads the multipart "file" part and an optional
// "strategyId" field and prepares an import.
func (s *Server) handlePrepareImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, maxSize))
			return
		}
		s.respondError(w, r, badRequest{fmt.Errorf("parse upload form: %w", err)})
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errors.New("no file provided"))
		return
	}
	defer file.Close()

	req := core.PrepareRequest{FileName: header.Filename, File: file}
	if raw := strings.TrimSpace(r.FormValue("strategyId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			s.respondError(w, r, badRequest{fmt.Errorf("invalid strategyId %q", raw)})
			return
		}
		req.StrategyID = &id
	}

	summary, err := s.service.Prepare(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSummary(w, r, http.StatusCreated, summary)
}

func importID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("import %q: %w", raw, core.ErrImportNotFound)
	}
	return id, nil
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	id, err := importID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	summary, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSummary(w, r, http.StatusOK, summary)
}

func (s *Server) handleDiscardImport(w http.ResponseWriter, r *http.Request) {
	id, err := importID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.service.Discard(id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateAccounts(w http.ResponseWriter, r *http.Request) {
	id, err := importID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	summary, err := s.service.CreateAccounts(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSummary(w, r, http.StatusOK, summary)
}

func (s *Server) handleCommitImport(w http.ResponseWriter, r *http.Request) {
	id, err := importID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := s.service.Commit(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	summary, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondSummary(w, r, http.StatusOK, summary)
}

func (s *Server) handleErrorsCSV(w http.ResponseWriter, r *http.Request) {
	id, err := importID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	// Look the import up first so a miss still gets a JSON error.
	if _, err := s.service.Get(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"errors-%s.csv\"", id))
	if err := s.service.WriteErrorsCSV(id, w); err != nil {
		slog.Error("write errors csv", "import_id", id, "error", err)
	}
}

// handleStatement downloads the archived copy of the uploaded file.
func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	id, err := importID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	name, data, err := s.service.Statement(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	fileName := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if fileName == "." || fileName == "/" {
		fileName = "statement.csv"
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	if _, err := w.Write(data); err != nil {
		slog.Error("write statement", "import_id", id, "error", err)
	}
}

// respondSummary writes the summary as JSON, or as a fragment for HTMX.
func (s *Server) respondSummary(w http.ResponseWriter, r *http.Request, status int, summary core.ImportSummary) {
	if !isHTMX(r) {
		writeJSONStatus(w, status, summary)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ImportSummary(summary).Render(r.Context(), w); err != nil {
		slog.Error("render import summary", "error", err)
	}
}
