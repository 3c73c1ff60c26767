package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/stmtimport/internal/export"
	"github.com/JonMunkholm/stmtimport/internal/strategy"
)

// maxJSONBody bounds strategy and export documents.
const maxJSONBody = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest{fmt.Errorf("decode request body: %w", err)}
	}
	return nil
}

func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, badRequest{fmt.Errorf("invalid id %q", raw)}
	}
	return id, nil
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	list, err := s.service.ListStrategies(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, nonNil(list))
}

func (s *Server) handleGetStrategy(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	st, err := s.service.GetStrategy(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, st)
}

func (s *Server) handleCreateStrategy(w http.ResponseWriter, r *http.Request) {
	var st strategy.Strategy
	if err := decodeJSON(w, r, &st); err != nil {
		s.respondError(w, r, err)
		return
	}
	created, err := s.service.CreateStrategy(r.Context(), &st)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateStrategy(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var st strategy.Strategy
	if err := decodeJSON(w, r, &st); err != nil {
		s.respondError(w, r, err)
		return
	}
	updated, err := s.service.UpdateStrategy(r.Context(), id, &st)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, updated)
}

func (s *Server) handleDeleteStrategy(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.service.DeleteStrategy(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type matchRequest struct {
	Headings []string `json:"headings"`
}

func (s *Server) handleMatchStrategies(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	matches, err := s.service.MatchStrategies(r.Context(), req.Headings)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, nonNil(matches))
}

// handleExportStrategy sends the export document as a download.
func (s *Server) handleExportStrategy(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	doc, err := s.service.ExportStrategy(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	data, err := export.Encode(doc)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFileName(doc.Name)))
	_, _ = w.Write(data)
}

// exportFileName keeps letters, digits, dash and underscore of name.
func exportFileName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "strategy.json"
	}
	return b.String() + ".json"
}

type unresolvedResponse struct {
	Unresolved []export.UnresolvedReference `json:"unresolved"`
}

func (s *Server) handleParseStrategyImport(w http.ResponseWriter, r *http.Request) {
	var doc export.Document
	if err := decodeJSON(w, r, &doc); err != nil {
		s.respondError(w, r, err)
		return
	}
	refs, err := s.service.ParseExport(r.Context(), &doc)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, unresolvedResponse{Unresolved: refs})
}

type strategyImportRequest struct {
	Document    *export.Document    `json:"document"`
	Resolutions []export.Resolution `json:"resolutions"`
}

func (s *Server) handleImportStrategy(w http.ResponseWriter, r *http.Request) {
	var req strategyImportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Document == nil {
		s.respondError(w, r, badRequest{fmt.Errorf("document is required")})
		return
	}
	st, err := s.service.ImportStrategy(r.Context(), req.Document, req.Resolutions)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, st)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
