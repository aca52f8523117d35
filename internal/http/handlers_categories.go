package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

type categoryRequest struct {
	Name  string  `json:"name"`
	Color string  `json:"color"`
	Kind  *string `json:"kind,omitempty"`
}

// kind returns nil when the category should be classified by name.
func (req categoryRequest) kind() (*core.Kind, error) {
	if req.Kind == nil || strings.TrimSpace(*req.Kind) == "" {
		return nil, nil
	}
	k, err := core.ParseKind(*req.Kind)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// handleCategories lists (GET) or creates (POST) the owner's categories.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request, owner int64) {
	switch r.Method {
	case http.MethodGet:
		cats, err := s.backend.Store.Categories.ListByOwner(r.Context(), owner)
		if err != nil {
			writeError(w, r, applog.OpList, err)
			return
		}
		writeJSON(w, http.StatusOK, cats)

	case http.MethodPost:
		var req categoryRequest
		if err := DecodeJSON(w, r, &req); err != nil {
			writeDecodeError(w, r, err)
			return
		}
		kind, err := req.kind()
		if err != nil {
			writeError(w, r, applog.OpCreate, err)
			return
		}
		cat, err := s.backend.Store.Categories.Create(r.Context(), owner, sanitizeInput(req.Name), req.Color, kind)
		if err != nil {
			writeError(w, r, applog.OpCreate, err)
			return
		}
		writeJSON(w, http.StatusCreated, cat)

	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

// handleCategory replaces or deletes one category. Deleting keeps the
// transactions and clears their category.
func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request, owner int64) {
	id, err := ParsePathID(r)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		cat, err := s.backend.Store.Categories.FindByID(r.Context(), owner, id)
		if err != nil {
			writeError(w, r, applog.OpRead, err)
			return
		}
		writeJSON(w, http.StatusOK, cat)

	case http.MethodPut:
		var req categoryRequest
		if err := DecodeJSON(w, r, &req); err != nil {
			writeDecodeError(w, r, err)
			return
		}
		kind, err := req.kind()
		if err != nil {
			writeError(w, r, applog.OpUpdate, err)
			return
		}
		cat, err := s.backend.Store.Categories.Update(r.Context(), owner, id, sanitizeInput(req.Name), req.Color, kind)
		if err != nil {
			writeError(w, r, applog.OpUpdate, err)
			return
		}
		writeJSON(w, http.StatusOK, cat)

	case http.MethodDelete:
		if err := s.backend.Store.Categories.Delete(r.Context(), owner, id); err != nil {
			writeError(w, r, applog.OpDelete, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		MethodNotAllowedError("GET, PUT, DELETE").Write(w)
	}
}

// handleSeedCategories adds the default catalog entries the owner lacks.
func (s *Server) handleSeedCategories(w http.ResponseWriter, r *http.Request, owner int64) {
	if resp := RequireMethod(r, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	added, err := s.backend.Store.Categories.SeedDefaults(r.Context(), owner)
	if err != nil {
		writeError(w, r, applog.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"added": added})
}

func (s *Server) handleGroupedCategories(w http.ResponseWriter, r *http.Request, owner int64) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	grouped, err := s.backend.Store.Categories.Classify(r.Context(), owner)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, grouped)
}
