package adapthttp

import (
	"net/http"

	"clientportal/internal/domain"
)

func (s *Server) handleClientsList(w http.ResponseWriter, r *http.Request) {
	rows, err := s.clients.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (s *Server) handleClientTemplate(w http.ResponseWriter, r *http.Request) {
	c, err := s.clients.Template(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"client": c})
}

func (s *Server) handleClientCreate(w http.ResponseWriter, r *http.Request) {
	var body domain.Client
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.clients.Create(r.Context(), body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleClientUpdate(w http.ResponseWriter, r *http.Request) {
	var body domain.Client
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.clients.Update(r.Context(), r.PathValue("id"), body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleClientDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.clients.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
