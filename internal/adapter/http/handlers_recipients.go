package adapthttp

import (
	"net/http"

	"clientportal/internal/domain"
)

func (s *Server) handleRecipientsList(w http.ResponseWriter, r *http.Request) {
	rows, err := s.recipients.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (s *Server) handleRecipientPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"presets": s.recipients.Presets()})
}

func (s *Server) handleRecipientCreate(w http.ResponseWriter, r *http.Request) {
	var body domain.Recipient
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.recipients.Create(r.Context(), body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleRecipientUpdate(w http.ResponseWriter, r *http.Request) {
	var body domain.Recipient
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.recipients.Update(r.Context(), r.PathValue("id"), body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleRecipientDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.recipients.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
