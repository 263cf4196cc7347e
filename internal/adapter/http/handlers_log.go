package adapthttp

import (
	"net/http"

	"clientportal/internal/app"
)

func (s *Server) handleLogList(w http.ResponseWriter, r *http.Request) {
	q := app.LogQuery{
		Newest: r.URL.Query().Get("order") == "desc",
		Limit:  intQuery(r, "limit", 0),
		Offset: intQuery(r, "offset", 0),
	}
	rows, err := s.logs.List(r.Context(), q)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}
