package adapthttp

import (
	"log/slog"
	"net/http"

	"clientportal/internal/app"
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth       *app.Authenticator
	clients    *app.ClientService
	recipients *app.RecipientService
	logs       *app.LogService
	webDir     string

	secureCookies bool
	sso           *OIDCConfig
	logger        *slog.Logger
}

// New creates a Server wired to the given application services. An empty
// webDir disables static file serving.
func New(auth *app.Authenticator, cs *app.ClientService, rs *app.RecipientService, ls *app.LogService, webDir string) *Server {
	return &Server{
		auth:       auth,
		clients:    cs,
		recipients: rs,
		logs:       ls,
		webDir:     webDir,
		sso:        &OIDCConfig{},
		logger:     slog.Default(),
	}
}

// WithSecureCookies marks session cookies Secure (production).
func (s *Server) WithSecureCookies(secure bool) *Server {
	s.secureCookies = secure
	return s
}

// WithSSO enables OIDC sign-in.
func (s *Server) WithSSO(cfg *OIDCConfig) *Server {
	if cfg != nil {
		s.sso = cfg
	}
	return s
}

// WithLogger sets the logger used for requests and failures.
func (s *Server) WithLogger(l *slog.Logger) *Server {
	if l != nil {
		s.logger = l.With("component", "http")
	}
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("POST /login", s.handleLogin)
	api.HandleFunc("POST /logout", s.handleLogout)
	api.HandleFunc("GET /session", s.handleSession)
	api.HandleFunc("GET /auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("GET /auth/sso/callback", s.handleSSOCallback)

	api.Handle("GET /clients", s.requireSession(s.handleClientsList))
	api.Handle("GET /clients/template", s.requireSession(s.handleClientTemplate))
	api.Handle("POST /clients", s.requireSession(s.handleClientCreate))
	api.Handle("PUT /clients/{id}", s.requireSession(s.handleClientUpdate))
	api.Handle("DELETE /clients/{id}", s.requireSession(s.handleClientDelete))

	api.Handle("GET /recipients", s.requireSession(s.handleRecipientsList))
	api.Handle("GET /recipients/presets", s.requireSession(s.handleRecipientPresets))
	api.Handle("POST /recipients", s.requireSession(s.handleRecipientCreate))
	api.Handle("PUT /recipients/{id}", s.requireSession(s.handleRecipientUpdate))
	api.Handle("DELETE /recipients/{id}", s.requireSession(s.handleRecipientDelete))

	api.Handle("GET /log", s.requireSession(s.handleLogList))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	if s.webDir != "" {
		root.Handle("/", spaFromDisk(s.webDir))
	}

	return s.requestLogger(withNoCache(root))
}
