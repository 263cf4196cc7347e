package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	adapthttp "clientportal/internal/adapter/http"
	"clientportal/internal/adapter/memory"
	"clientportal/internal/app"
	"clientportal/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct horse"

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type failingStore struct{}

func (failingStore) ReadAll(context.Context, string) ([]domain.Row, error) {
	return nil, errors.New("sheets: 503 backend error")
}

func (failingStore) Append(context.Context, string, *domain.Record) error {
	return errors.New("sheets: 503 backend error")
}

func (failingStore) UpdateAt(context.Context, string, domain.RowRef, *domain.Record) error {
	return errors.New("sheets: 503 backend error")
}

func (failingStore) DeleteAt(context.Context, string, domain.RowRef) error {
	return errors.New("sheets: 503 backend error")
}

type testEnv struct {
	ts    *httptest.Server
	clock *clock
	db    *memory.DB
}

func newTestEnv(t *testing.T, store domain.RowStore) *testEnv {
	t.Helper()

	db := memory.New()
	db.Seed("Clients", []string{"client_id", "client_name", "industry", "client_goal", "jci_role", "keywords",
		"specific_urls", "send_time", "timezone", "analysis_style", "active"},
		[]string{"client_001", "First", "Retail", "", "", "", "", "09:00", "America/Denver", "brief", "TRUE"},
	)
	db.Seed("Recipients", []string{"client_id", "name", "email", "active"},
		[]string{"client_001", "Ann", "ann@example.com", "TRUE"},
		[]string{"client_001", "Bob", "bob@example.com", "TRUE"},
	)
	db.Seed("Log", []string{"timestamp", "client_id", "client_name", "recipients_sent", "recipients_failed", "status", "details"},
		[]string{"2026-01-01T09:00:00Z", "client_001", "First", "2", "0", "sent", ""},
		[]string{"2026-01-02T09:00:00Z", "client_001", "First", "1", "1", "partial", "bounce"},
	)
	if store == nil {
		store = db
	}

	c := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	auth := app.NewAuthenticator(app.AuthConfig{SessionSecret: "test-secret", Password: testPassword}, c.Now)
	presets := []domain.RecipientPreset{{ID: "recip_001", Name: "Ann", Email: "ann@example.com"}}

	webDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(webDir, "index.html"), []byte("<html></html>"), 0o600))

	srv := adapthttp.New(
		auth,
		app.NewClientService(store, "Clients", nil),
		app.NewRecipientService(store, "Recipients", presets, nil),
		app.NewLogService(store, "Log"),
		webDir,
	)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, clock: c, db: db}
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func do(t *testing.T, c *http.Client, method, url string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequest(method, url, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	var m map[string]any
	if resp.Header.Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	}
	return resp, m
}

func login(t *testing.T, env *testEnv) *http.Client {
	t.Helper()
	c := newClient(t)
	resp, body := do(t, c, http.MethodPost, env.ts.URL+"/api/login", map[string]string{"password": testPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["ok"])
	return c
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, body := do(t, newClient(t), http.MethodGet, env.ts.URL+"/api/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestLoginSetsCookie(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, _ := do(t, newClient(t), http.MethodPost, env.ts.URL+"/api/login", map[string]string{"password": testPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == domain.SessionCookieName {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, session.SameSite)
	assert.Equal(t, 43200, session.MaxAge)
	assert.Equal(t, "/", session.Path)
	_, err := domain.ParseSessionToken(session.Value)
	assert.NoError(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, body := do(t, newClient(t), http.MethodPost, env.ts.URL+"/api/login", map[string]string{"password": "Correct Horse"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
	assert.Empty(t, resp.Cookies())
}

func TestLoginUnreadableBody(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, body := range []string{"", "not json", "{}", `{"password":"correct horse","user":"x"}`} {
		resp, err := http.Post(env.ts.URL+"/api/login", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, body)
		assert.Empty(t, resp.Cookies(), body)
	}
}

func TestSessionExpiresAfterTwelveHours(t *testing.T) {
	env := newTestEnv(t, nil)
	c := login(t, env)

	resp, body := do(t, c, http.MethodGet, env.ts.URL+"/api/clients", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["rows"], 1)

	env.clock.Advance(12*time.Hour + time.Second)

	resp, body = do(t, c, http.MethodGet, env.ts.URL+"/api/clients", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", body["error"])
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t, nil)
	c := newClient(t)
	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/clients"},
		{http.MethodGet, "/api/clients/template"},
		{http.MethodPost, "/api/clients"},
		{http.MethodPut, "/api/clients/client_001"},
		{http.MethodDelete, "/api/clients/client_001"},
		{http.MethodGet, "/api/recipients"},
		{http.MethodGet, "/api/recipients/presets"},
		{http.MethodPost, "/api/recipients"},
		{http.MethodPut, "/api/recipients/x"},
		{http.MethodDelete, "/api/recipients/x"},
		{http.MethodGet, "/api/log"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			resp, _ := do(t, c, rt.method, env.ts.URL+rt.path, nil)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestForgedCookieRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	c := newClient(t)
	u, err := url.Parse(env.ts.URL)
	require.NoError(t, err)
	c.Jar.SetCookies(u, []*http.Cookie{{Name: domain.SessionCookieName, Value: "1772355600.deadbeef", Path: "/"}})

	resp, _ := do(t, c, http.MethodGet, env.ts.URL+"/api/clients", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutClearsSession(t *testing.T) {
	env := newTestEnv(t, nil)
	c := login(t, env)

	_, body := do(t, c, http.MethodGet, env.ts.URL+"/api/session", nil)
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, false, body["sso_enabled"])

	resp, _ := do(t, c, http.MethodPost, env.ts.URL+"/api/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, body = do(t, c, http.MethodGet, env.ts.URL+"/api/session", nil)
	assert.Equal(t, false, body["authenticated"])
	resp, _ = do(t, c, http.MethodGet, env.ts.URL+"/api/clients", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateClientThenList(t *testing.T) {
	env := newTestEnv(t, nil)
	c := login(t, env)

	resp, body := do(t, c, http.MethodPost, env.ts.URL+"/api/clients",
		map[string]string{"client_id": "client_004", "client_name": "Acme"})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	resp, body = do(t, c, http.MethodGet, env.ts.URL+"/api/clients", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rows, ok := body["rows"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]any{
		"client_id": "client_004", "client_name": "Acme", "industry": "", "client_goal": "",
		"jci_role": "", "keywords": "", "specific_urls": "", "send_time": "", "timezone": "",
		"analysis_style": "", "active": "",
	}, rows[1])
}

func TestCreateClientBadInput(t *testing.T) {
	env := newTestEnv(t, nil)
	c := login(t, env)

	resp, body := do(t, c, http.MethodPost, env.ts.URL+"/api/clients", map[string]string{"client_name": "No id"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["fields"], "client_id")

	resp, _ = do(t, c, http.MethodPost, env.ts.URL+"/api/clients", map[string]string{"client_id": "c", "colour": "red"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, c, http.MethodPost, env.ts.URL+"/api/clients", map[string]string{"client_id": "client_001"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUpdateAndDeleteClient(t *testing.T) {
	env := newTestEnv(t, nil)
	c := login(t, env)

	resp, _ := do(t, c, http.MethodPut, env.ts.URL+"/api/clients/client_001", map[string]string{"client_name": "Renamed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rows, err := env.db.ReadAll(context.Background(), "Clients")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", rows[0].Get("client_name"))
	assert.Equal(t, "client_001", rows[0].Get("client_id"))
	assert.Equal(t, "", rows[0].Get("industry"))

	resp, _ = do(t, c, http.MethodPut, env.ts.URL+"/api/clients/client_404", map[string]string{"client_name": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, c, http.MethodDelete, env.ts.URL+"/api/clients/client_001", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, c, http.MethodDelete, env.ts.URL+"/api/clients/client_001", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClientTemplate(t *testing.T) {
	env := newTestEnv(t, nil)
	c := login(t, env)

	resp, body := do(t, c, http.MethodGet, env.ts.URL+"/api/clients/template", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	client, ok := body["client"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "client_002", client["client_id"])
	assert.Equal(t, "America/Los_Angeles", client["timezone"])
	assert.Equal(t, "brief", client["analysis_style"])
	assert.Equal(t, "TRUE", client["active"])
}

func TestRecipientsLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	c := login(t, env)

	resp, body := do(t, c, http.MethodGet, env.ts.URL+"/api/recipients", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rows := body["rows"].([]any)
	require.Len(t, rows, 2)
	assert.Equal(t, "client_001||ann@example.com", rows[0].(map[string]any)["id"])

	resp, _ = do(t, c, http.MethodPost, env.ts.URL+"/api/recipients",
		map[string]string{"client_id": "client_001", "name": "Ann again", "email": "Ann@Example.com", "active": "TRUE"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = do(t, c, http.MethodPost, env.ts.URL+"/api/recipients",
		map[string]string{"client_id": "client_001", "name": "Cy", "email": "cy@example.com", "active": "TRUE"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	id := url.PathEscape("client_001||bob@example.com")
	resp, _ = do(t, c, http.MethodPut, env.ts.URL+"/api/recipients/"+id, map[string]string{"name": "Robert", "active": "FALSE"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	all, err := env.db.ReadAll(context.Background(), "Recipients")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Robert", all[1].Get("name"))
	assert.Equal(t, "bob@example.com", all[1].Get("email"))

	resp, _ = do(t, c, http.MethodDelete, env.ts.URL+"/api/recipients/"+url.PathEscape("client_001||ann@example.com"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	all, err = env.db.ReadAll(context.Background(), "Recipients")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 2, all[0].Position)
	assert.Equal(t, "bob@example.com", all[0].Get("email"))

	resp, _ = do(t, c, http.MethodDelete, env.ts.URL+"/api/recipients/"+url.PathEscape("client_001||ann@example.com"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecipientPresets(t *testing.T) {
	env := newTestEnv(t, nil)
	c := login(t, env)

	resp, body := do(t, c, http.MethodGet, env.ts.URL+"/api/recipients/presets", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	presets := body["presets"].([]any)
	require.Len(t, presets, 1)
	assert.Equal(t, "recip_001", presets[0].(map[string]any)["id"])
}

func TestLogEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	c := login(t, env)

	resp, body := do(t, c, http.MethodGet, env.ts.URL+"/api/log", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rows := body["rows"].([]any)
	require.Len(t, rows, 2)
	assert.Equal(t, "2026-01-01T09:00:00Z", rows[0].(map[string]any)["timestamp"])

	resp, body = do(t, c, http.MethodGet, env.ts.URL+"/api/log?order=desc&limit=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rows = body["rows"].([]any)
	require.Len(t, rows, 1)
	assert.Equal(t, "partial", rows[0].(map[string]any)["status"])
}

func TestUpstreamFailureIsGeneric500(t *testing.T) {
	env := newTestEnv(t, failingStore{})
	c := login(t, env)

	for _, path := range []string{"/api/clients", "/api/recipients", "/api/log"} {
		resp, body := do(t, c, http.MethodGet, env.ts.URL+path, nil)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode, path)
		assert.Equal(t, "internal error", body["error"], path)
	}
}

func TestSSODisabled(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, _ := do(t, newClient(t), http.MethodGet, env.ts.URL+"/api/auth/sso/login", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, newClient(t), http.MethodGet, env.ts.URL+"/api/auth/sso/callback?state=x", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStaticFallback(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, err := http.Get(env.ts.URL + "/dashboard/anything")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
