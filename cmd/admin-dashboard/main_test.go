package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/healthcare/admin-dashboard/internal/config"
	"github.com/healthcare/admin-dashboard/internal/domain/insurance"
	"github.com/healthcare/admin-dashboard/internal/platform/session"
	"github.com/healthcare/admin-dashboard/internal/platform/sessionstore"
)

// ---------------------------------------------------------------------------
// schema validate
// ---------------------------------------------------------------------------

func TestDecodeSchema_BareList(t *testing.T) {
	fields, err := decodeSchema([]byte(`[{"key":"policyNumber","valueType":"string","required":true}]`))
	if err != nil {
		t.Fatalf("decodeSchema: %v", err)
	}
	if len(fields) != 1 || fields[0].Key != "policyNumber" || !fields[0].Required {
		t.Errorf("unexpected fields: %+v", fields)
	}
}

func TestDecodeSchema_CompanyDocument(t *testing.T) {
	fields, err := decodeSchema([]byte(` {"name":"Acme","fields":[{"key":"a"},{"key":"b"}]}`))
	if err != nil {
		t.Fatalf("decodeSchema: %v", err)
	}
	if len(fields) != 2 {
		t.Errorf("expected 2 fields, got %d", len(fields))
	}
}

func TestDecodeSchema_Empty(t *testing.T) {
	if _, err := decodeSchema([]byte("  ")); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestValidateSchema_Valid(t *testing.T) {
	var out bytes.Buffer
	err := validateSchema(&out, []insurance.FieldDefinition{{Key: "policyNumber", ValueType: insurance.ValueTypeString}})
	if err != nil {
		t.Fatalf("validateSchema: %v", err)
	}
	if got := out.String(); got != "ok: 1 field defined\n" {
		t.Errorf("output = %q", got)
	}
}

func TestValidateSchema_ReportsUnknownType(t *testing.T) {
	var out bytes.Buffer
	err := validateSchema(&out, []insurance.FieldDefinition{
		{Key: "memberId"},
		{Key: "isPrimary", ValueType: "boolean"},
	})
	if !errors.Is(err, errInvalidSchema) {
		t.Fatalf("expected errInvalidSchema, got %v", err)
	}
	want := "fields[1].valueType: Choose a supported type (got \"boolean\")\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestValidateSchema_ReportsEachBadKey(t *testing.T) {
	var out bytes.Buffer
	err := validateSchema(&out, []insurance.FieldDefinition{
		{Key: ""},
		{Key: "memberId"},
		{Key: "2fast"},
	})
	if !errors.Is(err, errInvalidSchema) {
		t.Fatalf("expected errInvalidSchema, got %v", err)
	}
	want := "fields[0].key: Key is required\nfields[2].key: Key must be camelCase\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "schema", "version"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

// ---------------------------------------------------------------------------
// server wiring
// ---------------------------------------------------------------------------

type fakeAPI struct {
	mu   sync.Mutex
	auth []string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"tok-123"}`))
	})
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"data":[{"_id":"u1","name":"Ada Lovelace","email":"ada@example.com","points":10}]}`))
	})
	return mux
}

func testConfig(apiURL string) *config.Config {
	return &config.Config{
		Port:           "0",
		Env:            "test",
		APIBaseURL:     apiURL,
		APITimeout:     5 * time.Second,
		RequestTimeout: 5 * time.Second,
		SessionStore:   sessionstore.KindMemory,
		SessionTTL:     time.Hour,
		BodyLimit:      "1M",
		MaxUploadSize:  "4M",
		LoginRateRPS:   1,
		LoginRateBurst: 10,
	}
}

func newTestServer(t *testing.T) (http.Handler, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	upstream := httptest.NewServer(api.handler())
	t.Cleanup(upstream.Close)

	e, err := newServer(testConfig(upstream.URL), zerolog.Nop(), sessionstore.NewMemory())
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	return e, api
}

func TestServer_RedirectsSignedOutToLogin(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/users?page=2", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	want := "/login?next=" + url.QueryEscape("/users?page=2")
	if got := rec.Header().Get("Location"); got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}
}

func TestServer_PublicEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/health", "/static/app.css", "/login", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestServer_HealthReportsStore(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "healthy" || body["session_store"] != "memory" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestServer_LoginThenBrowse(t *testing.T) {
	srv, api := newTestServer(t)

	form := url.Values{"email": {"admin@example.com"}, "password": {"secret"}, "next": {"/users"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login: expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != "/users" {
		t.Errorf("login redirect = %q, want /users", got)
	}

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatal("expected session cookie after login")
	}

	req = httptest.NewRequest(http.MethodGet, "/users", nil)
	req.AddCookie(sessionCookie)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("users: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Ada Lovelace") {
		t.Error("expected user name in page")
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.auth) != 1 || api.auth[0] != "Bearer tok-123" {
		t.Errorf("API saw Authorization %v, want [Bearer tok-123]", api.auth)
	}
}

// signIn logs in through the login form and returns the session cookie.
func signIn(t *testing.T, srv http.Handler) *http.Cookie {
	t.Helper()
	form := url.Values{"email": {"admin@example.com"}, "password": {"secret"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.Value != "" {
			return c
		}
	}
	t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	return nil
}

func TestServer_LogoPastUploadCapRerendersForm(t *testing.T) {
	srv, _ := newTestServer(t)
	cookie := signIn(t, srv)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, kv := range [][2]string{{"name", "Acme Health"}, {"fields[0].key", "policyNumber"}, {"fields[0].valueType", "string"}} {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			t.Fatal(err)
		}
	}
	fw, err := w.CreateFormFile("image", "logo.png")
	if err != nil {
		t.Fatal(err)
	}
	// larger than the 4M upload cap in testConfig
	if _, err := fw.Write(bytes.Repeat([]byte{0x89}, 5<<20)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/insurance", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	page := rec.Body.String()
	for _, want := range []string{"Image size must be less than 2MB", `value="Acme Health"`, `value="policyNumber"`} {
		if !strings.Contains(page, want) {
			t.Errorf("expected %q in the re-rendered form", want)
		}
	}
}

func TestServer_LoginRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	form := url.Values{"email": {"admin@example.com"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid credentials") {
		t.Error("expected server message on the login form")
	}
}
