package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"amd-webhook/internal/auth"
	"amd-webhook/internal/calls"
	"amd-webhook/internal/config"
	"amd-webhook/internal/dispatch"
	"amd-webhook/internal/events"
	"amd-webhook/internal/profile"
	"amd-webhook/internal/rbac"
	"amd-webhook/internal/telephony"
	"amd-webhook/internal/webhook"

	"github.com/gin-gonic/gin"
)

func newTestEngine(t *testing.T, name profile.Name, d routeDeps) (*gin.Engine, *bytes.Buffer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	p, err := profile.Lookup(string(name))
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	var out bytes.Buffer
	norm := webhook.NewNormalizer(p.UnitLabels)
	d.Telephony.Profile = p
	d.Telephony.Normalizer = norm
	d.Telephony.Reporter = dispatch.NewReporter(p.Report, norm)
	d.Telephony.Responder = dispatch.NewResponder(dispatch.DefaultPrompts())
	d.Telephony.Out = &out

	r := gin.New()
	r.HandleMethodNotAllowed = true
	registerRoutes(r, d)
	return r, &out
}

func serve(r http.Handler, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutes_ProfileEndpoints(t *testing.T) {
	demo, _ := newTestEngine(t, profile.Demo, routeDeps{})
	silent, _ := newTestEngine(t, profile.Silent, routeDeps{})

	cases := []struct {
		name   string
		r      http.Handler
		method string
		path   string
		want   int
	}{
		{"demo webhook get", demo, http.MethodGet, "/webhook", http.StatusOK},
		{"demo handle_amd post", demo, http.MethodPost, "/handle_amd", http.StatusOK},
		{"demo silent missing", demo, http.MethodGet, "/silent", http.StatusNotFound},
		{"silent silent post", silent, http.MethodPost, "/silent", http.StatusOK},
		{"silent handle_amd missing", silent, http.MethodPost, "/handle_amd", http.StatusNotFound},
		{"webhook put", demo, http.MethodPut, "/webhook", http.StatusMethodNotAllowed},
		{"status post", silent, http.MethodPost, "/status", http.StatusMethodNotAllowed},
		{"healthz", demo, http.MethodGet, "/healthz", http.StatusOK},
		{"home", silent, http.MethodGet, "/", http.StatusOK},
		{"operator api disabled", demo, http.MethodGet, "/v1/events", http.StatusNotFound},
	}
	for _, tc := range cases {
		w := serve(tc.r, tc.method, tc.path, "", nil)
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, w.Code)
		}
	}
}

func TestRoutes_SignatureRequiredWhenTokenSet(t *testing.T) {
	const token = "twilio-token"
	r, _ := newTestEngine(t, profile.Demo, routeDeps{
		Twilio: config.TwilioConfig{AuthToken: token, PublicBaseURL: "https://amd.example.com"},
	})

	body := "CallSid=CA1&AnsweredBy=human"
	if w := serve(r, http.MethodPost, "/handle_amd", body, nil); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without signature, got %d", w.Code)
	}

	form, _ := url.ParseQuery(body)
	sig := telephony.ComputeSignature(token, "https://amd.example.com/handle_amd", form)
	w := serve(r, http.MethodPost, "/handle_amd", body, http.Header{"X-Twilio-Signature": {sig}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid signature, got %d: %s", w.Code, w.Body.String())
	}

	// status and health stay public
	if w := serve(r, http.MethodGet, "/status", "", nil); w.Code != http.StatusOK {
		t.Fatalf("expected public status, got %d", w.Code)
	}
}

func TestRoutes_OperatorAPI(t *testing.T) {
	m, err := auth.NewManager(config.AuthConfig{JWTSecret: "secret"})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	r, _ := newTestEngine(t, profile.Demo, routeDeps{
		Telephony: telephony.Handlers{
			Journal: events.NewService(events.NewMemoryRepo(10)),
			Calls:   calls.NewMemoryStore(time.Hour),
		},
		Auth: m,
	})

	if w := serve(r, http.MethodPost, "/webhook", "CallSid=CA7&CallStatus=completed", nil); w.Code != http.StatusOK {
		t.Fatalf("webhook: expected 200, got %d", w.Code)
	}

	if w := serve(r, http.MethodGet, "/v1/calls/CA7", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	viewer, _ := m.Issue(time.Now(), "bob", "viewer")
	if w := serve(r, http.MethodGet, "/v1/calls/CA7", "", http.Header{"Authorization": {"Bearer " + viewer}}); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer, got %d", w.Code)
	}

	tok, _ := m.Issue(time.Now(), "alice", rbac.RoleOperator)
	bearer := http.Header{"Authorization": {"Bearer " + tok}}
	w := serve(r, http.MethodGet, "/v1/calls/CA7", "", bearer)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"call_status":"completed"`) {
		t.Fatalf("expected call state, got %d: %s", w.Code, w.Body.String())
	}
	w = serve(r, http.MethodGet, "/v1/events?call_sid=CA7", "", bearer)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"count":1`) {
		t.Fatalf("expected one event, got %d: %s", w.Code, w.Body.String())
	}
	w = serve(r, http.MethodGet, "/v1/reports/amd", "", bearer)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"calls":1`) {
		t.Fatalf("expected amd summary, got %d: %s", w.Code, w.Body.String())
	}
}

func TestIssueToken(t *testing.T) {
	var buf bytes.Buffer
	now := time.Now()
	cfg := config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Hour}
	if err := issueToken(&buf, cfg, "alice", rbac.RoleAdmin, now); err != nil {
		t.Fatalf("issue: %v", err)
	}
	m, _ := auth.NewManager(cfg)
	claims, err := m.Verify(strings.TrimSpace(buf.String()), now)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "alice" || claims.Role != rbac.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if err := issueToken(&buf, cfg, "alice", "root", now); err == nil {
		t.Fatalf("expected unknown role to be rejected")
	}
	if err := issueToken(&buf, config.AuthConfig{}, "alice", rbac.RoleOperator, now); err == nil {
		t.Fatalf("expected missing secret to be rejected")
	}
}

func TestPrintBanner(t *testing.T) {
	p, _ := profile.Lookup("silent")
	var buf bytes.Buffer
	printBanner(&buf, p, "0.0.0.0:5000", "https://amd.example.com")

	out := buf.String()
	for _, want := range []string{
		"Starting Twilio AMD Testing Server...",
		"Listening on 0.0.0.0:5000",
		"Purpose: AMD testing with caller staying silent",
		"https://amd.example.com/silent (keeps the caller silent, GET/POST)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected banner to contain %q, got:\n%s", want, out)
		}
	}
}
