package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"amd-webhook/internal/auth"
	"amd-webhook/internal/calls"
	"amd-webhook/internal/events"
	"amd-webhook/internal/reporting"
	"amd-webhook/internal/webhook"
	"amd-webhook/pkg/logger"

	"github.com/gin-gonic/gin"
)

func newRouter(h Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/v1/events", h.ListEvents)
	r.GET("/v1/calls/:call_sid", h.GetCall)
	return r
}

func TestListEvents(t *testing.T) {
	svc := events.NewService(events.NewMemoryRepo(10))
	ctx := context.Background()
	for _, sid := range []string{"CA1", "CA2", "CA1"} {
		if _, err := svc.Append(ctx, events.Event{CallSID: sid, Type: webhook.TypeStatusCallback, Endpoint: "/webhook"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	r := newRouter(Handlers{Events: svc})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/events?call_sid=CA1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Events []events.Event `json:"events"`
		Count  int            `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 2 || len(body.Events) != 2 || body.Events[0].CallSID != "CA1" {
		t.Fatalf("unexpected body: %+v", body)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/events?limit=zero", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", w.Code)
	}
}

func TestGetCall(t *testing.T) {
	store := calls.NewMemoryStore(time.Hour)
	_ = store.Put(context.Background(), calls.State{CallSID: "CA1", AnsweredBy: "human", AMDDurationMS: "1500"})
	r := newRouter(Handlers{Calls: store})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/calls/CA1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Call    calls.State `json:"call"`
		Seconds float64     `json:"amd_duration_seconds"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Call.AnsweredBy != "human" || body.Seconds != 1.5 {
		t.Fatalf("unexpected body: %+v", body)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/calls/CA404", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetCall_NonFiniteDuration(t *testing.T) {
	store := calls.NewMemoryStore(time.Hour)
	for _, raw := range []string{"NaN", "Inf", "-Inf"} {
		st, _ := calls.StateFromParams(webhook.Params{"CallSid": "CA9", "MachineDetectionDuration": raw}, webhook.TypeAMDResult, time.Now())
		_ = store.Put(context.Background(), st)
		r := newRouter(Handlers{Calls: store})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/calls/CA9", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", raw, w.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: decode %q: %v", raw, w.Body.String(), err)
		}
		if _, ok := body["amd_duration_seconds"]; ok {
			t.Fatalf("%s: expected no amd_duration_seconds, got %v", raw, body)
		}
		if _, ok := body["call"]; !ok {
			t.Fatalf("%s: expected call in body, got %v", raw, body)
		}
	}
}

type brokenStore struct{}

func (brokenStore) Put(context.Context, calls.State) error { return errors.New("down") }
func (brokenStore) Get(context.Context, string) (calls.State, error) {
	return calls.State{}, errors.New("down")
}

func TestGetCall_LogsOperatorOnFailure(t *testing.T) {
	var logs bytes.Buffer
	l := slog.New(slog.NewTextHandler(&logs, nil))
	r := newRouter(Handlers{Calls: brokenStore{}})

	req := httptest.NewRequest(http.MethodGet, "/v1/calls/CA1", nil)
	ctx := auth.WithIdentity(logger.With(req.Context(), l), "alice", "operator")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req.WithContext(ctx))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	out := logs.String()
	if !bytes.Contains(logs.Bytes(), []byte("operator=alice")) || !bytes.Contains(logs.Bytes(), []byte("call_sid=CA1")) {
		t.Fatalf("expected operator and call sid in log, got %q", out)
	}
}

func TestHandlers_NotConfigured(t *testing.T) {
	r := newRouter(Handlers{})
	for _, path := range []string{"/v1/events", "/v1/calls/CA1"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("%s: expected 500, got %d", path, w.Code)
		}
	}
}

func TestAMDSummary(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := events.NewService(events.NewMemoryRepo(10))
	for _, ab := range []string{"human", "machine_start"} {
		_, err := svc.Append(context.Background(), events.Event{
			CallSID:    "CA-" + ab,
			AnsweredBy: ab,
			Type:       webhook.TypeAMDResult,
			Endpoint:   "/webhook",
			ReceivedAt: now.Add(-time.Hour),
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := Handlers{Reporting: reporting.NewService(svc), Now: func() time.Time { return now }}
	r.GET("/v1/reports/amd", h.AMDSummary)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/reports/amd", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var out reporting.AMDSummary
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Calls != 2 || out.Outcomes["human"] != 1 || out.Outcomes["machine"] != 1 {
		t.Fatalf("unexpected summary: %+v", out)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/reports/amd?from=yesterday", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/reports/amd?from=2024-05-02T00:00:00Z&to=2024-05-01T00:00:00Z", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", w.Code)
	}
}
