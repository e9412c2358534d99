package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"alarmdesk"
	"alarmdesk/internal/service"
)

func TestRefreshHandlers_TriggerCountdownLast(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	poller := &mockPoller{countdown: 42}
	s := &service.Service{Authorization: auth, Poller: poller}
	r := newTestRouter(s)

	// trigger → 202 and the poller is asked to refresh
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("trigger status=%d, body=%s", w.Code, w.Body.String())
	}
	if poller.refreshCalls != 1 {
		t.Fatalf("expected TriggerRefresh to be called once, got %d", poller.refreshCalls)
	}
	var m map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if m["status"] != statusScheduled {
		t.Fatalf("expected status %q, got %v", statusScheduled, m["status"])
	}

	// countdown → 200 with seconds
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/refresh/countdown", nil)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("countdown status=%d, body=%s", w.Code, w.Body.String())
	}
	var cd struct {
		Seconds int `json:"seconds"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &cd)
	if cd.Seconds != 42 {
		t.Fatalf("expected 42 seconds, got %d", cd.Seconds)
	}

	// no completed cycle yet → 204
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/refresh/last", nil)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 before first cycle, got %d", w.Code)
	}

	// after a cycle → 200 with the summary
	poller.last = alarmdesk.CycleResult{
		StartedAt:      time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		FinishedAt:     time.Date(2024, 5, 1, 10, 0, 2, 0, time.UTC),
		Occurrences:    5,
		Lineages:       2,
		NewOccurrences: []string{"plant-a|siteA|pump1"},
	}
	poller.hasLast = true
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/refresh/last", nil)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("last status=%d, body=%s", w.Code, w.Body.String())
	}
	var result alarmdesk.CycleResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal last: %v", err)
	}
	if result.Occurrences != 5 || result.Lineages != 2 || len(result.NewOccurrences) != 1 {
		t.Fatalf("unexpected cycle result: %+v", result)
	}

	// all three endpoints are protected
	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodPost, "/api/v1/refresh"},
		{http.MethodGet, "/api/v1/refresh/countdown"},
		{http.MethodGet, "/api/v1/refresh/last"},
	} {
		w = httptest.NewRecorder()
		req = httptest.NewRequest(tc.method, tc.path, nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 without auth, got %d", tc.method, tc.path, w.Code)
		}
	}
}

func TestHealth_ReportsSchedulerState(t *testing.T) {
	poller := &mockPoller{countdown: 17}
	s := &service.Service{Poller: poller}
	r := newTestRouter(s)

	// before any cycle: status and countdown only, no auth required
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d, body=%s", w.Code, w.Body.String())
	}
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if m["status"] != statusOK || m["countdown"] != float64(17) {
		t.Fatalf("unexpected health body: %v", m)
	}
	if _, ok := m["last_cycle"]; ok {
		t.Fatalf("expected no last_cycle before the first cycle, got %v", m["last_cycle"])
	}

	// after a cycle the finish time shows up
	poller.last = alarmdesk.CycleResult{FinishedAt: time.Date(2024, 5, 1, 10, 0, 2, 0, time.UTC)}
	poller.hasLast = true
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if m["last_cycle"] != "2024-05-01T10:00:02Z" {
		t.Fatalf("unexpected last_cycle: %v", m["last_cycle"])
	}
}
