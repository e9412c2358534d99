package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"alarmdesk"
	"alarmdesk/internal/service"
)

func addAuth(req *http.Request) {
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
}

func TestLineageHandlers_ListAndFilter(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	poller := &mockPoller{lineages: []alarmdesk.Lineage{
		{
			Key:            alarmdesk.LineageKey{Source: "plant-a", Site: "siteA", Point: "pump1"},
			Representative: alarmdesk.Occurrence{ID: "src1:9", Message: "high temperature"},
			Count:          3,
			Status:         alarmdesk.StatusNotHandled,
		},
	}}
	s := &service.Service{Authorization: auth, Poller: poller}
	r := newTestRouter(s)

	// list requires auth → 401 without header
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/lineages", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", w.Code)
	}

	// with auth → 200 and the snapshot body
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/lineages?status=not_handled&source=plant-a&site=siteA&q=temp", nil)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d, body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Count int                 `json:"count"`
		Items []alarmdesk.Lineage `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if resp.Count != 1 || len(resp.Items) != 1 {
		t.Fatalf("unexpected list response: %+v", resp)
	}
	if resp.Items[0].Key.Point != "pump1" || resp.Items[0].Count != 3 {
		t.Fatalf("unexpected item: %+v", resp.Items[0])
	}

	// query params reach the service as a filter
	want := service.LineageFilter{Status: "not_handled", Source: "plant-a", Site: "siteA", Query: "temp"}
	if poller.lastFilter != want {
		t.Fatalf("filter: got %+v, want %+v", poller.lastFilter, want)
	}

	// unknown status value → 400 before touching the snapshot
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/lineages?status=bogus", nil)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bogus status, got %d", w.Code)
	}
}

func TestLineageHandlers_History(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	auth := &mockAuth{parseID: 7}
	tri := &mockTriage{history: []alarmdesk.HistoryEntry{
		{At: at, Kind: alarmdesk.HistoryKindComment, Text: "pump inspected"},
		{At: at.Add(time.Minute), Kind: alarmdesk.HistoryKindStatus, Text: `Status set to "handled"`},
	}}
	s := &service.Service{Authorization: auth, Triage: tri}
	r := newTestRouter(s)

	// all three key parts are required
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/lineages/history?source=plant-a&site=siteA", nil)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing point, got %d", w.Code)
	}

	// complete key → 200 with merged entries
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/lineages/history?source=plant-a&site=siteA&point=pump1", nil)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("history status=%d, body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Count   int                      `json:"count"`
		Entries []alarmdesk.HistoryEntry `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if resp.Count != 2 || len(resp.Entries) != 2 {
		t.Fatalf("unexpected history response: %+v", resp)
	}
	wantKey := alarmdesk.LineageKey{Source: "plant-a", Site: "siteA", Point: "pump1"}
	if tri.lastHistoryKey != wantKey {
		t.Fatalf("history key: got %+v, want %+v", tri.lastHistoryKey, wantKey)
	}

	// store failure surfaces as 500
	tri.historyErr = errors.New("db down")
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/lineages/history?source=plant-a&site=siteA&point=pump1", nil)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on store failure, got %d", w.Code)
	}
}

func TestLineageHandlers_CommentAndStatus(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	tri := &mockTriage{}
	s := &service.Service{Authorization: auth, Triage: tri}
	r := newTestRouter(s)

	// comment success → 200 and the service sees key+text
	body := bytes.NewBufferString(`{"key":{"source":"plant-a","site":"siteA","point":"pump1"},"text":"pump inspected"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/lineages/comment", body)
	req.Header.Set("Content-Type", "application/json")
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("comment status=%d, body=%s", w.Code, w.Body.String())
	}
	if tri.lastCommentText != "pump inspected" || tri.lastCommentKey.Point != "pump1" {
		t.Fatalf("comment not forwarded: key=%+v text=%q", tri.lastCommentKey, tri.lastCommentText)
	}

	// missing text fails binding → 400
	body = bytes.NewBufferString(`{"key":{"source":"plant-a","site":"siteA","point":"pump1"}}`)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/lineages/comment", body)
	req.Header.Set("Content-Type", "application/json")
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing text, got %d", w.Code)
	}

	// whitespace-only text passes binding but the service rejects it → 400
	tri.commentErr = service.ErrEmptyComment
	body = bytes.NewBufferString(`{"key":{"source":"plant-a","site":"siteA","point":"pump1"},"text":"   "}`)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/lineages/comment", body)
	req.Header.Set("Content-Type", "application/json")
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank text, got %d", w.Code)
	}
	tri.commentErr = nil

	// status success → 200 and the service sees the parsed status
	body = bytes.NewBufferString(`{"key":{"source":"plant-a","site":"siteA","point":"pump1"},"status":"completed"}`)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/v1/lineages/status", body)
	req.Header.Set("Content-Type", "application/json")
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status status=%d, body=%s", w.Code, w.Body.String())
	}
	if tri.lastStatus != alarmdesk.StatusCompleted {
		t.Fatalf("status not forwarded: got %q", tri.lastStatus)
	}

	// unknown status → 400
	tri.statusErr = service.ErrInvalidStatus
	body = bytes.NewBufferString(`{"key":{"source":"plant-a","site":"siteA","point":"pump1"},"status":"bogus"}`)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/v1/lineages/status", body)
	req.Header.Set("Content-Type", "application/json")
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bogus status, got %d", w.Code)
	}

	// service failure → 500
	tri.statusErr = errors.New("db down")
	body = bytes.NewBufferString(`{"key":{"source":"plant-a","site":"siteA","point":"pump1"},"status":"handled"}`)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/v1/lineages/status", body)
	req.Header.Set("Content-Type", "application/json")
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on store failure, got %d", w.Code)
	}
}
