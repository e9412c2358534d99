package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"alarmdesk"
	"alarmdesk/internal/service"
)

func TestSourceHandlers_CreateListDelete(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	adm := &mockSourceAdmin{
		createResp: alarmdesk.Source{ID: "abc", Label: "plant-a", BaseURL: "https://plant-a.example.com", Username: "svc", Enabled: true, PageSize: 100},
		listResp: []alarmdesk.Source{
			{ID: "abc", Label: "plant-a"},
			{ID: "def", Label: "plant-b"},
		},
	}
	s := &service.Service{Authorization: auth, SourceAdmin: adm}
	r := newTestRouter(s)

	// create → 201 and defaults filled in before the service sees the descriptor
	body := bytes.NewBufferString(`{"label":"plant-a","base_url":"https://plant-a.example.com","username":"svc","password":"secret"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sources", body)
	req.Header.Set("Content-Type", "application/json")
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status=%d, body=%s", w.Code, w.Body.String())
	}
	if !adm.lastCreated.Enabled {
		t.Fatalf("expected enabled to default to true, got %+v", adm.lastCreated)
	}
	if adm.lastCreated.PageSize != defaultSourcePageSize {
		t.Fatalf("expected page size default %d, got %d", defaultSourcePageSize, adm.lastCreated.PageSize)
	}
	var created alarmdesk.Source
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal created: %v", err)
	}
	if created.ID != "abc" {
		t.Fatalf("expected assigned id in response, got %+v", created)
	}

	// missing required fields fail binding → 400
	body = bytes.NewBufferString(`{"label":"plant-a"}`)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/sources", body)
	req.Header.Set("Content-Type", "application/json")
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for incomplete payload, got %d", w.Code)
	}

	// invalid descriptor rejected by the service → 400
	adm.createErr = alarmdesk.ErrSourceInvalid
	body = bytes.NewBufferString(`{"label":"plant-a","base_url":"https://plant-a.example.com","username":"svc","hour_offset":99}`)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/sources", body)
	req.Header.Set("Content-Type", "application/json")
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid descriptor, got %d", w.Code)
	}
	adm.createErr = nil

	// list → 200 with count
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/sources", nil)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d, body=%s", w.Code, w.Body.String())
	}
	var listResp struct {
		Count int                `json:"count"`
		Items []alarmdesk.Source `json:"items"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &listResp)
	if listResp.Count != 2 || len(listResp.Items) != 2 {
		t.Fatalf("unexpected list response: %+v", listResp)
	}

	// delete → 200 and the id reaches the service
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/sources/abc", nil)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status=%d, body=%s", w.Code, w.Body.String())
	}
	if adm.lastDeleteID != "abc" {
		t.Fatalf("delete id: got %q, want %q", adm.lastDeleteID, "abc")
	}

	// delete unknown id → 404
	adm.deleteErr = service.ErrSourceNotFound
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/sources/nope", nil)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", w.Code)
	}
}

func TestSourceHandlers_GetAndUpdate(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	adm := &mockSourceAdmin{
		getResp:    &alarmdesk.Source{ID: "abc", Label: "plant-a", Password: "stored-secret"},
		updateResp: alarmdesk.Source{ID: "abc", Label: "plant-a-renamed"},
	}
	s := &service.Service{Authorization: auth, SourceAdmin: adm}
	r := newTestRouter(s)

	// get → 200
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sources/abc", nil)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get status=%d, body=%s", w.Code, w.Body.String())
	}
	if adm.lastGetID != "abc" {
		t.Fatalf("get id: got %q, want %q", adm.lastGetID, "abc")
	}

	// get unknown id → 404
	adm.getErr = service.ErrSourceNotFound
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/sources/nope", nil)
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", w.Code)
	}
	adm.getErr = nil

	// update with blank password keeps the stored one
	body := bytes.NewBufferString(`{"label":"plant-a-renamed","base_url":"https://plant-a.example.com","username":"svc"}`)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/v1/sources/abc", body)
	req.Header.Set("Content-Type", "application/json")
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update status=%d, body=%s", w.Code, w.Body.String())
	}
	if adm.lastUpdated.ID != "abc" {
		t.Fatalf("update id from path: got %q, want %q", adm.lastUpdated.ID, "abc")
	}
	if adm.lastUpdated.Password != "stored-secret" {
		t.Fatalf("expected stored password to be kept, got %q", adm.lastUpdated.Password)
	}

	// update with a new password passes it through
	body = bytes.NewBufferString(`{"label":"plant-a-renamed","base_url":"https://plant-a.example.com","username":"svc","password":"rotated"}`)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/v1/sources/abc", body)
	req.Header.Set("Content-Type", "application/json")
	addAuth(req)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update status=%d, body=%s", w.Code, w.Body.String())
	}
	if adm.lastUpdated.Password != "rotated" {
		t.Fatalf("expected new password to pass through, got %q", adm.lastUpdated.Password)
	}
}
