package handlers

import (
	"context"
	"net/http"

	"alarmdesk"
	"alarmdesk/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockTriage struct {
	commentErr error
	statusErr  error
	history    []alarmdesk.HistoryEntry
	historyErr error

	lastCommentKey  alarmdesk.LineageKey
	lastCommentText string
	lastStatusKey   alarmdesk.LineageKey
	lastStatus      alarmdesk.Status
	lastHistoryKey  alarmdesk.LineageKey
}

func (m *mockTriage) SubmitComment(ctx context.Context, key alarmdesk.LineageKey, text string) error {
	m.lastCommentKey = key
	m.lastCommentText = text
	return m.commentErr
}
func (m *mockTriage) SetStatus(ctx context.Context, key alarmdesk.LineageKey, status alarmdesk.Status) error {
	m.lastStatusKey = key
	m.lastStatus = status
	return m.statusErr
}
func (m *mockTriage) History(ctx context.Context, key alarmdesk.LineageKey) ([]alarmdesk.HistoryEntry, error) {
	m.lastHistoryKey = key
	return m.history, m.historyErr
}

type mockSourceAdmin struct {
	createResp alarmdesk.Source
	createErr  error
	updateResp alarmdesk.Source
	updateErr  error
	deleteErr  error
	getResp    *alarmdesk.Source
	getErr     error
	listResp   []alarmdesk.Source
	listErr    error

	lastCreated  alarmdesk.Source
	lastUpdated  alarmdesk.Source
	lastDeleteID string
	lastGetID    string
}

func (m *mockSourceAdmin) Create(ctx context.Context, s alarmdesk.Source) (alarmdesk.Source, error) {
	m.lastCreated = s
	return m.createResp, m.createErr
}
func (m *mockSourceAdmin) Update(ctx context.Context, s alarmdesk.Source) (alarmdesk.Source, error) {
	m.lastUpdated = s
	return m.updateResp, m.updateErr
}
func (m *mockSourceAdmin) Delete(ctx context.Context, id string) error {
	m.lastDeleteID = id
	return m.deleteErr
}
func (m *mockSourceAdmin) Get(ctx context.Context, id string) (*alarmdesk.Source, error) {
	m.lastGetID = id
	return m.getResp, m.getErr
}
func (m *mockSourceAdmin) List(ctx context.Context) ([]alarmdesk.Source, error) {
	return m.listResp, m.listErr
}

type mockPoller struct {
	lineages  []alarmdesk.Lineage
	last      alarmdesk.CycleResult
	hasLast   bool
	countdown int

	refreshCalls int
	lastFilter   service.LineageFilter
	listeners    []func(alarmdesk.CycleResult)
}

func (m *mockPoller) Run(ctx context.Context) {}
func (m *mockPoller) TriggerRefresh()         { m.refreshCalls++ }
func (m *mockPoller) Countdown() int          { return m.countdown }
func (m *mockPoller) Lineages(f service.LineageFilter) []alarmdesk.Lineage {
	m.lastFilter = f
	return m.lineages
}
func (m *mockPoller) LastCycle() (alarmdesk.CycleResult, bool) { return m.last, m.hasLast }
func (m *mockPoller) OnCycleComplete(fn func(alarmdesk.CycleResult)) {
	m.listeners = append(m.listeners, fn)
}

// fire delivers a result to every registered listener, standing in for a
// completed poll cycle.
func (m *mockPoller) fire(r alarmdesk.CycleResult) {
	for _, fn := range m.listeners {
		fn(r)
	}
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
