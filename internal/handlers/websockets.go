package handlers

import (
	"net/http"
	"sync"
	"time"

	"alarmdesk"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB
	subBuffer  = 4
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// cyclePayload is what subscribers receive after every poll cycle.
type cyclePayload struct {
	Result    alarmdesk.CycleResult `json:"result"`
	Countdown int                   `json:"countdown"`
}

// Upgrader for HTTP -> WebSocket. Consider tightening CheckOrigin in production.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origins for production
}

// cycleHub fans completed poll cycles out to connected sockets. It is
// registered once as an engine listener; connections come and go.
type cycleHub struct {
	mu   sync.Mutex
	subs map[chan alarmdesk.CycleResult]struct{}
}

func newCycleHub() *cycleHub {
	return &cycleHub{subs: make(map[chan alarmdesk.CycleResult]struct{})}
}

// broadcast runs on the poll goroutine: sends must never block it, so slow
// consumers lose results instead of stalling the cycle.
func (hub *cycleHub) broadcast(r alarmdesk.CycleResult) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	for ch := range hub.subs {
		select {
		case ch <- r:
		default:
		}
	}
}

func (hub *cycleHub) subscribe() chan alarmdesk.CycleResult {
	ch := make(chan alarmdesk.CycleResult, subBuffer)
	hub.mu.Lock()
	hub.subs[ch] = struct{}{}
	hub.mu.Unlock()
	return ch
}

func (hub *cycleHub) unsubscribe(ch chan alarmdesk.CycleResult) {
	hub.mu.Lock()
	delete(hub.subs, ch)
	hub.mu.Unlock()
}

// @Summary      Cycle feed
// @Description  WebSocket upgrade. Pushes an envelope {type:"cycle", data:{result, countdown}} after every poll cycle; the latest result is sent on connect.
// @Tags         system
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Reader goroutine to handle control frames and detect disconnects.
	done := make(chan struct{})
	go h.startReader(conn, done)

	sub := h.hub.subscribe()
	defer h.hub.unsubscribe(sub)

	// Late joiners get the latest cycle immediately.
	if result, ok := h.services.LastCycle(); ok {
		if err := h.sendCycle(conn, result); err != nil {
			if h.log != nil {
				h.log.Infow("ws_write_failed_initial", "err", err)
			}
			return
		}
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	// Writer/select loop.
	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case result := <-sub:
			if err := h.sendCycle(conn, result); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// Helper: startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}

// Helper: sendCycle writes one cycle envelope with a write deadline.
func (h *Handler) sendCycle(conn *websocket.Conn, result alarmdesk.CycleResult) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(wsEnvelope{
		Type: "cycle",
		Data: cyclePayload{Result: result, Countdown: h.services.Countdown()},
	})
}
