package websocket

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/styledna/api/internal/model"
)

const (
	sendBuffer   = 256
	pingInterval = 30 * time.Second
)

// Hub fans job events out to the connections watching a job. Each
// subscriber names the job it wants; events for other jobs never reach
// it.
type Hub struct {
	// subscribers is owned by the Run loop. All mutation goes through
	// the channels, so no lock is needed.
	subscribers map[string]map[*subscriber]struct{}

	attach chan *subscriber
	detach chan *subscriber
	events chan event

	logger *slog.Logger
}

// subscriber is one socket's view of one job. The send channel is
// never closed; done signals teardown, which lets the reader answer
// pings without racing an eviction.
type subscriber struct {
	jobID string
	send  chan []byte
	done  chan struct{}
}

type event struct {
	jobID   string
	payload []byte
}

// NewHub creates an idle hub. Call Run in its own goroutine before
// serving connections.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]map[*subscriber]struct{}),
		attach:      make(chan *subscriber),
		detach:      make(chan *subscriber),
		events:      make(chan event, sendBuffer),
		logger:      logger,
	}
}

// Run owns the subscriber map. It loops until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.attach:
			h.add(sub)
		case sub := <-h.detach:
			h.drop(sub)
		case ev := <-h.events:
			h.fanout(ev)
		}
	}
}

func (h *Hub) add(sub *subscriber) {
	subs := h.subscribers[sub.jobID]
	if subs == nil {
		subs = make(map[*subscriber]struct{})
		h.subscribers[sub.jobID] = subs
	}
	subs[sub] = struct{}{}
	h.logger.Debug("websocket subscriber attached", "job_id", sub.jobID)
}

func (h *Hub) drop(sub *subscriber) {
	subs, ok := h.subscribers[sub.jobID]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		// Already evicted by fanout.
		return
	}
	delete(subs, sub)
	close(sub.done)
	if len(subs) == 0 {
		delete(h.subscribers, sub.jobID)
	}
	h.logger.Debug("websocket subscriber detached", "job_id", sub.jobID)
}

func (h *Hub) fanout(ev event) {
	subs := h.subscribers[ev.jobID]
	for sub := range subs {
		select {
		case sub.send <- ev.payload:
		default:
			// A subscriber that cannot keep up is cut loose rather than
			// stalling the hub.
			delete(subs, sub)
			close(sub.done)
		}
	}
	if len(subs) == 0 {
		delete(h.subscribers, ev.jobID)
	}
}

// BroadcastProgress pushes a progress update to the job's subscribers.
func (h *Hub) BroadcastProgress(jobID string, progress int, status model.JobStatus, step string) {
	h.publish(jobID, model.ProgressEvent{
		Type:        model.EventProgress,
		JobID:       jobID,
		Progress:    progress,
		Status:      status,
		CurrentStep: step,
	})
}

// BroadcastComplete pushes the finished job's result to its
// subscribers.
func (h *Hub) BroadcastComplete(jobID string, result any) {
	h.publish(jobID, model.CompleteEvent{
		Type:   model.EventComplete,
		JobID:  jobID,
		Result: result,
	})
}

// BroadcastError pushes a terminal failure to the job's subscribers.
func (h *Hub) BroadcastError(jobID string, code, message string) {
	h.publish(jobID, model.ErrorEvent{
		Type:  model.EventError,
		JobID: jobID,
		Error: model.ErrorInfo{Code: code, Message: message},
	})
}

func (h *Hub) publish(jobID string, msg any) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("websocket event marshal failed", "job_id", jobID, "error", err)
		return
	}
	h.events <- event{jobID: jobID, payload: payload}
}

// HandleConnection serves one socket until the peer hangs up. It must
// run on the connection's own goroutine, which Fiber's websocket
// handler provides.
func (h *Hub) HandleConnection(c *websocket.Conn, jobID string) {
	sub := &subscriber{
		jobID: jobID,
		send:  make(chan []byte, sendBuffer),
		done:  make(chan struct{}),
	}

	h.attach <- sub
	defer func() { h.detach <- sub }()

	go writeLoop(c, sub)

	for {
		_, frame, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read failed", "job_id", jobID, "error", err)
			}
			return
		}

		var msg model.Envelope
		if err := json.Unmarshal(frame, &msg); err != nil {
			continue
		}
		if msg.Type != model.EventPing {
			continue
		}

		pong, _ := json.Marshal(model.Envelope{Type: model.EventPong})
		select {
		case sub.send <- pong:
		case <-sub.done:
			return
		}
	}
}

// writeLoop is the connection's only writer. It drains the send
// channel and keeps the connection alive with pings.
func writeLoop(c *websocket.Conn, sub *subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sub.done:
			c.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case payload := <-sub.send:
			if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
