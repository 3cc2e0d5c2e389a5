// Package sse implements a Server-Sent Events broker that tells open
// dashboard views to refetch after a mutation lands.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event is one SSE broadcast.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type resourceEventReq struct {
	kind     string // created, updated, deleted
	resource string
	id       string
}

// Broker manages SSE client connections and broadcasts events.
//
// A single internal loop owns all mutable state (clients and the dashboard
// throttle timestamp); public methods talk to it through channels, so the
// broker needs no mutexes.
type Broker struct {
	dashboardMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	resourceCh    chan resourceEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker. dashboardThrottle bounds how often the
// aggregate dashboard.updated event fires.
func NewBroker(dashboardThrottle time.Duration) *Broker {
	if dashboardThrottle <= 0 {
		dashboardThrottle = 2 * time.Second
	}

	b := &Broker{
		dashboardMin:  dashboardThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		resourceCh:    make(chan resourceEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastDashboard time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip rather than block the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case req := <-b.resourceCh:
			broadcast(Event{
				Type: req.resource + "." + req.kind,
				Data: map[string]string{"id": req.id},
			})

			// Any mutation can move the dashboard numbers; throttle the
			// aggregate signal.
			now := time.Now()
			if now.Sub(lastDashboard) >= b.dashboardMin {
				lastDashboard = now
				broadcast(Event{Type: "dashboard.updated", Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// PublishResourceEvent broadcasts a {resource}.{kind} refresh signal.
func (b *Broker) PublishResourceEvent(kind, resource, id string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.resourceCh <- resourceEventReq{kind: kind, resource: resource, id: id}:
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client until it disconnects.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
