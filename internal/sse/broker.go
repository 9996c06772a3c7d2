// Package sse implements a Server-Sent Events broker for marketplace changes.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// EventListingsChanged tells clients that the announcement listing may be stale.
const EventListingsChanged = "listings.changed"

const (
	clientBuffer     = 64
	defaultKeepalive = 25 * time.Second
	retryMillis      = 3000
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type changeReq struct {
	kind string
	data map[string]any
}

type subscribeReq struct {
	ch     chan []byte
	topics []string
}

// Broker fans marketplace change events out to SSE clients.
//
// One goroutine owns the client set, the event sequence and the listings
// throttle; public methods talk to it over channels.
type Broker struct {
	listingsMin time.Duration
	keepalive   time.Duration

	subscribeCh   chan subscribeReq
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	changeCh      chan changeReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits listings.changed at most once per listingsThrottle.
func NewBroker(listingsThrottle time.Duration) *Broker {
	if listingsThrottle <= 0 {
		listingsThrottle = 2 * time.Second
	}

	b := &Broker{
		listingsMin:   listingsThrottle,
		keepalive:     defaultKeepalive,
		subscribeCh:   make(chan subscribeReq),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		changeCh:      make(chan changeReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte][]string)
	var seq uint64
	var lastListings time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		seq++
		raw := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, event.Type, payload))

		for ch, topics := range clients {
			if !wants(topics, event.Type) {
				continue
			}
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than stall everyone else.
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

		case req := <-b.subscribeCh:
			clients[req.ch] = req.topics

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.changeCh:
			data := req.data
			if data == nil {
				data = map[string]any{}
			}
			broadcast(Event{Type: req.kind, Data: data})

			if !affectsListings(req.kind) {
				continue
			}
			now := time.Now()
			if now.Sub(lastListings) >= b.listingsMin {
				lastListings = now
				broadcast(Event{Type: EventListingsChanged, Data: map[string]any{"cause": req.kind}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// wants reports whether a client subscribed to topics receives kind.
// A topic matches the part of kind before the first dot; no topics means everything.
func wants(topics []string, kind string) bool {
	if len(topics) == 0 {
		return true
	}
	group, _, _ := strings.Cut(kind, ".")
	for _, t := range topics {
		if t == group || t == kind {
			return true
		}
	}
	return false
}

// Close stops the broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client interested in topics ("announcement", "user",
// "feedback", "backup", "listings" or a full event kind) and returns its channel.
func (b *Broker) Subscribe(topics ...string) chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscribeReq{ch: ch, topics: topics}:
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

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishChange publishes a domain change and, for changes that can alter
// the announcement listing, a throttled listings.changed event.
func (b *Broker) PublishChange(kind string, data map[string]any) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- changeReq{kind: kind, data: data}:
	case <-b.stopped:
	}
}

// affectsListings reports whether a change of this kind can alter listing results.
// Deleting or editing a user changes the owner name that listings filter on.
func affectsListings(kind string) bool {
	return strings.HasPrefix(kind, "announcement.") ||
		strings.HasPrefix(kind, "user.") ||
		strings.HasPrefix(kind, "backup.")
}

// parseTopics reads the comma-separated topics query parameter.
func parseTopics(raw string) []string {
	var topics []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

// ServeHTTP is the SSE endpoint handler (GET /api/events?topics=announcement,listings).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("retry: " + strconv.Itoa(retryMillis) + "\n\n"))
	flusher.Flush()

	ch := b.Subscribe(parseTopics(r.URL.Query().Get("topics"))...)
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(b.keepalive)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
