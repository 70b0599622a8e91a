// Package sse streams work change notifications to open pages over
// Server-Sent Events so they can reload while works are being edited.
package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Event types sent to clients.
const (
	TypeWorkCreated = "work.created"
	TypeWorkUpdated = "work.updated"
	TypeWorkDeleted = "work.deleted"
	TypeSiteReload  = "site.reload"
)

// Event is one message on the stream. Data is encoded as JSON.
type Event struct {
	Type string
	Data any
}

// WorkChange is the payload of work.* events.
type WorkChange struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Config tunes a Broker. Zero values pick the defaults.
type Config struct {
	// ReloadThrottle is the minimum gap between site.reload events.
	ReloadThrottle time.Duration
	// Heartbeat is how often idle streams get a comment line; negative disables.
	Heartbeat time.Duration
	// Backlog is how many recent events are kept for Last-Event-ID replay.
	Backlog int
	// ClientBuffer is each client's queue length; a full queue drops messages.
	ClientBuffer int
}

const (
	defaultReloadThrottle = 2 * time.Second
	defaultHeartbeat      = 25 * time.Second
	defaultBacklog        = 32
	defaultClientBuffer   = 64

	// retryMillis is the reconnect delay suggested to browsers.
	retryMillis = 3000
)

func (c Config) withDefaults() Config {
	if c.ReloadThrottle <= 0 {
		c.ReloadThrottle = defaultReloadThrottle
	}
	if c.Heartbeat == 0 {
		c.Heartbeat = defaultHeartbeat
	}
	if c.Backlog <= 0 {
		c.Backlog = defaultBacklog
	}
	if c.ClientBuffer <= 0 {
		c.ClientBuffer = defaultClientBuffer
	}
	return c
}

type subscription struct {
	ch     chan []byte
	lastID uint64
}

type change struct {
	kind string
	name string
}

// pending is one inbox entry: an event, a work change, or a flush marker.
type pending struct {
	event  *Event
	change *change
	done   chan struct{}
}

type countReq chan int

// Broker fans events out to connected clients. One goroutine owns the client
// set, the event backlog and the reload throttle; the exported methods send
// it requests over channels.
type Broker struct {
	cfg Config

	subscribeCh   chan subscription
	unsubscribeCh chan chan []byte
	inbox         chan pending
	countCh       chan countReq

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker.
func NewBroker(cfg Config) *Broker {
	b := &Broker{
		cfg:           cfg.withDefaults(),
		subscribeCh:   make(chan subscription),
		unsubscribeCh: make(chan chan []byte),
		inbox:         make(chan pending, 256),
		countCh:       make(chan countReq),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go b.loop()
	return b
}

type framed struct {
	id  uint64
	raw []byte
}

func (b *Broker) loop() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	backlog := make([]framed, 0, b.cfg.Backlog)
	var nextID uint64
	var lastReload time.Time

	send := func(ev Event) {
		payload, err := json.Marshal(ev.Data)
		if err != nil {
			return
		}
		nextID++
		msg := frame(nextID, ev.Type, payload)

		if len(backlog) == b.cfg.Backlog {
			backlog = backlog[1:]
		}
		backlog = append(backlog, framed{id: nextID, raw: msg})

		for ch := range clients {
			select {
			case ch <- msg:
			default:
				// Slow client; it will resync on the next reload.
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

		case sub := <-b.subscribeCh:
			clients[sub.ch] = struct{}{}
			if sub.lastID == 0 {
				continue
			}
			for _, f := range backlog {
				if f.id <= sub.lastID {
					continue
				}
				select {
				case sub.ch <- f.raw:
				default:
				}
			}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case p := <-b.inbox:
			switch {
			case p.done != nil:
				close(p.done)
			case p.event != nil:
				send(*p.event)
			case p.change != nil:
				typ, ok := changeType(p.change.kind)
				if !ok {
					continue
				}
				name := p.change.name
				send(Event{Type: typ, Data: WorkChange{Name: name, URL: "/works/" + name}})

				if now := time.Now(); now.Sub(lastReload) >= b.cfg.ReloadThrottle {
					lastReload = now
					send(Event{Type: TypeSiteReload, Data: struct{}{}})
				}
			}

		case resp := <-b.countCh:
			resp <- len(clients)
		}
	}
}

func changeType(kind string) (string, bool) {
	switch kind {
	case "created":
		return TypeWorkCreated, true
	case "updated":
		return TypeWorkUpdated, true
	case "deleted":
		return TypeWorkDeleted, true
	}
	return "", false
}

func frame(id uint64, typ string, payload []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "id: %d\nevent: %s\ndata: %s\n\n", id, typ, payload)
	return buf.Bytes()
}

// Close stops the broker and closes every client channel. It is safe to call
// more than once.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client. Events newer than lastID still in the
// backlog are queued first; pass 0 for a fresh connection.
func (b *Broker) Subscribe(lastID uint64) chan []byte {
	ch := make(chan []byte, b.cfg.ClientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.subscribeCh <- subscription{ch: ch, lastID: lastID}:
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
	resp := make(countReq, 1)
	select {
	case b.countCh <- resp:
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

// Publish sends an arbitrary event to all clients.
func (b *Broker) Publish(ev Event) {
	if b.closed.Load() {
		return
	}
	b.enqueue(pending{event: &ev})
}

// PublishWorkEvent reports a work change of kind created, updated or
// deleted. Other kinds are ignored. A site.reload follows, at most once per
// ReloadThrottle.
func (b *Broker) PublishWorkEvent(kind, name string) {
	if b.closed.Load() {
		return
	}
	b.enqueue(pending{change: &change{kind: kind, name: name}})
}

func (b *Broker) enqueue(p pending) {
	select {
	case b.inbox <- p:
	case <-b.stopped:
	}
}

// flush waits until everything published so far has been delivered.
func (b *Broker) flush() {
	if b.closed.Load() {
		return
	}
	done := make(chan struct{})
	b.enqueue(pending{done: done})
	select {
	case <-done:
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client until it disconnects or the broker
// closes. A Last-Event-ID header resumes from the backlog.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	lastID, _ := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "retry: %d\n\n", retryMillis)
	flusher.Flush()

	ch := b.Subscribe(lastID)
	defer b.Unsubscribe(ch)

	var heartbeat <-chan time.Time
	if b.cfg.Heartbeat > 0 {
		t := time.NewTicker(b.cfg.Heartbeat)
		defer t.Stop()
		heartbeat = t.C
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat:
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
