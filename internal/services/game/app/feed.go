package app

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

// Notification is one committed journal event fanned out to feed
// subscribers. Payload is the event payload verbatim; Message is the
// localized rendering for the subscriber's locale, filled in by the
// websocket handler.
type Notification struct {
	Type      string          `json:"type"`
	RealmID   string          `json:"realm_id"`
	Seq       int64           `json:"seq"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// subscriberBuffer bounds per-subscriber backlog. A subscriber that falls
// behind loses frames rather than stalling commits.
const subscriberBuffer = 32

// Feed broadcasts committed events to websocket subscribers per realm.
//
// Publishing never blocks: the feed is an observation surface, not part of
// the commit path, so a slow consumer only hurts itself.
type Feed struct {
	mu   sync.Mutex
	subs map[string]map[chan Notification]struct{}
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[string]map[chan Notification]struct{})}
}

// Subscribe registers a listener for one realm's notifications. The cancel
// function removes the subscription and closes the channel.
func (f *Feed) Subscribe(realmID string) (<-chan Notification, func()) {
	ch := make(chan Notification, subscriberBuffer)
	f.mu.Lock()
	set, ok := f.subs[realmID]
	if !ok {
		set = make(map[chan Notification]struct{})
		f.subs[realmID] = set
	}
	set[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			if set, ok := f.subs[realmID]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(f.subs, realmID)
				}
			}
			f.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish fans a notification out to the realm's subscribers, dropping
// frames for any subscriber whose buffer is full. Nil-safe so a service
// without a feed publishes into the void.
func (f *Feed) Publish(n Notification) {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs[n.RealmID] {
		select {
		case ch <- n:
		default:
		}
	}
}

// Handler returns the websocket endpoint streaming a realm's notifications.
// Clients connect with ?realm_id=<id> and receive one JSON frame per
// committed event until they disconnect. An optional ?locale=<tag> selects
// the language of each frame's rendered message.
func (f *Feed) Handler() http.Handler {
	return websocket.Handler(func(ws *websocket.Conn) {
		defer ws.Close()
		query := ws.Request().URL.Query()
		realmID := query.Get("realm_id")
		locale := query.Get("locale")
		if realmID == "" {
			_ = websocket.JSON.Send(ws, map[string]string{"error": "realm_id is required"})
			return
		}
		notifications, cancel := f.Subscribe(realmID)
		defer cancel()

		// Drain client frames so the read side surfaces the disconnect.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				var discard string
				if err := websocket.Message.Receive(ws, &discard); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case n, ok := <-notifications:
				if !ok {
					return
				}
				n.Message = renderFeedMessage(locale, n.Type, n.Payload)
				if err := websocket.JSON.Send(ws, n); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	})
}
