package notify

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"auctionhouse-api/internal/model"
	"auctionhouse-api/pkg/logging"
	"auctionhouse-api/pkg/uid"
)

// EventSubscribed is the first message on every websocket subscription.
const EventSubscribed model.EventType = "subscribed"

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS layer in front of the router.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one websocket subscription to one auction.
type Client struct {
	ID        string
	AuctionID string
	conn      *websocket.Conn
	send      chan []byte
}

type broadcast struct {
	auctionID string
	payload   []byte
}

// Hub keeps the websocket subscribers of every auction and pushes changes to
// them. A slow client whose buffer is full is dropped rather than blocking
// the others.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcast
	done       chan struct{}
	stopOnce   sync.Once
}

var _ Publisher = (*Hub)(nil)

// NewHub creates a hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[*Client]struct{}),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan broadcast, 256),
		done:        make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is done or Stop is called.
func (h *Hub) Run(ctx context.Context) {
	log := logging.Component("hub")
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			set, ok := h.subscribers[c.AuctionID]
			if !ok {
				set = make(map[*Client]struct{})
				h.subscribers[c.AuctionID] = set
			}
			set[c] = struct{}{}
			h.mu.Unlock()
			log.Debug("client subscribed", "client", c.ID, "auction", c.AuctionID)

		case c := <-h.unregister:
			h.remove(c)

		case m := <-h.broadcast:
			h.deliver(m)

		case <-ctx.Done():
			h.Stop()
			h.closeAll()
			return
		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Stop shuts the hub down and disconnects every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Publish implements Publisher by pushing the event to local subscribers.
func (h *Hub) Publish(ctx context.Context, ev model.Event) error {
	payload, err := encode(ev)
	if err != nil {
		return err
	}
	return h.Broadcast(ctx, ev.AuctionID, payload)
}

// Broadcast queues a raw payload for the subscribers of auctionID. It blocks
// while the queue is full until ctx is done.
func (h *Hub) Broadcast(ctx context.Context, auctionID string, payload []byte) error {
	select {
	case h.broadcast <- broadcast{auctionID: auctionID, payload: payload}:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("hub queue full: %w", ctx.Err())
	}
}

// SubscriberCount returns the number of clients watching auctionID.
func (h *Hub) SubscriberCount(auctionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[auctionID])
}

// ServeWS upgrades the request and subscribes the connection to auctionID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, auctionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Component("hub").Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &Client{
		ID:        uid.New(),
		AuctionID: auctionID,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
	}
	welcome, _ := encode(model.Event{
		ID:         uid.New(),
		Type:       EventSubscribed,
		AuctionID:  auctionID,
		OccurredAt: time.Now().UTC(),
	})
	c.send <- welcome

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(h)
}

func (h *Hub) deliver(m broadcast) {
	h.mu.RLock()
	var slow []*Client
	for c := range h.subscribers[m.auctionID] {
		select {
		case c.send <- m.payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.remove(c)
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subscribers[c.AuctionID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.subscribers, c.AuctionID)
	}
	close(c.send)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, set := range h.subscribers {
		for c := range set {
			close(c.send)
		}
		delete(h.subscribers, id)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only drains control frames; subscribers never send data.
func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Component("hub").Debug("websocket closed", "client", c.ID, "error", err)
			}
			return
		}
	}
}
