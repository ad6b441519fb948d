package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dukerupert/larder/internal/metrics"
)

const (
	EntityPantryItem   = "pantry_item"
	EntityContribution = "contribution"
)

// Message tells clients which cached collection changed. Clients refetch;
// the message never carries the record itself.
type Message struct {
	Type   string `json:"type"`
	Entity string `json:"entity"`
	Action string `json:"action"`
	ID     string `json:"id,omitempty"`
}

func changed(entity, action, id string) Message {
	return Message{Type: entity + "_" + action, Entity: entity, Action: action, ID: id}
}

// Hub indexes live subscribers by user so owner-scoped notifications only
// touch that user's connections.
type Hub struct {
	mu     sync.RWMutex
	byUser map[string]map[*subscriber]struct{}
	total  int
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		byUser: make(map[string]map[*subscriber]struct{}),
		logger: logger,
	}
}

func (h *Hub) add(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.byUser[s.userID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.byUser[s.userID] = set
	}
	set[s] = struct{}{}
	h.total++
	metrics.LiveConnections.Inc()
}

// remove is idempotent; the outbox is closed exactly once.
func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.byUser[s.userID]
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.byUser, s.userID)
	}
	close(s.outbox)
	h.total--
	metrics.LiveConnections.Dec()
}

// Broadcast queues msg for every subscriber and returns how many accepted it.
func (h *Hub) Broadcast(msg Message) int {
	data, ok := h.encode(msg)
	if !ok {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.byUser {
		n += h.offer(set, data, msg.Type)
	}
	return n
}

// SendToUser queues msg for userID's subscribers and returns how many accepted it.
func (h *Hub) SendToUser(userID string, msg Message) int {
	data, ok := h.encode(msg)
	if !ok {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.offer(h.byUser[userID], data, msg.Type)
}

func (h *Hub) encode(msg Message) ([]byte, bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("encode change notification", "error", err)
		return nil, false
	}
	return data, true
}

// offer never blocks: a full outbox loses the message and the client
// catches up on its next refetch.
func (h *Hub) offer(set map[*subscriber]struct{}, data []byte, typ string) int {
	n := 0
	for s := range set {
		select {
		case s.outbox <- data:
			n++
		default:
			metrics.LiveDropped.Inc()
			h.logger.Debug("subscriber lagging, notification dropped", "user_id", s.userID, "type", typ)
		}
	}
	return n
}

// PantryChanged notifies the owner's sessions that their pantry changed.
func (h *Hub) PantryChanged(ownerID, action, itemID string) {
	h.SendToUser(ownerID, changed(EntityPantryItem, action, itemID))
}

// ContributionChanged notifies everyone that the community feed changed.
func (h *Hub) ContributionChanged(action, contributionID string) {
	h.Broadcast(changed(EntityContribution, action, contributionID))
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}
