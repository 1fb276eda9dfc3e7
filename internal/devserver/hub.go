package devserver

import (
	"sync"
	"time"

	"storefront-realtime/internal/model"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client is one connected socket on a namespace.
type Client struct {
	ID        string
	UserID    string
	Namespace string
	LastPing  time.Time

	conn    *websocket.Conn
	writeMu sync.Mutex
}

// Send writes one envelope to the client. Safe for concurrent use.
func (c *Client) Send(env model.Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(env)
}

// Hub tracks connected clients and their room memberships. Rooms hold client
// ids, not client pointers, to keep cleanup cycle-free.
type Hub struct {
	clientsMu sync.RWMutex
	clients   map[string]*Client

	roomsMu sync.RWMutex
	rooms   map[string]map[string]bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]bool),
	}
}

func (h *Hub) AddClient(client *Client) {
	h.clientsMu.Lock()
	h.clients[client.ID] = client
	h.clientsMu.Unlock()

	logrus.WithFields(logrus.Fields{
		"client_id": client.ID,
		"user_id":   client.UserID,
		"namespace": client.Namespace,
	}).Info("client connected")
}

func (h *Hub) RemoveClient(clientID string) {
	h.clientsMu.Lock()
	client, exists := h.clients[clientID]
	if !exists {
		h.clientsMu.Unlock()
		return
	}
	delete(h.clients, clientID)
	h.clientsMu.Unlock()

	client.conn.Close()

	h.roomsMu.Lock()
	for room, members := range h.rooms {
		delete(members, clientID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	h.roomsMu.Unlock()

	logrus.WithField("client_id", clientID).Info("client disconnected")
}

func (h *Hub) GetClient(clientID string) (*Client, bool) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	client, exists := h.clients[clientID]
	return client, exists
}

func (h *Hub) JoinRoom(clientID, room string) {
	h.roomsMu.Lock()
	members, exists := h.rooms[room]
	if !exists {
		members = make(map[string]bool)
		h.rooms[room] = members
	}
	members[clientID] = true
	h.roomsMu.Unlock()

	logrus.WithFields(logrus.Fields{
		"client_id": clientID,
		"room":      room,
	}).Debug("client joined room")
}

func (h *Hub) LeaveRoom(clientID, room string) {
	h.roomsMu.Lock()
	if members, exists := h.rooms[room]; exists {
		delete(members, clientID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	h.roomsMu.Unlock()
}

// Broadcast sends an envelope to every room member except excludeID. Clients
// whose write fails are removed.
func (h *Hub) Broadcast(room string, env model.Envelope, excludeID string) int {
	h.roomsMu.RLock()
	members := make([]string, 0, len(h.rooms[room]))
	for id := range h.rooms[room] {
		members = append(members, id)
	}
	h.roomsMu.RUnlock()

	count := 0
	for _, id := range members {
		if id == excludeID {
			continue
		}
		client, exists := h.GetClient(id)
		if !exists {
			h.LeaveRoom(id, room)
			continue
		}
		if err := client.Send(env); err != nil {
			logrus.WithFields(logrus.Fields{
				"client_id": id,
				"error":     err.Error(),
			}).Error("broadcast write failed")
			h.RemoveClient(id)
			continue
		}
		count++
	}
	return count
}

// Stats reports connection counters for the health endpoint.
func (h *Hub) Stats() map[string]interface{} {
	h.clientsMu.RLock()
	activeConnections := len(h.clients)
	h.clientsMu.RUnlock()

	h.roomsMu.RLock()
	totalRooms := len(h.rooms)
	h.roomsMu.RUnlock()

	return map[string]interface{}{
		"active_connections": activeConnections,
		"total_rooms":        totalRooms,
	}
}

// Shutdown disconnects every client.
func (h *Hub) Shutdown() {
	h.clientsMu.Lock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.clientsMu.Unlock()

	for _, id := range ids {
		h.RemoveClient(id)
	}
}
