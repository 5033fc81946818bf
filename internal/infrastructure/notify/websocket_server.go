package notify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"mediagate/internal/core/domain"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// subscriberMetrics is the slice of the metrics collector the hub needs.
type subscriberMetrics interface {
	SubscriberConnected()
	SubscriberDisconnected()
}

type noopMetrics struct{}

func (noopMetrics) SubscriberConnected()    {}
func (noopMetrics) SubscriberDisconnected() {}

// WebSocketServer pushes revocation notices to connected players. A
// player watches the resources it currently holds capabilities for;
// when an entitlement is revoked or a resource is unpublished, every
// watcher gets a notice and is expected to revalidate immediately
// instead of waiting for its next timer tick.
type WebSocketServer struct {
	mu       sync.RWMutex
	watchers map[domain.ResourceID]map[*client]struct{}
	clients  map[*client]struct{}

	pingInterval time.Duration
	pongTimeout  time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration

	metrics subscriberMetrics
	logger  *zap.SugaredLogger
}

type client struct {
	conn      *websocket.Conn
	principal domain.PrincipalID
	send      chan pushMessage
}

type clientMessage struct {
	Type       string            `json:"type"`
	ResourceID domain.ResourceID `json:"resource_id,omitempty"`
}

type pushMessage struct {
	Type       string            `json:"type"`
	ResourceID domain.ResourceID `json:"resource_id,omitempty"`
	Reason     string            `json:"reason,omitempty"`
}

func NewWebSocketServer(logger *zap.SugaredLogger) *WebSocketServer {
	return &WebSocketServer{
		watchers:     make(map[domain.ResourceID]map[*client]struct{}),
		clients:      make(map[*client]struct{}),
		pingInterval: 30 * time.Second,
		pongTimeout:  60 * time.Second,
		readTimeout:  60 * time.Second,
		writeTimeout: 10 * time.Second,
		metrics:      noopMetrics{},
		logger:       logger,
	}
}

// SetPingInterval sets ping interval for WebSocket connections
func (s *WebSocketServer) SetPingInterval(interval time.Duration) {
	s.pingInterval = interval
}

// SetPongTimeout sets pong timeout for WebSocket connections
func (s *WebSocketServer) SetPongTimeout(timeout time.Duration) {
	s.pongTimeout = timeout
	s.readTimeout = timeout
}

// SetMetrics wires the subscriber gauge.
func (s *WebSocketServer) SetMetrics(m subscriberMetrics) {
	if m != nil {
		s.metrics = m
	}
}

func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request, principal domain.PrincipalID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	c := &client{
		conn:      conn,
		principal: principal,
		send:      make(chan pushMessage, 16),
	}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.metrics.SubscriberConnected()

	s.logger.Infow("player connected for revocation push", "principal_id", principal)

	conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		return nil
	})

	pingTicker := time.NewTicker(s.pingInterval)
	defer pingTicker.Stop()

	messageChan := make(chan clientMessage, 10)
	errorChan := make(chan error, 1)

	// Closed once the select loop exits, so a reader blocked on a full
	// messageChan cannot outlive the connection.
	readerDone := make(chan struct{})
	defer close(readerDone)

	go func() {
		for {
			var msg clientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				select {
				case errorChan <- err:
				case <-readerDone:
				}
				return
			}
			conn.SetReadDeadline(time.Now().Add(s.readTimeout))
			select {
			case messageChan <- msg:
			case <-readerDone:
				return
			}
		}
	}()

	for {
		select {
		case msg := <-messageChan:
			if err := s.handleMessage(c, msg); err != nil {
				s.logger.Infow("error handling watch message", "principal_id", principal, "error", err)
				s.sendError(conn, err.Error())
			}

		case push := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := conn.WriteJSON(push); err != nil {
				s.logger.Infow("error pushing notice", "principal_id", principal, "error", err)
				goto cleanup
			}

		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				goto cleanup
			}

		case err := <-errorChan:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Infow("error reading from player", "principal_id", principal, "error", err)
			}
			goto cleanup
		}
	}

cleanup:
	s.removeClient(c)
	s.metrics.SubscriberDisconnected()
	s.logger.Infow("player disconnected", "principal_id", principal)
}

func (s *WebSocketServer) handleMessage(c *client, msg clientMessage) error {
	if msg.Type == "" {
		return fmt.Errorf("message type is required")
	}

	switch msg.Type {
	case "watch":
		if msg.ResourceID == "" {
			return fmt.Errorf("resource_id is required")
		}
		s.watch(c, msg.ResourceID)
		return nil
	case "unwatch":
		if msg.ResourceID == "" {
			return fmt.Errorf("resource_id is required")
		}
		s.unwatch(c, msg.ResourceID)
		return nil
	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

func (s *WebSocketServer) watch(c *client, id domain.ResourceID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.watchers[id]
	if !ok {
		set = make(map[*client]struct{})
		s.watchers[id] = set
	}
	set[c] = struct{}{}
}

func (s *WebSocketServer) unwatch(c *client, id domain.ResourceID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.watchers[id]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(s.watchers, id)
		}
	}
}

func (s *WebSocketServer) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
	for id, set := range s.watchers {
		delete(set, c)
		if len(set) == 0 {
			delete(s.watchers, id)
		}
	}
}

// NotifyRevoked pushes a revocation notice to every watcher of the
// resource. Slow clients are skipped rather than blocking the caller;
// their next timed revalidation catches the change anyway.
func (s *WebSocketServer) NotifyRevoked(id domain.ResourceID, reason string) int {
	s.mu.RLock()
	targets := make([]*client, 0, len(s.watchers[id]))
	for c := range s.watchers[id] {
		targets = append(targets, c)
	}
	s.mu.RUnlock()

	msg := pushMessage{Type: "revoked", ResourceID: id, Reason: reason}
	delivered := 0
	for _, c := range targets {
		select {
		case c.send <- msg:
			delivered++
		default:
			s.logger.Warnw("dropping revocation push for slow client", "principal_id", c.principal, "resource_id", id)
		}
	}
	return delivered
}

// WatcherCount reports how many clients currently watch the resource.
func (s *WebSocketServer) WatcherCount(id domain.ResourceID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.watchers[id])
}

func (s *WebSocketServer) sendError(conn *websocket.Conn, message string) {
	conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	payload, _ := json.Marshal(map[string]string{"error": message})
	_ = conn.WriteMessage(websocket.TextMessage, payload)
}
