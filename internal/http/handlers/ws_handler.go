package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/claimsdesk/backend/internal/apperr"
	"github.com/claimsdesk/backend/internal/auth"
	"github.com/claimsdesk/backend/internal/events"
	"github.com/claimsdesk/backend/internal/middleware"
	"github.com/claimsdesk/backend/internal/rbac"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// actorRefreshInterval bounds how long a socket keeps relationships the actor
// has since lost.
const actorRefreshInterval = time.Minute

// wsClient is one socket with the actor it was authenticated as. actor is
// replaced under WSHub.mu when relationships are reloaded.
type wsClient struct {
	conn  *websocket.Conn
	actor *rbac.Actor
	mu    sync.Mutex // serializes writes
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub relays lifecycle events to connected actors. Each event is delivered
// only to sockets whose actor may read the resource it describes.
type WSHub struct {
	jwtSecret   string
	actors      middleware.ActorLoader
	resolver    *rbac.Resolver
	subscriber  events.Subscriber
	log         *zap.Logger
	refresh     time.Duration
	mu          sync.RWMutex
	connections map[uuid.UUID][]*wsClient
}

func NewWSHub(jwtSecret string, actors middleware.ActorLoader, resolver *rbac.Resolver, subscriber events.Subscriber, log *zap.Logger) *WSHub {
	return &WSHub{
		jwtSecret:   jwtSecret,
		actors:      actors,
		resolver:    resolver,
		subscriber:  subscriber,
		log:         log,
		refresh:     actorRefreshInterval,
		connections: make(map[uuid.UUID][]*wsClient),
	}
}

func (h *WSHub) Start(ctx context.Context) error {
	for _, stream := range events.AllStreams {
		if err := h.subscriber.Subscribe(ctx, stream, h.broadcast); err != nil {
			return err
		}
	}
	go h.refreshLoop(ctx)
	return nil
}

func (h *WSHub) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(h.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.refreshActors(ctx)
		}
	}
}

// refreshActors reloads every connected actor so that scope changes reach
// open sockets. Sockets of actors that no longer exist are dropped; other load
// failures keep the previous actor until the next round.
func (h *WSHub) refreshActors(ctx context.Context) {
	h.mu.RLock()
	ids := make([]uuid.UUID, 0, len(h.connections))
	for id := range h.connections {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		actor, err := h.actors.Load(ctx, id)
		switch {
		case apperr.IsNotFound(err):
			h.log.Info("ws actor removed, closing sockets", zap.String("actor_id", id.String()))
			h.drop(id)
		case err != nil:
			h.log.Warn("ws actor refresh failed", zap.String("actor_id", id.String()), zap.Error(err))
		default:
			h.mu.Lock()
			for _, client := range h.connections[id] {
				client.actor = actor
			}
			h.mu.Unlock()
		}
	}
}

// drop unregisters and closes every socket of actor id.
func (h *WSHub) drop(id uuid.UUID) {
	h.mu.Lock()
	clients := h.connections[id]
	delete(h.connections, id)
	h.mu.Unlock()

	for _, client := range clients {
		if client.conn != nil {
			_ = client.conn.Close()
		}
	}
}

// eventResource returns the resource an event describes, or false when the
// payload lacks the ownership chain.
func eventResource(event events.Event) (rbac.ResourceType, rbac.ResourceRef, bool) {
	clientID, err := uuid.Parse(event.String("client_id"))
	if err != nil {
		return "", rbac.ResourceRef{}, false
	}

	switch event.Type {
	case events.EventPolicyStatusChanged:
		id, _ := uuid.Parse(event.String("policy_id"))
		return rbac.ResourcePolicy, rbac.ResourceRef{ID: id, ClientID: clientID}, true
	case events.EventClaimCreated, events.EventClaimStatusChanged, events.EventSLABreached:
		id, _ := uuid.Parse(event.String("claim_id"))
		affiliateID, _ := uuid.Parse(event.String("affiliate_id"))
		patientID, err := uuid.Parse(event.String("patient_id"))
		if err != nil {
			return "", rbac.ResourceRef{}, false
		}
		return rbac.ResourceClaim, rbac.ResourceRef{ID: id, ClientID: clientID, AffiliateID: affiliateID, PatientID: patientID}, true
	default:
		return "", rbac.ResourceRef{}, false
	}
}

// allowed reports whether actor may receive event.
func (h *WSHub) allowed(actor *rbac.Actor, event events.Event) bool {
	rt, ref, ok := eventResource(event)
	if !ok {
		return false
	}
	return h.resolver.CanAccess(actor, rt, ref, rbac.OpRead).Allowed
}

func (h *WSHub) broadcast(event events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.connections {
		for _, client := range clients {
			if !h.allowed(client.actor, event) {
				continue
			}
			if err := client.write(data); err != nil {
				h.log.Debug("ws write failed", zap.String("actor_id", client.actor.ID.String()), zap.Error(err))
			}
		}
	}
}

// WSUpgradeMiddleware checks for websocket upgrade
func WSUpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

func (h *WSHub) HandleWS(conn *websocket.Conn) {
	// Extract token from query
	tokenStr := conn.Query("token")
	if tokenStr == "" {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"missing token"}`))
		conn.Close()
		return
	}

	claims, err := auth.ParseJWT(h.jwtSecret, tokenStr)
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
		conn.Close()
		return
	}

	actor, err := h.actors.Load(context.Background(), claims.ActorID)
	if err != nil {
		h.log.Debug("ws actor rejected", zap.String("actor_id", claims.ActorID.String()), zap.Error(err))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unknown actor"}`))
		conn.Close()
		return
	}

	client := &wsClient{conn: conn, actor: actor}

	// Register
	h.mu.Lock()
	h.connections[actor.ID] = append(h.connections[actor.ID], client)
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		clients := h.connections[actor.ID]
		for i, c := range clients {
			if c == client {
				h.connections[actor.ID] = append(clients[:i], clients[i+1:]...)
				break
			}
		}
		if len(h.connections[actor.ID]) == 0 {
			delete(h.connections, actor.ID)
		}
		h.mu.Unlock()
		conn.Close()
	}()

	// Read loop (keep alive / pings)
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			break
		}
	}
}
