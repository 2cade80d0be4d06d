package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"clone-chat/internal/domain"
	"clone-chat/internal/realtime"
	"clone-chat/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// El control de acceso real es el bearer token; el origen lo decide
	// el reverse proxy del despliegue.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler atiende el socket de suscripciones de live queries. Cada
// suscripción registra un closure de recomputación contra el hub; las
// escrituras de los stores lo invalidan y el resultado recalculado se
// empuja por esta conexión sin que el cliente vuelva a pedir nada.
type WSHandler struct {
	logger           *zap.Logger
	hub              *realtime.Hub
	conversationServ *service.ConversationService
	feedServ         *service.FeedService
	userServ         *service.UserService
}

// NewWSHandler crea una instancia con dependencias necesarias.
func NewWSHandler(
	logger *zap.Logger,
	hub *realtime.Hub,
	conversationServ *service.ConversationService,
	feedServ *service.FeedService,
	userServ *service.UserService,
) *WSHandler {
	return &WSHandler{
		logger:           logger,
		hub:              hub,
		conversationServ: conversationServ,
		feedServ:         feedServ,
		userServ:         userServ,
	}
}

type wsRequest struct {
	Action         string `json:"action"`
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id"`
	ID             string `json:"id"`
}

// Serve maneja GET /ws.
func (h *WSHandler) Serve(c *gin.Context) {
	caller, ok := GetCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := realtime.NewConn(ws)
	h.setPresence(caller, true)
	defer func() {
		h.hub.DropSink(conn)
		conn.Close()
		h.setPresence(caller, false)
	}()

	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var req wsRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			h.pushError(conn, "", "malformed request")
			continue
		}
		h.dispatch(conn, caller, req)
	}
}

func (h *WSHandler) dispatch(conn *realtime.Conn, caller domain.User, req wsRequest) {
	switch req.Action {
	case "subscribe":
		h.subscribe(conn, caller, req)
	case "unsubscribe":
		h.hub.Unsubscribe(req.ID)
	default:
		h.pushError(conn, "", "unknown action")
	}
}

func (h *WSHandler) subscribe(conn *realtime.Conn, caller domain.User, req wsRequest) {
	switch req.Query {
	case "conversations":
		topics := []string{service.TopicUser(caller.ID)}
		id := h.hub.Subscribe(conn, req.Query, topics, func(ctx context.Context) (interface{}, error) {
			return h.conversationServ.ListMine(ctx, caller)
		})
		h.pushAck(conn, id, req.Query)

	case "messages":
		conversationID := req.ConversationID
		if conversationID == "" {
			h.pushError(conn, "", "conversation_id required")
			return
		}
		// La membresía se valida en cada recomputación; acá solo se
		// rechaza temprano lo que nunca va a poder leerse.
		if _, err := h.feedServ.Compose(context.Background(), caller, conversationID); err != nil {
			h.pushError(conn, "", err.Error())
			return
		}
		topics := []string{service.TopicConversation(conversationID)}
		id := h.hub.Subscribe(conn, req.Query, topics, func(ctx context.Context) (interface{}, error) {
			return h.feedServ.Compose(ctx, caller, conversationID)
		})
		h.pushAck(conn, id, req.Query)

	default:
		h.pushError(conn, "", "unknown query")
	}
}

func (h *WSHandler) pushAck(conn *realtime.Conn, id, query string) {
	payload, err := json.Marshal(gin.H{"type": "subscribed", "id": id, "query": query})
	if err != nil {
		return
	}
	_ = conn.Push(payload)
}

func (h *WSHandler) pushError(conn *realtime.Conn, id, msg string) {
	payload, err := json.Marshal(gin.H{"type": "error", "id": id, "error": msg})
	if err != nil {
		return
	}
	_ = conn.Push(payload)
}

func (h *WSHandler) setPresence(caller domain.User, online bool) {
	if err := h.userServ.SetOnline(context.Background(), caller.TokenIdentifier, online); err != nil {
		h.logger.Warn("presence update failed", zap.Error(err), zap.String("user_id", caller.ID))
	}
}
