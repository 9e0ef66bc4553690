// Package live is the websocket transport of the chat transcript. Each
// connection is registered as a display surface: every transcript append is
// pushed as a rendered fragment followed by a scroll instruction, regardless
// of which transport originated the message.
package live

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chathandler "github.com/cropcareai/backend/internal/handler/chat"
	"github.com/cropcareai/backend/internal/model/catalog"
	"github.com/cropcareai/backend/internal/model/chat"
	chatService "github.com/cropcareai/backend/internal/service/chat"
	"github.com/cropcareai/backend/pkg/utils"
)

// Handler upgrades chat sessions to websocket connections.
type Handler struct {
	chatSvc  *chatService.Service
	advisor  chathandler.Advisor
	diseases catalog.Store
	upgrader websocket.Upgrader
}

// New creates the websocket handler. advisor may be nil.
func New(chatSvc *chatService.Service, adv chathandler.Advisor, diseases catalog.Store) *Handler {
	return &Handler{
		chatSvc:  chatSvc,
		advisor:  adv,
		diseases: diseases,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type textPayload struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// writeWait bounds how long a single frame write may take before the
// connection is considered stalled and the write errors out.
const writeWait = 10 * time.Second

// connSurface adapts one websocket connection to the chat Surface contract.
// Writes are serialized; gorilla connections do not allow concurrent writers.
type connSurface struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	sessionID string
}

func (s *connSurface) AppendFragment(msg chat.Message) {
	s.send(outgoingMessage{
		Type:      "fragment",
		SessionID: s.sessionID,
		Data:      msg,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *connSurface) ScrollToNewest() {
	s.send(outgoingMessage{
		Type:      "scroll",
		SessionID: s.sessionID,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *connSurface) sendError(message string) {
	s.send(outgoingMessage{
		Type:      "error",
		SessionID: s.sessionID,
		Data:      map[string]string{"error": message},
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *connSurface) send(msg outgoingMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(msg); err != nil {
		log.Printf("[ws] write failed for session=%s: %v", s.sessionID, err)
	}
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for session=%s: %v", sessionID, err)
		return
	}
	defer conn.Close()

	surface := &connSurface{conn: conn, sessionID: session.ID}
	if err := h.chatSvc.Attach(session.ID, surface); err != nil {
		surface.sendError(err.Error())
		return
	}
	defer h.chatSvc.Detach(session.ID, surface)

	log.Printf("[ws] session=%s connected", session.ID)

	for {
		var in inboundMessage
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] session=%s read error: %v", session.ID, err)
			}
			return
		}

		switch in.Type {
		case "message":
			var payload textPayload
			if err := json.Unmarshal(in.Data, &payload); err != nil {
				surface.sendError("invalid message payload")
				continue
			}
			h.handleUserMessage(r, session, payload.Text, surface)
		default:
			surface.sendError("unsupported message type: " + in.Type)
		}
	}
}

// handleUserMessage runs one chat turn. The surface pushes the resulting
// fragments; nothing is written directly here except validation errors.
func (h *Handler) handleUserMessage(r *http.Request, session chat.Session, text string, surface *connSurface) {
	ctx := r.Context()

	history, err := h.chatSvc.Transcript(ctx, session.ID)
	if err != nil {
		surface.sendError(err.Error())
		return
	}

	if _, err := h.chatSvc.AppendMessage(ctx, session.ID, chat.SenderUser, text); err != nil {
		surface.sendError(err.Error())
		return
	}

	reply := chathandler.ReplyFor(ctx, h.advisor, h.diseases, session, history, text)
	if _, err := h.chatSvc.AppendMessage(ctx, session.ID, chat.SenderBot, reply); err != nil {
		surface.sendError(err.Error())
	}
}
