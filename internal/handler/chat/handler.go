package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	analysis "github.com/cropcareai/backend/internal/analysis/disease"
	"github.com/cropcareai/backend/internal/model/catalog"
	"github.com/cropcareai/backend/internal/model/chat"
	"github.com/cropcareai/backend/internal/service/advisor"
	chatService "github.com/cropcareai/backend/internal/service/chat"
	"github.com/cropcareai/backend/pkg/utils"
)

// advisorUnavailableReply is the synthetic bot entry used when no model is
// configured and the question names no known disease.
const advisorUnavailableReply = "Sorry, I cannot respond at the moment because the " +
	"assistant is not configured. Please contact the administrator."

// advisorErrorReply is the synthetic bot entry used when a generation attempt
// fails; the session stays usable.
const advisorErrorReply = "I apologize, but I encountered an error while processing " +
	"your request. Please try again later."

// Advisor is the slice of the advisor service the chat panel needs.
type Advisor interface {
	Reply(ctx context.Context, history []chat.Message, userMessage, diseaseContext string) (string, error)
}

// Handler serves the chat panel: session creation, message exchange and
// transcript retrieval.
type Handler struct {
	chatSvc  *chatService.Service
	advisor  Advisor
	diseases catalog.Store
}

// New creates the chat handler. advisor may be nil when no model is
// configured; replies then degrade to canned treatment guidance.
func New(chatSvc *chatService.Service, adv Advisor, diseases catalog.Store) *Handler {
	return &Handler{
		chatSvc:  chatSvc,
		advisor:  adv,
		diseases: diseases,
	}
}

// RegisterRoutes mounts the chat endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Post("/chat", h.handleChat)
	r.Get("/transcript/{sessionID}", h.handleTranscript)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Disease string `json:"disease"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.Disease)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Message   string `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	ctx := r.Context()

	// The first message may arrive without a session; create one on demand.
	var session chat.Session
	var err error
	if payload.SessionID == "" {
		session, err = h.chatSvc.CreateSession(ctx, "")
	} else {
		session, err = h.chatSvc.GetSession(ctx, payload.SessionID)
	}
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	history, err := h.chatSvc.Transcript(ctx, session.ID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	if _, err := h.chatSvc.AppendMessage(ctx, session.ID, chat.SenderUser, payload.Message); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatService.ErrEmptyMessage) {
			status = http.StatusBadRequest
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	reply := ReplyFor(ctx, h.advisor, h.diseases, session, history, payload.Message)

	botMsg, err := h.chatSvc.AppendMessage(ctx, session.ID, chat.SenderBot, reply)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"response":  reply,
		"html":      botMsg.HTML,
		"sessionId": session.ID,
	})
}

// ReplyFor produces the bot answer for one user turn. Advisor failures never
// surface as transport errors: they become a synthetic transcript entry and
// the session stays interactive. The websocket transport shares this logic.
func ReplyFor(ctx context.Context, adv Advisor, diseases catalog.Store, session chat.Session, history []chat.Message, userMessage string) string {
	diseaseContext := session.Disease
	if diseaseContext == "" {
		if match, ok := analysis.Match(userMessage, diseases.List()); ok {
			diseaseContext = match.ID
		}
	}

	if adv == nil {
		if diseaseContext != "" {
			return advisor.FallbackTreatment(diseaseContext)
		}
		return advisorUnavailableReply
	}

	reply, err := adv.Reply(ctx, history, userMessage, diseaseContext)
	if err != nil {
		log.Printf("[chat] advisor reply failed for session=%s: %v", session.ID, err)
		if diseaseContext != "" {
			return advisor.FallbackTreatment(diseaseContext)
		}
		return advisorErrorReply
	}
	return reply
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	messages, err := h.chatSvc.Transcript(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, messages)
}
