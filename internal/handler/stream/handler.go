package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/cloudwego/eino/schema"

	analysis "github.com/cropcareai/backend/internal/analysis/disease"
	"github.com/cropcareai/backend/internal/model/catalog"
	"github.com/cropcareai/backend/internal/model/chat"
	advisorService "github.com/cropcareai/backend/internal/service/advisor"
	chatService "github.com/cropcareai/backend/internal/service/chat"
	"github.com/cropcareai/backend/pkg/utils"
)

// Advisor is the slice of the advisor service the SSE transport needs.
type Advisor interface {
	StreamingEnabled() bool
	Reply(ctx context.Context, history []chat.Message, userMessage, diseaseContext string) (string, error)
	StreamReply(ctx context.Context, history []chat.Message, userMessage, diseaseContext string) (*schema.StreamReader[*schema.Message], error)
}

// Handler streams advisor replies over Server-Sent Events.
type Handler struct {
	advisor  Advisor
	chatSvc  *chatService.Service
	diseases catalog.Store
}

// New creates the stream handler.
func New(advisor Advisor, chatSvc *chatService.Service, diseases catalog.Store) *Handler {
	return &Handler{
		advisor:  advisor,
		chatSvc:  chatSvc,
		diseases: diseases,
	}
}

// StreamResponse is one SSE frame.
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	HTML      string `json:"html,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest answers one chat turn over SSE: the user message is
// appended to the transcript, advisor output is forwarded chunk by chunk, and
// the final rendered fragment closes the stream.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	session, err := h.chatSvc.GetSession(ctx, sessionID)
	if err != nil {
		h.sendSSEError(w, flusher, fmt.Sprintf("failed to resolve session: %v", err))
		return err
	}

	history, err := h.chatSvc.Transcript(ctx, session.ID)
	if err != nil {
		h.sendSSEError(w, flusher, fmt.Sprintf("failed to load transcript: %v", err))
		return err
	}

	if _, err := h.chatSvc.AppendMessage(ctx, session.ID, chat.SenderUser, userMessage); err != nil {
		h.sendSSEError(w, flusher, err.Error())
		return err
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: session.ID,
	})

	diseaseContext := session.Disease
	if diseaseContext == "" {
		if match, ok := analysis.Match(userMessage, h.diseases.List()); ok {
			diseaseContext = match.ID
		}
	}

	reply, err := h.dispatchReply(ctx, w, flusher, session.ID, history, userMessage, diseaseContext)
	if err != nil {
		log.Printf("[stream] advisor failed for session=%s: %v", session.ID, err)
		reply = advisorService.FallbackTreatment(diseaseContext)
		if diseaseContext == "" {
			reply = "I apologize, but I encountered an error while processing your request. Please try again later."
		}
	}

	botMsg, err := h.chatSvc.AppendMessage(ctx, session.ID, chat.SenderBot, reply)
	if err != nil {
		h.sendSSEError(w, flusher, err.Error())
		return err
	}

	// The rendered fragment is what the transcript surface actually displays.
	h.sendSSE(w, flusher, StreamResponse{
		Event:     "fragment",
		SessionID: session.ID,
		Content:   botMsg.Content,
		HTML:      botMsg.HTML,
	})

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: session.ID,
		Finished:  true,
	})

	log.Printf("[stream] completed response for session=%s", session.ID)
	return nil
}

// dispatchReply runs the advisor, streaming deltas when enabled.
func (h *Handler) dispatchReply(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID string, history []chat.Message, userMessage, diseaseContext string) (string, error) {
	if !h.advisor.StreamingEnabled() {
		return h.advisor.Reply(ctx, history, userMessage, diseaseContext)
	}

	stream, err := h.advisor.StreamReply(ctx, history, userMessage, diseaseContext)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			h.sendSSE(w, flusher, StreamResponse{
				Event:     "delta",
				SessionID: sessionID,
				Content:   chunk.Content,
			})
		}
	}

	response, err := schema.ConcatMessages(chunks)
	if err != nil {
		return "", err
	}
	return response.Content, nil
}

func (h *Handler) sendSSE(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEChunk(w, flusher, response)
}

func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, errorMsg string) {
	h.sendSSE(w, flusher, StreamResponse{
		Event: "error",
		Error: errorMsg,
	})
}
