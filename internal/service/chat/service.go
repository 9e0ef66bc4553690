package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cropcareai/backend/internal/model/chat"
	"github.com/cropcareai/backend/internal/render"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyMessage    = errors.New("message is empty")
)

// Surface is a display handle attached to a session. Every transcript append
// pushes the rendered fragment and then asks the surface to scroll to the
// newest entry. Production surfaces are websocket connections; tests inject
// doubles.
type Surface interface {
	AppendFragment(msg chat.Message)
	ScrollToNewest()
}

// surfaceQueueSize bounds how far a slow surface may fall behind before
// fragments are dropped. A dropped surface can recover via the transcript
// endpoint.
const surfaceQueueSize = 64

// surfaceWorker delivers appended messages to one surface in FIFO order on a
// dedicated goroutine, so a surface that stalls mid-write never holds up the
// service lock or other surfaces.
type surfaceWorker struct {
	surface Surface
	queue   chan chat.Message
	done    chan struct{}
}

func newSurfaceWorker(surface Surface) *surfaceWorker {
	w := &surfaceWorker{
		surface: surface,
		queue:   make(chan chat.Message, surfaceQueueSize),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *surfaceWorker) run() {
	for msg := range w.queue {
		w.surface.AppendFragment(msg)
		w.surface.ScrollToNewest()
	}
	close(w.done)
}

// enqueue never blocks; callers hold the service lock.
func (w *surfaceWorker) enqueue(msg chat.Message) {
	select {
	case w.queue <- msg:
	default:
		log.Printf("[chat] surface queue full for session=%s, dropping fragment", msg.SessionID)
	}
}

// stop drains the queue and waits for the worker to exit.
func (w *surfaceWorker) stop() {
	close(w.queue)
	<-w.done
}

// Service owns the append-only transcripts. Messages are immutable once
// appended and ordered by append time.
type Service struct {
	mu       sync.Mutex
	sessions map[string]chat.Session
	messages map[string][]chat.Message
	surfaces map[string][]*surfaceWorker
}

// NewService bootstraps the in-memory transcript service.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]chat.Session),
		messages: make(map[string][]chat.Message),
		surfaces: make(map[string][]*surfaceWorker),
	}
}

// CreateSession provisions an anonymous session, optionally bound to a
// diagnosed disease for context.
func (s *Service) CreateSession(_ context.Context, disease string) (chat.Session, error) {
	session := chat.Session{
		ID:        uuid.NewString(),
		Disease:   strings.TrimSpace(disease),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.messages[session.ID] = make([]chat.Message, 0, 16)
	s.mu.Unlock()

	return session, nil
}

// AppendMessage renders content and appends one message to the session
// transcript. Empty user submissions (after trimming) are rejected with
// ErrEmptyMessage and leave the transcript untouched; empty assistant content
// is accepted and yields an empty fragment. Each attached surface receives the
// message on its own delivery queue in append order.
func (s *Service) AppendMessage(_ context.Context, sessionID string, sender chat.Sender, content string) (chat.Message, error) {
	if sender == chat.SenderUser && strings.TrimSpace(content) == "" {
		return chat.Message{}, ErrEmptyMessage
	}

	var html string
	if sender == chat.SenderBot {
		html = render.Fragment(content)
	} else {
		html = render.EscapeText(content)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return chat.Message{}, ErrSessionNotFound
	}

	msg := chat.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Sender:    sender,
		Content:   content,
		HTML:      html,
		CreatedAt: time.Now().UTC(),
	}
	s.messages[sessionID] = append(s.messages[sessionID], msg)

	// Enqueue under the lock so every surface queue sees transcript order.
	for _, worker := range s.surfaces[sessionID] {
		worker.enqueue(msg)
	}

	return msg, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// Transcript returns a copy of the stored messages for the session.
func (s *Service) Transcript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// Attach registers a display surface with a session and starts its delivery
// worker.
func (s *Service) Attach(sessionID string, surface Surface) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	s.surfaces[sessionID] = append(s.surfaces[sessionID], newSurfaceWorker(surface))
	return nil
}

// Detach removes a previously attached surface. It returns after the
// surface's queued notifications have been delivered, so the surface sees
// nothing appended afterwards.
func (s *Service) Detach(sessionID string, surface Surface) {
	s.mu.Lock()
	var detached *surfaceWorker
	attached := s.surfaces[sessionID]
	for i, worker := range attached {
		if worker.surface == surface {
			s.surfaces[sessionID] = append(attached[:i], attached[i+1:]...)
			detached = worker
			break
		}
	}
	s.mu.Unlock()

	if detached != nil {
		detached.stop()
	}
}
