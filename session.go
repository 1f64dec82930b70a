package imagechat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry in a session's log. Append-only.
type Message struct {
	Role      Role             `json:"role"`
	Content   string           `json:"content"`
	Images    []GeneratedImage `json:"images,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Session is one persisted multi-turn conversation thread.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	defaultSessionTitle = "New conversation"

	// maxTitleLength is the truncation point for titles derived from the
	// first user message.
	maxTitleLength = 30
)

// SessionStore keeps sessions most-recent-first and writes the full list
// through to durable storage after every mutation. Mutation frequency is
// bounded by user actions, so write-through needs no batching.
type SessionStore struct {
	storage  Storage
	logger   *slog.Logger
	sessions []*Session
	activeID string

	mu sync.Mutex
}

// NewSessionStore loads the persisted session list, or starts with one fresh
// session if nothing is stored yet. The most recent session becomes active.
func NewSessionStore(ctx context.Context, storage Storage, logger *slog.Logger) (*SessionStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SessionStore{storage: storage, logger: logger}

	if err := s.load(ctx); err != nil {
		return nil, err
	}
	if len(s.sessions) == 0 {
		if _, err := s.Create(ctx); err != nil {
			return nil, err
		}
	} else {
		s.activeID = s.sessions[0].ID
	}
	return s, nil
}

// Create starts a new session, prepends it to the list and makes it active.
func (s *SessionStore) Create(ctx context.Context) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	session := &Session{
		ID:        uuid.NewString(),
		Title:     defaultSessionTitle,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions = append([]*Session{session}, s.sessions...)
	s.activeID = session.ID

	if err := s.persist(ctx); err != nil {
		return Session{}, err
	}
	s.logger.Debug("created session", "session_id", session.ID)
	return *session, nil
}

// List returns all sessions, most-recent-first. Sessions are copied so the
// caller cannot mutate the store's log out of band.
func (s *SessionStore) List() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, copySession(session))
	}
	return out
}

// Load makes the session with the given id active and returns it. Switching
// the active session never touches any other session.
func (s *SessionStore) Load(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.find(id)
	if session == nil {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.activeID = id
	return copySession(session), nil
}

// ActiveID returns the id of the currently active session.
func (s *SessionStore) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Active returns a copy of the currently active session.
func (s *SessionStore) Active() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.find(s.activeID)
	if session == nil {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, s.activeID)
	}
	return copySession(session), nil
}

// Append adds a message to the target session's log, derives the title from
// the first user message if the title is still the default, bumps UpdatedAt
// and persists.
func (s *SessionStore) Append(ctx context.Context, sessionID string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.find(sessionID)
	if session == nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	session.Messages = append(session.Messages, msg)
	session.UpdatedAt = msg.Timestamp

	if session.Title == defaultSessionTitle && msg.Role == RoleUser {
		session.Title = deriveTitle(msg.Content)
	}

	return s.persist(ctx)
}

// ClearAll discards every session and immediately creates a fresh one, so the
// store never holds zero sessions.
func (s *SessionStore) ClearAll(ctx context.Context) (Session, error) {
	s.mu.Lock()
	s.sessions = nil
	s.activeID = ""
	s.mu.Unlock()

	s.logger.Info("cleared all sessions")
	return s.Create(ctx)
}

func (s *SessionStore) find(id string) *Session {
	for _, session := range s.sessions {
		if session.ID == id {
			return session
		}
	}
	return nil
}

// persist serializes the full session list under the fixed storage key.
// Callers hold s.mu.
func (s *SessionStore) persist(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}
	data, err := json.Marshal(s.sessions)
	if err != nil {
		return fmt.Errorf("encoding sessions: %w", err)
	}
	if err := s.storage.Set(ctx, sessionsStorageKey, string(data)); err != nil {
		return fmt.Errorf("persisting sessions: %w", err)
	}
	return nil
}

func (s *SessionStore) load(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}
	data, ok, err := s.storage.Get(ctx, sessionsStorageKey)
	if err != nil {
		return fmt.Errorf("loading sessions: %w", err)
	}
	if !ok || data == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), &s.sessions); err != nil {
		return fmt.Errorf("decoding sessions: %w", err)
	}
	return nil
}

// deriveTitle truncates the first user message to maxTitleLength runes,
// appending an ellipsis marker when it was longer.
func deriveTitle(content string) string {
	if content == "" {
		return defaultSessionTitle
	}
	runes := []rune(content)
	if len(runes) <= maxTitleLength {
		return content
	}
	return string(runes[:maxTitleLength]) + "..."
}

func copySession(s *Session) Session {
	out := *s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	return out
}
