package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/halcyonhealth/halcyon-api/internal/models"
	"github.com/halcyonhealth/halcyon-api/internal/repository"
)

// ChatService manages health assistant chat sessions. Assistant replies
// are produced by the configured responder; the default echoes a
// holding message so the transcript persists even without a model
// backend.
type ChatService struct {
	repos     *repository.Repositories
	responder Responder
	logger    *slog.Logger
}

// Responder produces an assistant reply for a session transcript.
type Responder interface {
	Respond(ctx context.Context, history []*models.ChatMessage, userMessage string) (string, error)
}

// ResponderFunc adapts a function to the Responder interface.
type ResponderFunc func(ctx context.Context, history []*models.ChatMessage, userMessage string) (string, error)

func (f ResponderFunc) Respond(ctx context.Context, history []*models.ChatMessage, userMessage string) (string, error) {
	return f(ctx, history, userMessage)
}

// NewChatService creates a new chat service. A nil responder falls back
// to a static holding reply.
func NewChatService(repos *repository.Repositories, responder Responder, logger *slog.Logger) *ChatService {
	if responder == nil {
		responder = ResponderFunc(func(_ context.Context, _ []*models.ChatMessage, _ string) (string, error) {
			return "Thanks, noted. A clinician-reviewed answer is not available yet.", nil
		})
	}
	return &ChatService{
		repos:     repos,
		responder: responder,
		logger:    logger,
	}
}

// StartSession creates a new session for the user.
func (s *ChatService) StartSession(ctx context.Context, userID, title string) (*models.ChatSession, error) {
	if title == "" {
		title = "New conversation"
	}
	session := &models.ChatSession{UserID: userID, Title: title}
	if err := s.repos.Chat.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// ListSessions returns a user's sessions.
func (s *ChatService) ListSessions(ctx context.Context, userID string) ([]*models.ChatSession, error) {
	return s.repos.Chat.GetSessionsByUserID(ctx, userID)
}

// GetSession returns an owned session with its messages; nil when not
// found.
func (s *ChatService) GetSession(ctx context.Context, userID, sessionID string) (*models.ChatSession, []*models.ChatMessage, error) {
	session, err := s.repos.Chat.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil || session.UserID != userID {
		return nil, nil, nil
	}

	messages, err := s.repos.Chat.GetMessages(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return session, messages, nil
}

// DeleteSession removes an owned session and its messages.
func (s *ChatService) DeleteSession(ctx context.Context, userID, sessionID string) error {
	session, err := s.repos.Chat.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil || session.UserID != userID {
		return fmt.Errorf("session not found")
	}
	return s.repos.Chat.DeleteSession(ctx, sessionID)
}

// SendMessage appends the user's message, obtains the assistant reply
// and appends that too. Both messages are returned.
func (s *ChatService) SendMessage(ctx context.Context, userID, sessionID, content string) (*models.ChatMessage, *models.ChatMessage, error) {
	session, history, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, fmt.Errorf("session not found")
	}

	userMsg := &models.ChatMessage{SessionID: sessionID, Role: "user", Content: content}
	if err := s.repos.Chat.CreateMessage(ctx, userMsg); err != nil {
		return nil, nil, fmt.Errorf("failed to store message: %w", err)
	}

	reply, err := s.responder.Respond(ctx, history, content)
	if err != nil {
		return nil, nil, fmt.Errorf("responder failed: %w", err)
	}

	assistantMsg := &models.ChatMessage{SessionID: sessionID, Role: "assistant", Content: reply}
	if err := s.repos.Chat.CreateMessage(ctx, assistantMsg); err != nil {
		return nil, nil, fmt.Errorf("failed to store reply: %w", err)
	}

	return userMsg, assistantMsg, nil
}
