package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/halcyonhealth/halcyon-api/internal/models"
	"github.com/halcyonhealth/halcyon-api/internal/service"
)

// ChatHandler handles chat session and message endpoints.
type ChatHandler struct {
	svc *service.ChatService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc *service.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// ChatSessionResponse represents a chat session in responses.
type ChatSessionResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ChatMessageResponse represents one message in responses.
type ChatMessageResponse struct {
	ID        string `json:"id"`
	Role      string `json:"role" enum:"user,assistant"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func toSessionResponse(s *models.ChatSession) ChatSessionResponse {
	return ChatSessionResponse{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: s.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toMessageResponse(m *models.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// StartSessionInput represents a session creation request.
type StartSessionInput struct {
	Body struct {
		Title string `json:"title,omitempty" doc:"Optional session title"`
	}
}

// SessionOutput represents a single session response.
type SessionOutput struct {
	Body ChatSessionResponse
}

// StartSession opens a new chat session.
func (h *ChatHandler) StartSession(ctx context.Context, input *StartSessionInput) (*SessionOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	session, err := h.svc.StartSession(ctx, userID, input.Body.Title)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to start session")
	}
	return &SessionOutput{Body: toSessionResponse(session)}, nil
}

// ListSessionsOutput represents the session list response.
type ListSessionsOutput struct {
	Body struct {
		Sessions []ChatSessionResponse `json:"sessions"`
	}
}

// ListSessions lists the user's chat sessions.
func (h *ChatHandler) ListSessions(ctx context.Context, input *struct{}) (*ListSessionsOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	sessions, err := h.svc.ListSessions(ctx, userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list sessions")
	}

	out := &ListSessionsOutput{}
	for _, s := range sessions {
		out.Body.Sessions = append(out.Body.Sessions, toSessionResponse(s))
	}
	return out, nil
}

// GetSessionInput represents a session fetch request.
type GetSessionInput struct {
	ID string `path:"id"`
}

// GetSessionOutput represents a session plus its messages.
type GetSessionOutput struct {
	Body struct {
		Session  ChatSessionResponse   `json:"session"`
		Messages []ChatMessageResponse `json:"messages"`
	}
}

// GetSession fetches a session with its full message history.
func (h *ChatHandler) GetSession(ctx context.Context, input *GetSessionInput) (*GetSessionOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	session, messages, err := h.svc.GetSession(ctx, userID, input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get session")
	}
	if session == nil {
		return nil, huma.Error404NotFound("session not found")
	}

	out := &GetSessionOutput{}
	out.Body.Session = toSessionResponse(session)
	for _, m := range messages {
		out.Body.Messages = append(out.Body.Messages, toMessageResponse(m))
	}
	return out, nil
}

// DeleteSessionInput represents a session deletion request.
type DeleteSessionInput struct {
	ID string `path:"id"`
}

// DeleteSessionOutput represents a session deletion response.
type DeleteSessionOutput struct {
	Body struct {
		Success bool `json:"success"`
	}
}

// DeleteSession deletes a session and its messages.
func (h *ChatHandler) DeleteSession(ctx context.Context, input *DeleteSessionInput) (*DeleteSessionOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	if err := h.svc.DeleteSession(ctx, userID, input.ID); err != nil {
		return nil, huma.Error404NotFound("session not found")
	}

	out := &DeleteSessionOutput{}
	out.Body.Success = true
	return out, nil
}

// SendMessageInput represents a message send request.
type SendMessageInput struct {
	ID   string `path:"id" doc:"Session ID"`
	Body struct {
		Content string `json:"content" minLength:"1"`
	}
}

// SendMessageOutput returns the stored user message and the assistant
// reply.
type SendMessageOutput struct {
	Body struct {
		Message ChatMessageResponse `json:"message"`
		Reply   ChatMessageResponse `json:"reply"`
	}
}

// SendMessage appends a user message and returns the assistant reply.
func (h *ChatHandler) SendMessage(ctx context.Context, input *SendMessageInput) (*SendMessageOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	userMsg, reply, err := h.svc.SendMessage(ctx, userID, input.ID, input.Body.Content)
	if err != nil {
		return nil, huma.Error404NotFound("session not found")
	}

	out := &SendMessageOutput{}
	out.Body.Message = toMessageResponse(userMsg)
	out.Body.Reply = toMessageResponse(reply)
	return out, nil
}
