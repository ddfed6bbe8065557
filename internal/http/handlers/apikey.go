package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/halcyonhealth/halcyon-api/internal/service"
)

// APIKeyHandler handles API key endpoints.
type APIKeyHandler struct {
	apiKeySvc *service.APIKeyService
}

// NewAPIKeyHandler creates a new API key handler.
func NewAPIKeyHandler(apiKeySvc *service.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{apiKeySvc: apiKeySvc}
}

// APIKeyResponse represents an API key in responses.
type APIKeyResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	KeyPrefix  string `json:"key_prefix"`
	LastUsedAt string `json:"last_used_at,omitempty"`
	CreatedAt  string `json:"created_at"`
	Revoked    bool   `json:"revoked"`
}

// ListKeysOutput represents API key list response.
type ListKeysOutput struct {
	Body struct {
		Keys []APIKeyResponse `json:"keys"`
	}
}

// ListKeys handles listing API keys.
func (h *APIKeyHandler) ListKeys(ctx context.Context, input *struct{}) (*ListKeysOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	keys, err := h.apiKeySvc.ListKeys(ctx, userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list API keys")
	}

	out := &ListKeysOutput{}
	for _, key := range keys {
		resp := APIKeyResponse{
			ID:        key.ID,
			Name:      key.Name,
			KeyPrefix: key.KeyPrefix,
			CreatedAt: key.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			Revoked:   key.IsRevoked(),
		}
		if key.LastUsedAt != nil {
			resp.LastUsedAt = key.LastUsedAt.Format("2006-01-02T15:04:05Z07:00")
		}
		out.Body.Keys = append(out.Body.Keys, resp)
	}
	return out, nil
}

// CreateKeyInput represents API key creation request.
type CreateKeyInput struct {
	Body struct {
		Name string `json:"name" minLength:"1" doc:"Descriptive name for the key"`
	}
}

// CreateKeyOutput represents API key creation response.
type CreateKeyOutput struct {
	Body struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Key       string `json:"key" doc:"Full API key - only shown once!"`
		KeyPrefix string `json:"key_prefix"`
	}
}

// CreateKey handles API key creation.
func (h *APIKeyHandler) CreateKey(ctx context.Context, input *CreateKeyInput) (*CreateKeyOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	result, err := h.apiKeySvc.CreateKey(ctx, userID, input.Body.Name)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to create API key")
	}

	out := &CreateKeyOutput{}
	out.Body.ID = result.ID
	out.Body.Name = result.Name
	out.Body.Key = result.Key
	out.Body.KeyPrefix = result.KeyPrefix
	return out, nil
}

// RevokeKeyInput represents API key revocation request.
type RevokeKeyInput struct {
	ID string `path:"id" doc:"API key ID to revoke"`
}

// RevokeKeyOutput represents API key revocation response.
type RevokeKeyOutput struct {
	Body struct {
		Success bool `json:"success"`
	}
}

// RevokeKey handles API key revocation.
func (h *APIKeyHandler) RevokeKey(ctx context.Context, input *RevokeKeyInput) (*RevokeKeyOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	if err := h.apiKeySvc.RevokeKey(ctx, userID, input.ID); err != nil {
		return nil, huma.Error404NotFound("API key not found")
	}

	out := &RevokeKeyOutput{}
	out.Body.Success = true
	return out, nil
}
