package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/halcyonhealth/halcyon-api/internal/models"
	"github.com/halcyonhealth/halcyon-api/internal/service"
)

// RemindersHandler handles reminder endpoints.
type RemindersHandler struct {
	svc *service.ReminderService
}

// NewRemindersHandler creates a new reminders handler.
func NewRemindersHandler(svc *service.ReminderService) *RemindersHandler {
	return &RemindersHandler{svc: svc}
}

// ReminderResponse represents a reminder in responses.
type ReminderResponse struct {
	ID           string `json:"id"`
	Kind         string `json:"kind" enum:"medication,appointment,measurement"`
	Title        string `json:"title"`
	Notes        string `json:"notes,omitempty"`
	Schedule     string `json:"schedule,omitempty"`
	NextDueAt    string `json:"next_due_at,omitempty"`
	SnoozedUntil string `json:"snoozed_until,omitempty"`
	IsActive     bool   `json:"is_active"`
}

func toReminderResponse(r *models.Reminder) ReminderResponse {
	return ReminderResponse{
		ID:           r.ID,
		Kind:         string(r.Kind),
		Title:        r.Title,
		Notes:        r.Notes,
		Schedule:     r.Schedule,
		NextDueAt:    formatTime(r.NextDueAt),
		SnoozedUntil: formatTime(r.SnoozedUntil),
		IsActive:     r.IsActive,
	}
}

// ListRemindersOutput represents the reminder list response.
type ListRemindersOutput struct {
	Body struct {
		Reminders []ReminderResponse `json:"reminders"`
	}
}

// ListReminders lists the user's reminders.
func (h *RemindersHandler) ListReminders(ctx context.Context, input *struct{}) (*ListRemindersOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	reminders, err := h.svc.List(ctx, userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list reminders")
	}

	out := &ListRemindersOutput{}
	for _, r := range reminders {
		out.Body.Reminders = append(out.Body.Reminders, toReminderResponse(r))
	}
	return out, nil
}

// DueReminders lists reminders that are currently due, honoring snoozes.
func (h *RemindersHandler) DueReminders(ctx context.Context, input *struct{}) (*ListRemindersOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	reminders, err := h.svc.Due(ctx, userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list due reminders")
	}

	out := &ListRemindersOutput{}
	for _, r := range reminders {
		out.Body.Reminders = append(out.Body.Reminders, toReminderResponse(r))
	}
	return out, nil
}

// GetReminderInput represents a reminder fetch request.
type GetReminderInput struct {
	ID string `path:"id"`
}

// GetReminderOutput represents a single reminder response.
type GetReminderOutput struct {
	Body ReminderResponse
}

// GetReminder fetches one reminder.
func (h *RemindersHandler) GetReminder(ctx context.Context, input *GetReminderInput) (*GetReminderOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	reminder, err := h.svc.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get reminder")
	}
	if reminder == nil {
		return nil, huma.Error404NotFound("reminder not found")
	}
	return &GetReminderOutput{Body: toReminderResponse(reminder)}, nil
}

// CreateReminderInput represents a reminder creation request.
type CreateReminderInput struct {
	Body struct {
		Kind      string `json:"kind" enum:"medication,appointment,measurement"`
		Title     string `json:"title" minLength:"1"`
		Notes     string `json:"notes,omitempty"`
		Schedule  string `json:"schedule,omitempty" doc:"Human-readable cadence, e.g. daily 08:00"`
		NextDueAt string `json:"next_due_at,omitempty" doc:"RFC3339 time of the next occurrence"`
	}
}

// CreateReminder creates a reminder.
func (h *RemindersHandler) CreateReminder(ctx context.Context, input *CreateReminderInput) (*GetReminderOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	nextDueAt, err := parseTime(input.Body.NextDueAt)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid next_due_at format")
	}

	reminder := &models.Reminder{
		UserID:    userID,
		Kind:      models.ReminderKind(input.Body.Kind),
		Title:     input.Body.Title,
		Notes:     input.Body.Notes,
		Schedule:  input.Body.Schedule,
		NextDueAt: nextDueAt,
		IsActive:  true,
	}
	if err := h.svc.Create(ctx, reminder); err != nil {
		return nil, huma.Error400BadRequest("failed to create reminder")
	}
	return &GetReminderOutput{Body: toReminderResponse(reminder)}, nil
}

// UpdateReminderInput represents a reminder update request.
type UpdateReminderInput struct {
	ID   string `path:"id"`
	Body struct {
		Kind      string `json:"kind" enum:"medication,appointment,measurement"`
		Title     string `json:"title" minLength:"1"`
		Notes     string `json:"notes,omitempty"`
		Schedule  string `json:"schedule,omitempty"`
		NextDueAt string `json:"next_due_at,omitempty"`
		IsActive  bool   `json:"is_active"`
	}
}

// UpdateReminder replaces a reminder's details.
func (h *RemindersHandler) UpdateReminder(ctx context.Context, input *UpdateReminderInput) (*GetReminderOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	nextDueAt, err := parseTime(input.Body.NextDueAt)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid next_due_at format")
	}

	reminder := &models.Reminder{
		ID:        input.ID,
		UserID:    userID,
		Kind:      models.ReminderKind(input.Body.Kind),
		Title:     input.Body.Title,
		Notes:     input.Body.Notes,
		Schedule:  input.Body.Schedule,
		NextDueAt: nextDueAt,
		IsActive:  input.Body.IsActive,
	}
	if err := h.svc.Update(ctx, userID, reminder); err != nil {
		return nil, huma.Error404NotFound("reminder not found")
	}
	return &GetReminderOutput{Body: toReminderResponse(reminder)}, nil
}

// SnoozeReminderInput represents a snooze request. An empty until
// clears the snooze.
type SnoozeReminderInput struct {
	ID   string `path:"id"`
	Body struct {
		Until string `json:"until,omitempty" doc:"RFC3339 time to snooze until; omit to clear"`
	}
}

// SnoozeReminderOutput represents a snooze response.
type SnoozeReminderOutput struct {
	Body struct {
		Success bool `json:"success"`
	}
}

// SnoozeReminder snoozes or unsnoozes a reminder.
func (h *RemindersHandler) SnoozeReminder(ctx context.Context, input *SnoozeReminderInput) (*SnoozeReminderOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	until, err := parseTime(input.Body.Until)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid until format")
	}

	if err := h.svc.Snooze(ctx, userID, input.ID, until); err != nil {
		return nil, huma.Error404NotFound("reminder not found")
	}

	out := &SnoozeReminderOutput{}
	out.Body.Success = true
	return out, nil
}

// DeleteReminderInput represents a reminder deletion request.
type DeleteReminderInput struct {
	ID string `path:"id"`
}

// DeleteReminderOutput represents a reminder deletion response.
type DeleteReminderOutput struct {
	Body struct {
		Success bool `json:"success"`
	}
}

// DeleteReminder deletes a reminder.
func (h *RemindersHandler) DeleteReminder(ctx context.Context, input *DeleteReminderInput) (*DeleteReminderOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	if err := h.svc.Delete(ctx, userID, input.ID); err != nil {
		return nil, huma.Error404NotFound("reminder not found")
	}

	out := &DeleteReminderOutput{}
	out.Body.Success = true
	return out, nil
}
