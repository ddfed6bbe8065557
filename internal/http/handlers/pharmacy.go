package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/halcyonhealth/halcyon-api/internal/models"
	"github.com/halcyonhealth/halcyon-api/internal/repository"
)

// PharmacyHandler handles pharmacy order endpoints.
type PharmacyHandler struct {
	repo repository.PharmacyRepository
}

// NewPharmacyHandler creates a new pharmacy handler.
func NewPharmacyHandler(repo repository.PharmacyRepository) *PharmacyHandler {
	return &PharmacyHandler{repo: repo}
}

// PharmacyOrderResponse represents an order in responses.
type PharmacyOrderResponse struct {
	ID         string `json:"id"`
	Medication string `json:"medication"`
	Dosage     string `json:"dosage,omitempty"`
	Quantity   int    `json:"quantity"`
	Status     string `json:"status"`
	OrderedAt  string `json:"ordered_at"`
}

func toOrderResponse(o *models.PharmacyOrder) PharmacyOrderResponse {
	return PharmacyOrderResponse{
		ID:         o.ID,
		Medication: o.Medication,
		Dosage:     o.Dosage,
		Quantity:   o.Quantity,
		Status:     o.Status,
		OrderedAt:  o.OrderedAt.Format(time.RFC3339),
	}
}

// CreateOrderInput represents an order creation request.
type CreateOrderInput struct {
	Body struct {
		Medication string `json:"medication" minLength:"1"`
		Dosage     string `json:"dosage,omitempty"`
		Quantity   int    `json:"quantity" minimum:"1"`
	}
}

// OrderOutput represents a single order response.
type OrderOutput struct {
	Body PharmacyOrderResponse
}

// CreateOrder places a medication order.
func (h *PharmacyHandler) CreateOrder(ctx context.Context, input *CreateOrderInput) (*OrderOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	order := &models.PharmacyOrder{
		UserID:     userID,
		Medication: input.Body.Medication,
		Dosage:     input.Body.Dosage,
		Quantity:   input.Body.Quantity,
	}
	if err := h.repo.Create(ctx, order); err != nil {
		return nil, huma.Error500InternalServerError("failed to create order")
	}
	return &OrderOutput{Body: toOrderResponse(order)}, nil
}

// ListOrdersOutput represents the order list response.
type ListOrdersOutput struct {
	Body struct {
		Orders []PharmacyOrderResponse `json:"orders"`
	}
}

// ListOrders lists the user's orders.
func (h *PharmacyHandler) ListOrders(ctx context.Context, input *struct{}) (*ListOrdersOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	orders, err := h.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list orders")
	}

	out := &ListOrdersOutput{}
	for _, o := range orders {
		out.Body.Orders = append(out.Body.Orders, toOrderResponse(o))
	}
	return out, nil
}

// GetOrderInput represents an order fetch request.
type GetOrderInput struct {
	ID string `path:"id"`
}

// GetOrder fetches one order.
func (h *PharmacyHandler) GetOrder(ctx context.Context, input *GetOrderInput) (*OrderOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	order, err := h.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get order")
	}
	if order == nil || order.UserID != userID {
		return nil, huma.Error404NotFound("order not found")
	}
	return &OrderOutput{Body: toOrderResponse(order)}, nil
}

// UpdateOrderStatusInput represents a status transition request.
type UpdateOrderStatusInput struct {
	ID   string `path:"id"`
	Body struct {
		Status string `json:"status" enum:"placed,filled,shipped,delivered,cancelled"`
	}
}

// UpdateOrderStatus moves an order through its lifecycle.
func (h *PharmacyHandler) UpdateOrderStatus(ctx context.Context, input *UpdateOrderStatusInput) (*OrderOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	order, err := h.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get order")
	}
	if order == nil || order.UserID != userID {
		return nil, huma.Error404NotFound("order not found")
	}

	if err := h.repo.UpdateStatus(ctx, input.ID, input.Body.Status); err != nil {
		return nil, huma.Error500InternalServerError("failed to update order")
	}
	order.Status = input.Body.Status
	return &OrderOutput{Body: toOrderResponse(order)}, nil
}
