package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/halcyonhealth/halcyon-api/internal/models"
	"github.com/halcyonhealth/halcyon-api/internal/repository"
)

// DoctorsHandler handles the provider directory endpoints.
type DoctorsHandler struct {
	repo repository.DoctorRepository
}

// NewDoctorsHandler creates a new provider directory handler.
func NewDoctorsHandler(repo repository.DoctorRepository) *DoctorsHandler {
	return &DoctorsHandler{repo: repo}
}

// DoctorResponse represents a provider in responses.
type DoctorResponse struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	Specialty string `json:"specialty,omitempty"`
	Clinic    string `json:"clinic,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

func toDoctorResponse(d *models.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:        d.ID,
		FullName:  d.FullName,
		Specialty: d.Specialty,
		Clinic:    d.Clinic,
		Email:     d.Email,
		Phone:     d.Phone,
	}
}

// ListDoctorsInput represents the provider list request.
type ListDoctorsInput struct {
	Specialty string `query:"specialty" doc:"Filter by specialty"`
}

// ListDoctorsOutput represents the provider list response.
type ListDoctorsOutput struct {
	Body struct {
		Doctors []DoctorResponse `json:"doctors"`
	}
}

// ListDoctors lists providers, optionally filtered by specialty.
func (h *DoctorsHandler) ListDoctors(ctx context.Context, input *ListDoctorsInput) (*ListDoctorsOutput, error) {
	doctors, err := h.repo.List(ctx, input.Specialty)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list doctors")
	}

	out := &ListDoctorsOutput{}
	for _, d := range doctors {
		out.Body.Doctors = append(out.Body.Doctors, toDoctorResponse(d))
	}
	return out, nil
}

// GetDoctorInput represents a provider fetch request.
type GetDoctorInput struct {
	ID string `path:"id"`
}

// GetDoctorOutput represents a single provider response.
type GetDoctorOutput struct {
	Body DoctorResponse
}

// GetDoctor fetches one provider.
func (h *DoctorsHandler) GetDoctor(ctx context.Context, input *GetDoctorInput) (*GetDoctorOutput, error) {
	doctor, err := h.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get doctor")
	}
	if doctor == nil {
		return nil, huma.Error404NotFound("doctor not found")
	}
	return &GetDoctorOutput{Body: toDoctorResponse(doctor)}, nil
}

// CreateDoctorInput represents a provider creation request.
type CreateDoctorInput struct {
	Body struct {
		FullName  string `json:"full_name" minLength:"1"`
		Specialty string `json:"specialty,omitempty"`
		Clinic    string `json:"clinic,omitempty"`
		Email     string `json:"email,omitempty"`
		Phone     string `json:"phone,omitempty"`
	}
}

// CreateDoctor adds a provider to the directory.
func (h *DoctorsHandler) CreateDoctor(ctx context.Context, input *CreateDoctorInput) (*GetDoctorOutput, error) {
	doctor := &models.Doctor{
		FullName:  input.Body.FullName,
		Specialty: input.Body.Specialty,
		Clinic:    input.Body.Clinic,
		Email:     input.Body.Email,
		Phone:     input.Body.Phone,
	}
	if err := h.repo.Create(ctx, doctor); err != nil {
		return nil, huma.Error500InternalServerError("failed to create doctor")
	}
	return &GetDoctorOutput{Body: toDoctorResponse(doctor)}, nil
}

// UpdateDoctorInput represents a provider update request.
type UpdateDoctorInput struct {
	ID   string `path:"id"`
	Body struct {
		FullName  string `json:"full_name" minLength:"1"`
		Specialty string `json:"specialty,omitempty"`
		Clinic    string `json:"clinic,omitempty"`
		Email     string `json:"email,omitempty"`
		Phone     string `json:"phone,omitempty"`
	}
}

// UpdateDoctor replaces a provider's details.
func (h *DoctorsHandler) UpdateDoctor(ctx context.Context, input *UpdateDoctorInput) (*GetDoctorOutput, error) {
	doctor, err := h.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get doctor")
	}
	if doctor == nil {
		return nil, huma.Error404NotFound("doctor not found")
	}

	doctor.FullName = input.Body.FullName
	doctor.Specialty = input.Body.Specialty
	doctor.Clinic = input.Body.Clinic
	doctor.Email = input.Body.Email
	doctor.Phone = input.Body.Phone
	if err := h.repo.Update(ctx, doctor); err != nil {
		return nil, huma.Error500InternalServerError("failed to update doctor")
	}
	return &GetDoctorOutput{Body: toDoctorResponse(doctor)}, nil
}

// DeleteDoctorInput represents a provider deletion request.
type DeleteDoctorInput struct {
	ID string `path:"id"`
}

// DeleteDoctorOutput represents a provider deletion response.
type DeleteDoctorOutput struct {
	Body struct {
		Success bool `json:"success"`
	}
}

// DeleteDoctor removes a provider from the directory.
func (h *DoctorsHandler) DeleteDoctor(ctx context.Context, input *DeleteDoctorInput) (*DeleteDoctorOutput, error) {
	if err := h.repo.Delete(ctx, input.ID); err != nil {
		return nil, huma.Error500InternalServerError("failed to delete doctor")
	}
	out := &DeleteDoctorOutput{}
	out.Body.Success = true
	return out, nil
}
