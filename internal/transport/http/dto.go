package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicstack/clinicstack/internal/appointment"
	"github.com/clinicstack/clinicstack/internal/branch"
	"github.com/clinicstack/clinicstack/internal/identity"
	"github.com/clinicstack/clinicstack/internal/patient"
)

// Requests. A tenant_id in an inbound payload is accepted syntactically and
// ignored: stamping always comes from the resolved scope.

type createPatientRequest struct {
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number"`
	BranchID    uuid.UUID `json:"branch_id"`
	TenantID    string    `json:"tenant_id,omitempty"`
}

type bookAppointmentRequest struct {
	BranchID  uuid.UUID `json:"branch_id"`
	PatientID uuid.UUID `json:"patient_id"`
	StartAt   time.Time `json:"start_at"`
	TenantID  string    `json:"tenant_id,omitempty"`
}

type createBranchRequest struct {
	Name string `json:"name"`
}

type createUserRequest struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Responses never expose the tenant column.

type patientResponse struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number"`
	BranchID    uuid.UUID `json:"branch_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func toPatientResponse(p *patient.Patient) patientResponse {
	return patientResponse{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		PhoneNumber: p.PhoneNumber,
		BranchID:    p.BranchID,
		CreatedAt:   p.CreatedAt,
	}
}

func toPatientResponses(patients []patient.Patient) []patientResponse {
	out := make([]patientResponse, 0, len(patients))
	for i := range patients {
		out = append(out, toPatientResponse(&patients[i]))
	}
	return out
}

type appointmentResponse struct {
	ID        uuid.UUID `json:"id"`
	BranchID  uuid.UUID `json:"branch_id"`
	PatientID uuid.UUID `json:"patient_id"`
	StartAt   time.Time `json:"start_at"`
	CreatedAt time.Time `json:"created_at"`
}

func toAppointmentResponse(a *appointment.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:        a.ID,
		BranchID:  a.BranchID,
		PatientID: a.PatientID,
		StartAt:   a.StartAt,
		CreatedAt: a.CreatedAt,
	}
}

func toAppointmentResponses(appointments []appointment.Appointment) []appointmentResponse {
	out := make([]appointmentResponse, 0, len(appointments))
	for i := range appointments {
		out = append(out, toAppointmentResponse(&appointments[i]))
	}
	return out
}

type branchResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func toBranchResponse(b *branch.Branch) branchResponse {
	return branchResponse{
		ID:        b.ID,
		Name:      b.Name,
		CreatedAt: b.CreatedAt,
	}
}

func toBranchResponses(branches []branch.Branch) []branchResponse {
	out := make([]branchResponse, 0, len(branches))
	for i := range branches {
		out = append(out, toBranchResponse(&branches[i]))
	}
	return out
}

type userResponse struct {
	ID        uuid.UUID     `json:"id"`
	Username  string        `json:"username"`
	Role      identity.Role `json:"role"`
	CreatedAt time.Time     `json:"created_at"`
}

func toUserResponse(u *identity.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
