package api

import (
	"time"

	"github.com/google/uuid"
)

// Display dates follow the 02.01.2006 15:04 shape the web client renders.
const displayTimeLayout = "02.01.2006 15:04"

type RegisterRequest struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Role      string `json:"role" validate:"required,oneof=patient doctor"`
	Specialty string `json:"specialty" validate:"required_if=Role doctor"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token  string    `json:"token"`
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Role   string    `json:"role"`
}

type DoctorResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Specialty string    `json:"specialty"`
}

type SlotResponse struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Display   string    `json:"display"`
}

type AvailabilityResponse struct {
	AvailableSlots []SlotResponse `json:"available_slots"`
	Message        string         `json:"message,omitempty"`
}

type CreateAppointmentRequest struct {
	DoctorID            string  `json:"doctor_id" validate:"required"`
	AppointmentDateTime string  `json:"appointment_date_time" validate:"required"`
	Description         *string `json:"description,omitempty"`
}

type CreateAppointmentResponse struct {
	Success       bool      `json:"success"`
	AppointmentID uuid.UUID `json:"appointment_id"`
}

type CancelAppointmentResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

type AppointmentSummaryResponse struct {
	ID            uuid.UUID `json:"id"`
	Date          time.Time `json:"appointment_date"`
	FormattedDate string    `json:"formatted_date"`
	Status        string    `json:"status"`
	DoctorName    string    `json:"doctor_name,omitempty"`
	PatientName   string    `json:"patient_name,omitempty"`
	Specialty     string    `json:"specialty,omitempty"`
}
