package clinic

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCancelled AppointmentStatus = "cancelled"
)

type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Doctor is the directory view of a doctor user joined with its specialty row.
type Doctor struct {
	UserID    uuid.UUID
	Name      string
	Specialty string
}

type Appointment struct {
	ID          uuid.UUID
	DoctorID    uuid.UUID
	PatientID   uuid.UUID
	Date        time.Time
	Description *string
	Status      AppointmentStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AppointmentSummary is a listing row. CounterpartName is the patient's name
// when a doctor lists their schedule and the doctor's name when a patient
// lists their bookings; Specialty is only set in the latter case.
type AppointmentSummary struct {
	ID              uuid.UUID
	Date            time.Time
	Status          AppointmentStatus
	CounterpartName string
	Specialty       *string
}
