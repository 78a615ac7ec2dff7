package clinic

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrEmailTaken          = errors.New("email address already registered")
	ErrSlotTaken           = errors.New("doctor already has a scheduled appointment at that time")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	// Registration and login
	CreateUser(ctx context.Context, u *User, specialty *string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// Doctor directory
	GetDoctor(ctx context.Context, userID uuid.UUID) (*Doctor, error)
	ListDoctors(ctx context.Context) ([]Doctor, error)

	// Availability: scheduled start times for one doctor inside [from, to)
	ListScheduledTimes(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]time.Time, error)

	// Booking. CreateAppointment must be atomic: the scheduled-slot
	// uniqueness check and the insert are one statement, surfacing
	// ErrSlotTaken on collision.
	CreateAppointment(ctx context.Context, doctorID, patientID uuid.UUID, at time.Time, description *string) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)

	// Listings
	ListAppointmentsForDoctor(ctx context.Context, doctorID uuid.UUID) ([]AppointmentSummary, error)
	ListAppointmentsForPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentSummary, error)
}
