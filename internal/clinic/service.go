package clinic

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-booking/internal/auth"
)

var (
	ErrMissingParameter   = errors.New("required parameter missing")
	ErrMissingDate        = errors.New("date parameter is required")
	ErrInvalidDate        = errors.New("invalid date format")
	ErrPastDate           = errors.New("cannot create appointment in the past")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRole        = errors.New("role must be patient or doctor")
)

type Service struct {
	repo         Repository
	queryTimeout time.Duration
	now          func() time.Time
}

func NewService(repo Repository, queryTimeout time.Duration) *Service {
	return &Service{
		repo:         repo,
		queryTimeout: queryTimeout,
		now:          time.Now,
	}
}

// withTimeout bounds a single repository call. Expiry surfaces to handlers as
// a generic downstream failure.
func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

// Availability returns the open slots for a doctor on one calendar day:
// the fixed grid minus every slot whose start coincides, to the minute, with
// an existing scheduled appointment. An unknown doctor simply has all slots
// free. An empty result is not an error.
func (s *Service) Availability(ctx context.Context, doctorID uuid.UUID, date string) ([]Slot, error) {
	if date == "" {
		return nil, ErrMissingDate
	}
	day, err := ParseDay(date)
	if err != nil {
		return nil, err
	}

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	booked, err := s.repo.ListScheduledTimes(qctx, doctorID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("list scheduled appointments: %w", err)
	}

	taken := make(map[string]struct{}, len(booked))
	for _, t := range booked {
		taken[t.In(day.Location()).Format("15:04")] = struct{}{}
	}

	open := make([]Slot, 0, 16)
	for _, slot := range DaySlots(day) {
		if _, ok := taken[slot.Start.Format("15:04")]; ok {
			continue
		}
		open = append(open, slot)
	}

	return open, nil
}

// Book creates a scheduled appointment after the precondition chain passes.
// Timestamps are not quantized to the slot grid; the doctor's calendar is
// guarded per exact timestamp, with the conflict check and the insert as one
// atomic statement so concurrent requests cannot both win.
func (s *Service) Book(ctx context.Context, patientID, doctorID uuid.UUID, dateTime string, description *string) (*Appointment, error) {
	if doctorID == uuid.Nil || dateTime == "" {
		return nil, fmt.Errorf("%w: doctor id and appointment date are required", ErrMissingParameter)
	}

	at, err := parseAppointmentTime(dateTime)
	if err != nil {
		return nil, err
	}

	if !at.After(s.now()) {
		return nil, ErrPastDate
	}

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.repo.GetDoctor(qctx, doctorID); err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	appt, err := s.repo.CreateAppointment(qctx, doctorID, patientID, at, description)
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	return appt, nil
}

// Cancel moves an appointment to cancelled on behalf of its doctor or
// patient. Anyone else gets the same not-found answer as a missing id, so
// existence is never leaked. Cancelling twice is an idempotent no-op.
func (s *Service) Cancel(ctx context.Context, actorID, appointmentID uuid.UUID) (*Appointment, error) {
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	appt, err := s.repo.GetAppointmentByID(qctx, appointmentID)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if actorID != appt.DoctorID && actorID != appt.PatientID {
		return nil, ErrAppointmentNotFound
	}

	if appt.Status == StatusCancelled {
		return appt, nil
	}

	updated, err := s.repo.UpdateAppointmentStatus(qctx, appt.ID, StatusScheduled, StatusCancelled)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Lost a race with another cancel; same outcome.
			appt.Status = StatusCancelled
			return appt, nil
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	return updated, nil
}

// ListDoctors returns the doctor directory ordered by name.
func (s *Service) ListDoctors(ctx context.Context) ([]Doctor, error) {
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	doctors, err := s.repo.ListDoctors(qctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

// ListAppointments returns the calling user's appointments, newest first:
// a doctor sees their schedule, a patient their bookings.
func (s *Service) ListAppointments(ctx context.Context, userID uuid.UUID, role Role) ([]AppointmentSummary, error) {
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		result []AppointmentSummary
		err    error
	)
	if role == RoleDoctor {
		result, err = s.repo.ListAppointmentsForDoctor(qctx, userID)
	} else {
		result, err = s.repo.ListAppointmentsForPatient(qctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return result, nil
}

type RegisterInput struct {
	Name      string
	Email     string
	Password  string
	Role      Role
	Specialty *string
}

// Register creates a user, plus its doctor row in the same transaction when
// the role is doctor.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrMissingParameter)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrMissingParameter)
	}
	if in.Role != RolePatient && in.Role != RoleDoctor {
		return nil, ErrInvalidRole
	}
	if in.Role == RoleDoctor && (in.Specialty == nil || *in.Specialty == "") {
		return nil, fmt.Errorf("%w: specialty is required for doctors", ErrMissingParameter)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.repo.CreateUser(qctx, &User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
	}, in.Specialty)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// Login verifies credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.repo.GetUserByEmail(qctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
