package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanUser(row pgx.Row) (*User, error) {
	var u User

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &u, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var description *string

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.PatientID,
		&a.Date,
		&description,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Description = description
	return &a, nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraint
}

// Interface methods

func (r *PgRepository) CreateUser(ctx context.Context, u *User, specialty *string) (*User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin registration tx: %w", err)
	}
	defer tx.Rollback(ctx)

	id := uuid.New()

	row := tx.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id, name, email, password_hash, role, created_at, updated_at
	`, id, u.Name, u.Email, u.PasswordHash, u.Role)

	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if u.Role == RoleDoctor {
		if _, err := tx.Exec(ctx, `
			INSERT INTO doctors (user_id, specialty)
			VALUES ($1, $2)
		`, created.ID, specialty); err != nil {
			return nil, fmt.Errorf("insert doctor: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit registration tx: %w", err)
	}

	return created, nil
}

func (r *PgRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email)
	return scanUser(row)
}

func (r *PgRepository) GetDoctor(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	var d Doctor

	err := r.pool.QueryRow(ctx, `
		SELECT u.id, u.name, d.specialty
		FROM users u
		JOIN doctors d ON d.user_id = u.id
		WHERE u.id = $1
	`, userID).Scan(&d.UserID, &d.Name, &d.Specialty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	return &d, nil
}

func (r *PgRepository) ListDoctors(ctx context.Context) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.name, d.specialty
		FROM users u
		JOIN doctors d ON d.user_id = u.id
		WHERE u.role = 'doctor'
		ORDER BY u.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.UserID, &d.Name, &d.Specialty); err != nil {
			return nil, err
		}
		result = append(result, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ListScheduledTimes(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT appointment_date
		FROM appointments
		WHERE doctor_id = $1
		  AND appointment_date >= $2
		  AND appointment_date < $3
		  AND status = 'scheduled'
		ORDER BY appointment_date
	`, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		result = append(result, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CreateAppointment(ctx context.Context, doctorID, patientID uuid.UUID, at time.Time, description *string) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, doctor_id, patient_id, appointment_date, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'scheduled', now(), now())
		RETURNING id, doctor_id, patient_id, appointment_date, description, status, created_at, updated_at
	`, id, doctorID, patientID, at, description)

	appt, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err, "appointments_doctor_slot_uq") {
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	return appt, nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, patient_id, appointment_date, description, status, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING id, doctor_id, patient_id, appointment_date, description, status, created_at, updated_at
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) ListAppointmentsForDoctor(ctx context.Context, doctorID uuid.UUID) ([]AppointmentSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.appointment_date, a.status, u.name
		FROM appointments a
		JOIN users u ON u.id = a.patient_id
		WHERE a.doctor_id = $1
		ORDER BY a.appointment_date DESC
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentSummary
	for rows.Next() {
		var s AppointmentSummary
		if err := rows.Scan(&s.ID, &s.Date, &s.Status, &s.CounterpartName); err != nil {
			return nil, err
		}
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) ListAppointmentsForPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.appointment_date, a.status, u.name, d.specialty
		FROM appointments a
		JOIN users u ON u.id = a.doctor_id
		JOIN doctors d ON d.user_id = u.id
		WHERE a.patient_id = $1
		ORDER BY a.appointment_date DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentSummary
	for rows.Next() {
		var s AppointmentSummary
		var specialty *string
		if err := rows.Scan(&s.ID, &s.Date, &s.Status, &s.CounterpartName, &specialty); err != nil {
			return nil, err
		}
		s.Specialty = specialty
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
