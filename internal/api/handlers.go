package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-booking/internal/clinic"
)

// ClinicService is the slice of the domain service the handlers consume.
type ClinicService interface {
	Availability(ctx context.Context, doctorID uuid.UUID, date string) ([]clinic.Slot, error)
	Book(ctx context.Context, patientID, doctorID uuid.UUID, dateTime string, description *string) (*clinic.Appointment, error)
	Cancel(ctx context.Context, actorID, appointmentID uuid.UUID) (*clinic.Appointment, error)
	ListDoctors(ctx context.Context) ([]clinic.Doctor, error)
	ListAppointments(ctx context.Context, userID uuid.UUID, role clinic.Role) ([]clinic.AppointmentSummary, error)
	Register(ctx context.Context, in clinic.RegisterInput) (*clinic.User, error)
	Login(ctx context.Context, email, password string) (*clinic.User, error)
}

var validate = validator.New()

func listDoctorsHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctors, err := svc.ListDoctors(r.Context())
		if err != nil {
			writeInternalError(w, r, err)
			return
		}

		resp := make([]DoctorResponse, 0, len(doctors))
		for _, d := range doctors {
			resp = append(resp, DoctorResponse{ID: d.UserID, Name: d.Name, Specialty: d.Specialty})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func availabilityHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor id must be a valid UUID")
			return
		}

		slots, err := svc.Availability(r.Context(), doctorID, r.URL.Query().Get("date"))
		if err != nil {
			handleAvailabilityError(w, r, err)
			return
		}

		resp := AvailabilityResponse{AvailableSlots: make([]SlotResponse, 0, len(slots))}
		for _, s := range slots {
			resp.AvailableSlots = append(resp.AvailableSlots, SlotResponse{
				StartTime: s.Start,
				EndTime:   s.End,
				Display:   s.Display,
			})
		}
		if len(resp.AvailableSlots) == 0 {
			resp.Message = "no available slots on this date"
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func createAppointmentHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "a valid bearer token is required")
			return
		}

		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		appt, err := svc.Book(r.Context(), identity.UserID, doctorID, req.AppointmentDateTime, req.Description)
		if err != nil {
			handleBookingError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, CreateAppointmentResponse{
			Success:       true,
			AppointmentID: appt.ID,
		})
	}
}

func cancelAppointmentHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "a valid bearer token is required")
			return
		}

		appointmentID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.Cancel(r.Context(), identity.UserID, appointmentID)
		if err != nil {
			handleCancelError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, CancelAppointmentResponse{
			Success: true,
			Status:  string(appt.Status),
		})
	}
}

func listAppointmentsHandler(svc ClinicService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "a valid bearer token is required")
			return
		}

		summaries, err := svc.ListAppointments(r.Context(), identity.UserID, identity.Role)
		if err != nil {
			writeInternalError(w, r, err)
			return
		}

		resp := make([]AppointmentSummaryResponse, 0, len(summaries))
		for _, s := range summaries {
			item := AppointmentSummaryResponse{
				ID:            s.ID,
				Date:          s.Date,
				FormattedDate: s.Date.Format(displayTimeLayout),
				Status:        string(s.Status),
			}
			if identity.Role == clinic.RoleDoctor {
				item.PatientName = s.CounterpartName
			} else {
				item.DoctorName = s.CounterpartName
				if s.Specialty != nil {
					item.Specialty = *s.Specialty
				}
			}
			resp = append(resp, item)
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func handleAvailabilityError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, clinic.ErrMissingDate):
		writeError(w, http.StatusBadRequest, "missing_date", "date query parameter is required")
	case errors.Is(err, clinic.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be in YYYY-MM-DD form")
	default:
		writeInternalError(w, r, err)
	}
}

func handleBookingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, clinic.ErrMissingParameter):
		writeError(w, http.StatusBadRequest, "missing_parameter", err.Error())
	case errors.Is(err, clinic.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_date", "appointment date must be a valid timestamp")
	case errors.Is(err, clinic.ErrPastDate):
		writeError(w, http.StatusBadRequest, "past_date", "cannot create appointment in the past")
	case errors.Is(err, clinic.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", "doctor not found")
	case errors.Is(err, clinic.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_conflict", "the doctor already has an appointment at that time, please pick another slot")
	default:
		writeInternalError(w, r, err)
	}
}

func handleCancelError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, clinic.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", "appointment not found or you do not have access to it")
	default:
		writeInternalError(w, r, err)
	}
}
