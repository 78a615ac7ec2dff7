package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-booking/internal/clinic"
)

// fakeService mirrors the FakeDB style: function fields per method.
type fakeService struct {
	AvailabilityFn     func(ctx context.Context, doctorID uuid.UUID, date string) ([]clinic.Slot, error)
	BookFn             func(ctx context.Context, patientID, doctorID uuid.UUID, dateTime string, description *string) (*clinic.Appointment, error)
	CancelFn           func(ctx context.Context, actorID, appointmentID uuid.UUID) (*clinic.Appointment, error)
	ListDoctorsFn      func(ctx context.Context) ([]clinic.Doctor, error)
	ListAppointmentsFn func(ctx context.Context, userID uuid.UUID, role clinic.Role) ([]clinic.AppointmentSummary, error)
	RegisterFn         func(ctx context.Context, in clinic.RegisterInput) (*clinic.User, error)
	LoginFn            func(ctx context.Context, email, password string) (*clinic.User, error)
}

func (f *fakeService) Availability(ctx context.Context, doctorID uuid.UUID, date string) ([]clinic.Slot, error) {
	return f.AvailabilityFn(ctx, doctorID, date)
}

func (f *fakeService) Book(ctx context.Context, patientID, doctorID uuid.UUID, dateTime string, description *string) (*clinic.Appointment, error) {
	return f.BookFn(ctx, patientID, doctorID, dateTime, description)
}

func (f *fakeService) Cancel(ctx context.Context, actorID, appointmentID uuid.UUID) (*clinic.Appointment, error) {
	return f.CancelFn(ctx, actorID, appointmentID)
}

func (f *fakeService) ListDoctors(ctx context.Context) ([]clinic.Doctor, error) {
	return f.ListDoctorsFn(ctx)
}

func (f *fakeService) ListAppointments(ctx context.Context, userID uuid.UUID, role clinic.Role) ([]clinic.AppointmentSummary, error) {
	return f.ListAppointmentsFn(ctx, userID, role)
}

func (f *fakeService) Register(ctx context.Context, in clinic.RegisterInput) (*clinic.User, error) {
	return f.RegisterFn(ctx, in)
}

func (f *fakeService) Login(ctx context.Context, email, password string) (*clinic.User, error) {
	return f.LoginFn(ctx, email, password)
}

func newTestRouter(svc ClinicService, revoker *fakeRevoker) http.Handler {
	return NewRouter(RouterConfig{
		Service:   svc,
		Gate:      NewAuthGate(testSecret, revoker),
		Revoker:   revoker,
		Logger:    zerolog.Nop(),
		JWTSecret: testSecret,
		TokenTTL:  time.Hour,
		Env:       "test",
		Version:   "test",
	})
}

func TestAvailabilityEndpoint(t *testing.T) {
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.Local)
	svc := &fakeService{
		AvailabilityFn: func(_ context.Context, _ uuid.UUID, date string) ([]clinic.Slot, error) {
			if date == "" {
				return nil, clinic.ErrMissingDate
			}
			return clinic.DaySlots(day)[:2], nil
		},
	}
	router := newTestRouter(svc, newFakeRevoker())
	token := bearerFor(t, uuid.New(), clinic.RolePatient)

	req := httptest.NewRequest(http.MethodGet, "/doctors/"+uuid.NewString()+"/availability?date=2024-06-10", nil)
	req.Header.Set("Authorization", token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp AvailabilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.AvailableSlots, 2)
	require.Equal(t, "09:00 - 09:30", resp.AvailableSlots[0].Display)
	require.Empty(t, resp.Message)

	// Missing date parameter maps to 400.
	req = httptest.NewRequest(http.MethodGet, "/doctors/"+uuid.NewString()+"/availability", nil)
	req.Header.Set("Authorization", token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailabilityEndpointEmptyAddsMessage(t *testing.T) {
	svc := &fakeService{
		AvailabilityFn: func(context.Context, uuid.UUID, string) ([]clinic.Slot, error) {
			return nil, nil
		},
	}
	router := newTestRouter(svc, newFakeRevoker())

	req := httptest.NewRequest(http.MethodGet, "/doctors/"+uuid.NewString()+"/availability?date=2024-06-10", nil)
	req.Header.Set("Authorization", bearerFor(t, uuid.New(), clinic.RolePatient))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp AvailabilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Empty(t, resp.AvailableSlots)
	require.NotEmpty(t, resp.Message)
}

func TestCreateAppointmentEndpoint(t *testing.T) {
	apptID := uuid.New()
	patientID := uuid.New()
	doctorID := uuid.New()

	svc := &fakeService{
		BookFn: func(_ context.Context, gotPatient, gotDoctor uuid.UUID, dateTime string, _ *string) (*clinic.Appointment, error) {
			require.Equal(t, patientID, gotPatient)
			require.Equal(t, doctorID, gotDoctor)
			require.Equal(t, "2024-06-10T09:30", dateTime)
			return &clinic.Appointment{ID: apptID, Status: clinic.StatusScheduled}, nil
		},
	}
	router := newTestRouter(svc, newFakeRevoker())

	body, _ := json.Marshal(CreateAppointmentRequest{
		DoctorID:            doctorID.String(),
		AppointmentDateTime: "2024-06-10T09:30",
	})
	req := httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewReader(body))
	req.Header.Set("Authorization", bearerFor(t, patientID, clinic.RolePatient))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp CreateAppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, apptID, resp.AppointmentID)
}

func TestCreateAppointmentEndpointErrors(t *testing.T) {
	svc := &fakeService{
		BookFn: func(context.Context, uuid.UUID, uuid.UUID, string, *string) (*clinic.Appointment, error) {
			return nil, clinic.ErrSlotTaken
		},
	}
	router := newTestRouter(svc, newFakeRevoker())
	token := bearerFor(t, uuid.New(), clinic.RolePatient)

	// Slot conflict maps to 409 so the caller can re-offer slots.
	body, _ := json.Marshal(CreateAppointmentRequest{
		DoctorID:            uuid.NewString(),
		AppointmentDateTime: "2024-06-10T09:30",
	})
	req := httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewReader(body))
	req.Header.Set("Authorization", token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.Equal(t, "slot_conflict", errResp.Error)

	// Unparseable body.
	req = httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewReader([]byte("{")))
	req.Header.Set("Authorization", token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Missing fields fail request validation before the service is reached.
	body, _ = json.Marshal(CreateAppointmentRequest{DoctorID: uuid.NewString()})
	req = httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewReader(body))
	req.Header.Set("Authorization", token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAppointmentRequiresPatientRole(t *testing.T) {
	svc := &fakeService{}
	router := newTestRouter(svc, newFakeRevoker())

	body, _ := json.Marshal(CreateAppointmentRequest{
		DoctorID:            uuid.NewString(),
		AppointmentDateTime: "2024-06-10T09:30",
	})
	req := httptest.NewRequest(http.MethodPost, "/appointments", bytes.NewReader(body))
	req.Header.Set("Authorization", bearerFor(t, uuid.New(), clinic.RoleDoctor))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCancelAppointmentEndpoint(t *testing.T) {
	svc := &fakeService{
		CancelFn: func(context.Context, uuid.UUID, uuid.UUID) (*clinic.Appointment, error) {
			return &clinic.Appointment{Status: clinic.StatusCancelled}, nil
		},
	}
	router := newTestRouter(svc, newFakeRevoker())

	req := httptest.NewRequest(http.MethodPost, "/appointments/"+uuid.NewString()+"/cancel", nil)
	req.Header.Set("Authorization", bearerFor(t, uuid.New(), clinic.RolePatient))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp CancelAppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, "cancelled", resp.Status)
}

func TestCancelAppointmentEndpointNotFound(t *testing.T) {
	svc := &fakeService{
		CancelFn: func(context.Context, uuid.UUID, uuid.UUID) (*clinic.Appointment, error) {
			return nil, clinic.ErrAppointmentNotFound
		},
	}
	router := newTestRouter(svc, newFakeRevoker())

	req := httptest.NewRequest(http.MethodPost, "/appointments/"+uuid.NewString()+"/cancel", nil)
	req.Header.Set("Authorization", bearerFor(t, uuid.New(), clinic.RolePatient))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAppointmentsEndpointRoleViews(t *testing.T) {
	specialty := "Cardiology"
	svc := &fakeService{
		ListAppointmentsFn: func(_ context.Context, _ uuid.UUID, role clinic.Role) ([]clinic.AppointmentSummary, error) {
			s := clinic.AppointmentSummary{
				ID:              uuid.New(),
				Date:            time.Date(2024, 6, 10, 9, 30, 0, 0, time.Local),
				Status:          clinic.StatusScheduled,
				CounterpartName: "Other Party",
			}
			if role != clinic.RoleDoctor {
				s.Specialty = &specialty
			}
			return []clinic.AppointmentSummary{s}, nil
		},
	}
	router := newTestRouter(svc, newFakeRevoker())

	// Doctor view names the patient.
	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	req.Header.Set("Authorization", bearerFor(t, uuid.New(), clinic.RoleDoctor))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var docView []AppointmentSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docView))
	require.Len(t, docView, 1)
	require.Equal(t, "Other Party", docView[0].PatientName)
	require.Empty(t, docView[0].DoctorName)
	require.Equal(t, "10.06.2024 09:30", docView[0].FormattedDate)

	// Patient view names the doctor and their specialty.
	req = httptest.NewRequest(http.MethodGet, "/appointments", nil)
	req.Header.Set("Authorization", bearerFor(t, uuid.New(), clinic.RolePatient))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var patView []AppointmentSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &patView))
	require.Len(t, patView, 1)
	require.Equal(t, "Other Party", patView[0].DoctorName)
	require.Equal(t, "Cardiology", patView[0].Specialty)
	require.Empty(t, patView[0].PatientName)
}

func TestRegisterEndpoint(t *testing.T) {
	userID := uuid.New()
	svc := &fakeService{
		RegisterFn: func(_ context.Context, in clinic.RegisterInput) (*clinic.User, error) {
			require.Equal(t, clinic.RoleDoctor, in.Role)
			require.NotNil(t, in.Specialty)
			require.Equal(t, "Cardiology", *in.Specialty)
			return &clinic.User{ID: userID, Name: in.Name, Role: in.Role}, nil
		},
	}
	router := newTestRouter(svc, newFakeRevoker())

	body, _ := json.Marshal(RegisterRequest{
		Name:      "Dr. Gray",
		Email:     "gray@example.com",
		Password:  "secretpw",
		Role:      "doctor",
		Specialty: "Cardiology",
	})
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, userID, resp.UserID)
	require.NotEmpty(t, resp.Token)

	// A doctor without a specialty never reaches the service.
	body, _ = json.Marshal(RegisterRequest{
		Name: "Dr. Gray", Email: "gray@example.com", Password: "secretpw", Role: "doctor",
	})
	req = httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterEndpointEmailTaken(t *testing.T) {
	svc := &fakeService{
		RegisterFn: func(context.Context, clinic.RegisterInput) (*clinic.User, error) {
			return nil, clinic.ErrEmailTaken
		},
	}
	router := newTestRouter(svc, newFakeRevoker())

	body, _ := json.Marshal(RegisterRequest{
		Name: "Ada", Email: "ada@example.com", Password: "secretpw", Role: "patient",
	})
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginEndpoint(t *testing.T) {
	userID := uuid.New()
	svc := &fakeService{
		LoginFn: func(_ context.Context, email, password string) (*clinic.User, error) {
			if password != "secretpw" {
				return nil, clinic.ErrInvalidCredentials
			}
			return &clinic.User{ID: userID, Name: "Ada", Role: clinic.RolePatient}, nil
		},
	}
	router := newTestRouter(svc, newFakeRevoker())

	body, _ := json.Marshal(LoginRequest{Email: "ada@example.com", Password: "secretpw"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "patient", resp.Role)

	body, _ = json.Marshal(LoginRequest{Email: "ada@example.com", Password: "wrong"})
	req = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutEndpointRevokesToken(t *testing.T) {
	revoker := newFakeRevoker()
	router := newTestRouter(&fakeService{}, revoker)
	token := bearerFor(t, uuid.New(), clinic.RolePatient)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, revoker.revoked, 1)

	// The same token no longer opens the gate.
	req = httptest.NewRequest(http.MethodGet, "/appointments", nil)
	req.Header.Set("Authorization", token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListDoctorsEndpoint(t *testing.T) {
	svc := &fakeService{
		ListDoctorsFn: func(context.Context) ([]clinic.Doctor, error) {
			return []clinic.Doctor{{UserID: uuid.New(), Name: "Dr. Gray", Specialty: "Cardiology"}}, nil
		},
	}
	router := newTestRouter(svc, newFakeRevoker())

	// Unauthenticated callers are turned away.
	req := httptest.NewRequest(http.MethodGet, "/doctors", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/doctors", nil)
	req.Header.Set("Authorization", bearerFor(t, uuid.New(), clinic.RolePatient))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var doctors []DoctorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doctors))
	require.Len(t, doctors, 1)
	require.Equal(t, "Cardiology", doctors[0].Specialty)
}
