package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/clinicore/clinic-booking/internal/auth"
	"github.com/clinicore/clinic-booking/internal/clinic"
)

func registerHandler(svc ClinicService, secret string, tokenTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}

		in := clinic.RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Role:     clinic.Role(req.Role),
		}
		if req.Specialty != "" {
			in.Specialty = &req.Specialty
		}

		user, err := svc.Register(r.Context(), in)
		if err != nil {
			handleRegisterError(w, r, err)
			return
		}

		// The freshly registered user is logged in right away.
		token, err := auth.MakeToken(user.ID, string(user.Role), secret, tokenTTL)
		if err != nil {
			writeInternalError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, AuthResponse{
			Token:  token,
			UserID: user.ID,
			Name:   user.Name,
			Role:   string(user.Role),
		})
	}
}

func loginHandler(svc ClinicService, secret string, tokenTTL time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}

		user, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, clinic.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
				return
			}
			writeInternalError(w, r, err)
			return
		}

		token, err := auth.MakeToken(user.ID, string(user.Role), secret, tokenTTL)
		if err != nil {
			writeInternalError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, AuthResponse{
			Token:  token,
			UserID: user.ID,
			Name:   user.Name,
			Role:   string(user.Role),
		})
	}
}

func logoutHandler(revoker auth.Revoker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFrom(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "a valid bearer token is required")
			return
		}

		if err := revoker.Revoke(r.Context(), identity.TokenID, identity.ExpiresAt); err != nil {
			writeInternalError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func handleRegisterError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, clinic.ErrMissingParameter):
		writeError(w, http.StatusBadRequest, "missing_parameter", err.Error())
	case errors.Is(err, clinic.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, "invalid_role", "role must be patient or doctor")
	case errors.Is(err, clinic.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email_taken", "this email address is already registered")
	default:
		writeInternalError(w, r, err)
	}
}
