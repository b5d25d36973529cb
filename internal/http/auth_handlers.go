package httpapi

import (
	"errors"
	"log"
	"net/http"

	"astrapilot/internal/otp"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	user, err := s.svc.RegisterUser(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// A failed delivery should not roll back registration. The code is
	// already persisted, so a resend can pick it up.
	if err := s.otps.CreateAndSend(r.Context(), user.ID); err != nil {
		log.Printf("[ERROR] sending verification code to user %d: %v", user.ID, err)
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"user":    user,
		"message": "registration successful, check your email for the verification code",
	})
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	user, err := s.svc.AuthenticateUser(r.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	token, err := s.generateJWT(user)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	})
}

type verifyEmailRequest struct {
	UserID  int64  `json:"user_id" validate:"required,gt=0"`
	OTPCode string `json:"otp_code" validate:"required"`
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.otps.Verify(r.Context(), req.UserID, req.OTPCode); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "email verified successfully"})
}

type resendOTPRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

func (s *Server) handleResendOTP(w http.ResponseWriter, r *http.Request) {
	var req resendOTPRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	user, ok, err := s.svc.UserByID(r.Context(), req.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !ok {
		respondServiceError(w, otp.ErrNotFound)
		return
	}
	if user.EmailVerified {
		respondError(w, http.StatusBadRequest, errors.New("email is already verified"))
		return
	}

	if err := s.otps.Resend(r.Context(), req.UserID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "verification code sent"})
}
