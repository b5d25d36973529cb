package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"plans": s.licenses.Plans()})
}

type subscribeRequest struct {
	UserID       int64  `json:"user_id" validate:"required,gt=0"`
	PlanID       string `json:"plan_id" validate:"required"`
	BillingCycle string `json:"billing_cycle"`
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	if _, ok, err := s.svc.UserByID(r.Context(), req.UserID); err != nil {
		respondServiceError(w, err)
		return
	} else if !ok {
		respondError(w, http.StatusNotFound, errors.New("user not found"))
		return
	}

	lic, err := s.licenses.CreateSubscription(r.Context(), req.UserID, req.PlanID, req.BillingCycle)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"license": lic,
		"message": "subscription created",
	})
}

func (s *Server) handleLicenseStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUserID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	status, err := s.licenses.Status(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleLicenseHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUserID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	licenses, err := s.svc.ListUserLicenses(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"licenses": licenses})
}

func (s *Server) handleCheckFeature(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUserID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	feature := chi.URLParam(r, "feature")

	available, err := s.licenses.CheckFeature(r.Context(), userID, feature)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"feature":    feature,
		"has_access": available,
		"user_id":    userID,
	})
}

func (s *Server) handleCheckUsage(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUserID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	resourceType := chi.URLParam(r, "resourceType")

	check, err := s.licenses.CheckUsage(r.Context(), userID, resourceType)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, check)
}
