package httpapi

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"astrapilot/internal/license"
	"astrapilot/internal/seo"
)

type analyzeRequest struct {
	URL string `json:"url" validate:"required,url"`
}

func (s *Server) handleSeoAnalyze(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var req analyzeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	check, err := s.licenses.CheckUsage(r.Context(), claims.UserID, license.ResourceSeoAnalyses)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !check.Allowed {
		respondError(w, http.StatusForbidden, errors.New("monthly analysis limit reached, upgrade your plan to continue"))
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), req.URL)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	if s.ai.IsConfigured() {
		extra, err := s.ai.Recommendations(r.Context(), result.URL, result.Score, result.Findings)
		if err != nil {
			log.Printf("[ERROR] AI recommendations for %s: %v", result.URL, err)
		} else {
			result.Recommendations = append(result.Recommendations, extra...)
		}
	}

	analysis, err := s.svc.SaveSeoAnalysis(r.Context(), claims.UserID, result.URL, result.Score, result.Recommendations)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"analysis": analysis,
		"findings": result.Findings,
	})
}

func (s *Server) handleSeoHistory(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	analyses, err := s.svc.ListSeoAnalyses(r.Context(), claims.UserID, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"analyses": analyses})
}

func (s *Server) handleKeywordSuggest(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	seed := r.URL.Query().Get("seed")
	if seed == "" {
		respondError(w, http.StatusBadRequest, errors.New("seed query parameter is required"))
		return
	}

	check, err := s.licenses.CheckUsage(r.Context(), claims.UserID, license.ResourceKeywordResearch)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !check.Allowed {
		respondError(w, http.StatusForbidden, errors.New("daily keyword research limit reached"))
		return
	}

	suggestions := seo.SuggestKeywords(seed, 10)
	respondJSON(w, http.StatusOK, map[string]any{
		"seed":        seed,
		"suggestions": suggestions,
	})
}

type addSocialProfileRequest struct {
	Platform   string `json:"platform" validate:"required,oneof=twitter facebook instagram linkedin youtube tiktok"`
	ProfileURL string `json:"profile_url" validate:"required,url"`
}

func (s *Server) handleAddSocialProfile(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var req addSocialProfileRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	profile, err := s.svc.AddSocialProfile(r.Context(), claims.UserID, req.Platform, req.ProfileURL)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, profile)
}

func (s *Server) handleListSocialProfiles(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	profiles, err := s.svc.ListSocialProfiles(r.Context(), claims.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

func (s *Server) handleDashboardMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := s.svc.GetDashboardMetrics(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, metrics)
}
