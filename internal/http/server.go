package httpapi

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"astrapilot/internal/ai"
	"astrapilot/internal/config"
	"astrapilot/internal/license"
	"astrapilot/internal/otp"
	"astrapilot/internal/seo"
	"astrapilot/internal/services"
)

type Server struct {
	svc      *services.Service
	licenses *license.Manager
	otps     *otp.Manager
	analyzer *seo.Analyzer
	ai       *ai.Client
	cfg      config.Config
}

func NewServer(svc *services.Service, licenses *license.Manager, otps *otp.Manager, analyzer *seo.Analyzer, aiClient *ai.Client, cfg config.Config) *Server {
	return &Server{
		svc:      svc,
		licenses: licenses,
		otps:     otps,
		analyzer: analyzer,
		ai:       aiClient,
		cfg:      cfg,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/verify-email", s.handleVerifyEmail)
		r.Post("/resend-otp", s.handleResendOTP)
	})

	r.Route("/license", func(r chi.Router) {
		r.Get("/plans", s.handleListPlans)
		r.Post("/subscribe", s.handleSubscribe)
		r.Get("/status", s.handleLicenseStatus)
		r.Get("/history", s.handleLicenseHistory)
		r.Get("/check-feature/{feature}", s.handleCheckFeature)
		r.Get("/check-usage/{resourceType}", s.handleCheckUsage)
	})

	r.Post("/webhooks/stripe", s.handleStripeWebhook)

	// Endpoints below require a valid bearer token.
	r.Group(func(r chi.Router) {
		r.Use(s.jwtMiddleware)

		r.Post("/seo/analyze", s.handleSeoAnalyze)
		r.Get("/seo/history", s.handleSeoHistory)
		r.Get("/keywords/suggest", s.handleKeywordSuggest)
		r.Post("/payment/checkout", s.handleCheckout)
		r.Get("/payment/history", s.handlePaymentHistory)
		r.Get("/social/profiles", s.handleListSocialProfiles)
		r.Post("/social/profiles", s.handleAddSocialProfile)

		r.Group(func(r chi.Router) {
			r.Use(s.superuserMiddleware)
			r.Get("/dashboard", s.handleDashboardMetrics)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Printf("[INFO] %s %s %d %s reqID=%s", r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[ERROR] panic: %v reqID=%s", rec, middleware.GetReqID(r.Context()))
				respondError(w, http.StatusInternalServerError, errors.New("internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// respondServiceError maps domain errors onto HTTP statuses. Anything
// unrecognized becomes a 500 and gets logged.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound) || errors.Is(err, otp.ErrNotFound):
		respondError(w, http.StatusNotFound, err)
	case errors.Is(err, services.ErrInvalidRequest),
		errors.Is(err, license.ErrInvalidPlan),
		errors.Is(err, otp.ErrNoPendingCode),
		errors.Is(err, otp.ErrCodeExpired),
		errors.Is(err, otp.ErrCodeMismatch):
		respondError(w, http.StatusBadRequest, err)
	case errors.Is(err, services.ErrUserExists):
		respondError(w, http.StatusConflict, err)
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, err)
	case errors.Is(err, services.ErrEmailNotVerified) || errors.Is(err, services.ErrUserDisabled):
		respondError(w, http.StatusForbidden, err)
	case errors.Is(err, services.ErrStripeNotConfigured):
		respondError(w, http.StatusServiceUnavailable, err)
	case errors.Is(err, otp.ErrSendFailed):
		log.Printf("[ERROR] %v", err)
		respondError(w, http.StatusInternalServerError, err)
	default:
		log.Printf("[ERROR] %v", err)
		respondError(w, http.StatusInternalServerError, errors.New("internal server error"))
	}
}

func queryUserID(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		return 0, errors.New("user_id query parameter is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("user_id must be a positive integer")
	}
	return id, nil
}
