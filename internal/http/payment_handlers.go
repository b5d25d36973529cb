package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"

	"astrapilot/internal/models"
	"astrapilot/internal/services"
)

type checkoutRequest struct {
	PlanID       string `json:"plan_id" validate:"required"`
	BillingCycle string `json:"billing_cycle"`
	SuccessURL   string `json:"success_url" validate:"omitempty,url"`
	CancelURL    string `json:"cancel_url" validate:"omitempty,url"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var req checkoutRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	plan, ok := s.licenses.Plan(req.PlanID)
	if !ok {
		respondError(w, http.StatusBadRequest, fmt.Errorf("unknown plan: %s", req.PlanID))
		return
	}

	cycle := req.BillingCycle
	if cycle == "" {
		cycle = models.BillingCycleMonthly
	}
	price := plan.PriceMonthly
	if cycle == models.BillingCycleYearly {
		price = plan.PriceYearly
	}
	amountCents := int(math.Round(price * 100))

	// Without a Stripe key the checkout degrades to a simulated payment:
	// the payment row is recorded as paid and the subscription activates
	// immediately.
	if s.cfg.StripeSecretKey == "" {
		payment, err := s.svc.CreatePayment(r.Context(), claims.UserID, plan.PlanID, cycle, amountCents, models.PaymentStatusPaid)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		lic, err := s.licenses.CreateSubscription(r.Context(), claims.UserID, plan.PlanID, cycle)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, map[string]any{
			"payment":   payment,
			"license":   lic,
			"simulated": true,
			"message":   "payment simulated, subscription activated",
		})
		return
	}

	payment, err := s.svc.CreatePayment(r.Context(), claims.UserID, plan.PlanID, cycle, amountCents, models.PaymentStatusPending)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	stripe.Key = s.cfg.StripeSecretKey
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(strconv.FormatInt(payment.ID, 10)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(s.cfg.StripeCurrency),
					UnitAmount: stripe.Int64(int64(amountCents)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("AstraPilot %s (%s)", plan.Name, cycle)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"payment_id": strconv.FormatInt(payment.ID, 10),
			"user_id":    strconv.FormatInt(claims.UserID, 10),
			"plan_id":    plan.PlanID,
		},
	}

	sess, err := session.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			log.Printf("[ERROR] Stripe API error: type=%s, code=%s, message=%s", stripeErr.Type, stripeErr.Code, stripeErr.Msg)
			respondError(w, http.StatusBadRequest, fmt.Errorf("stripe error: %s - %s", stripeErr.Code, stripeErr.Msg))
		} else {
			log.Printf("[ERROR] creating Stripe session: %v", err)
			respondError(w, http.StatusInternalServerError, err)
		}
		return
	}

	if err := s.svc.LinkPaymentSession(r.Context(), payment.ID, sess.ID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"payment_id":     payment.ID,
		"stripe_session": sess.ID,
		"checkout_url":   sess.URL,
	})
}

func (s *Server) handlePaymentHistory(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	payments, err := s.svc.ListPayments(r.Context(), claims.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if s.cfg.StripeWebhookSecret == "" {
		respondServiceError(w, services.ErrStripeNotConfigured)
		return
	}
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	sigHeader := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sigHeader, s.cfg.StripeWebhookSecret)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			respondError(w, http.StatusBadRequest, err)
			return
		}
		if err := s.processCheckoutSession(r.Context(), &sess); err != nil {
			respondServiceError(w, err)
			return
		}
	default:
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) processCheckoutSession(ctx context.Context, sess *stripe.CheckoutSession) error {
	var payment models.Payment
	var err error

	if sess.ClientReferenceID != "" {
		if paymentID, parseErr := strconv.ParseInt(sess.ClientReferenceID, 10, 64); parseErr == nil {
			payment, err = s.svc.GetPayment(ctx, paymentID)
		}
	}
	if err != nil || payment.ID == 0 {
		payment, err = s.svc.GetPaymentByStripeSession(ctx, sess.ID)
	}
	if err != nil {
		return err
	}
	if payment.Status == models.PaymentStatusPaid {
		return nil
	}

	if _, err := s.svc.MarkPaymentPaid(ctx, payment.ID); err != nil {
		return err
	}
	_, err = s.licenses.CreateSubscription(ctx, payment.UserID, payment.Plan, payment.BillingCycle)
	return err
}
