package models

import "time"

type User struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	IsActive      bool       `json:"is_active"`
	IsSuperuser   bool       `json:"is_superuser"`
	EmailVerified bool       `json:"email_verified"`
	OTPCode       *string    `json:"-"`
	OTPExpires    *time.Time `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
}

// License asserts a user's entitlement to a plan until an optional expiry.
// Rows are append-mostly: superseded or expired licenses are deactivated,
// never deleted.
type License struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	Plan       string     `json:"plan"`
	IsActive   bool       `json:"is_active"`
	ValidUntil *time.Time `json:"valid_until"`
	CreatedAt  time.Time  `json:"created_at"`
}

type SeoAnalysis struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	URL             string    `json:"url"`
	Score           int       `json:"score"`
	Recommendations []string  `json:"recommendations"`
	CreatedAt       time.Time `json:"created_at"`
}

type Payment struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Plan            string    `json:"plan"`
	BillingCycle    string    `json:"billing_cycle"`
	AmountCents     int       `json:"amount_cents"`
	Status          string    `json:"status"`
	Reference       string    `json:"reference"`
	StripeSessionID string    `json:"stripe_session_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type SocialProfile struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Platform   string    `json:"platform"`
	ProfileURL string    `json:"profile_url"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	BillingCycleMonthly = "monthly"
	BillingCycleYearly  = "yearly"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)
