package services

import (
	"context"
	"errors"
	"time"

	"astrapilot/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const licenseColumns = `id, user_id, plan, is_active, valid_until, created_at`

func scanLicense(row pgx.Row) (models.License, error) {
	var lic models.License
	err := row.Scan(&lic.ID, &lic.UserID, &lic.Plan, &lic.IsActive, &lic.ValidUntil, &lic.CreatedAt)
	return lic, err
}

// ActiveLicense returns the most recently created active license for the
// user, if any.
func (s *Service) ActiveLicense(ctx context.Context, userID int64) (models.License, bool, error) {
	lic, err := scanLicense(s.pool.QueryRow(ctx, `
		SELECT `+licenseColumns+`
		FROM licenses
		WHERE user_id = $1 AND is_active = true
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.License{}, false, nil
	}
	if err != nil {
		return models.License{}, false, err
	}
	return lic, true, nil
}

func (s *Service) InsertLicense(ctx context.Context, userID int64, plan string, validUntil time.Time) (models.License, error) {
	return scanLicense(s.pool.QueryRow(ctx, `
		INSERT INTO licenses (user_id, plan, is_active, valid_until)
		VALUES ($1, $2, true, $3)
		RETURNING `+licenseColumns,
		userID, plan, validUntil))
}

func (s *Service) DeactivateUserLicenses(ctx context.Context, userID int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE licenses SET is_active = false
		WHERE user_id = $1 AND is_active = true`, userID)
	return err
}

func (s *Service) DeactivateLicense(ctx context.Context, licenseID int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE licenses SET is_active = false
		WHERE id = $1`, licenseID)
	return err
}

func (s *Service) ListUserLicenses(ctx context.Context, userID int64) ([]models.License, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+licenseColumns+`
		FROM licenses
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var licenses []models.License
	for rows.Next() {
		lic, err := scanLicense(rows)
		if err != nil {
			return nil, err
		}
		licenses = append(licenses, lic)
	}
	return licenses, rows.Err()
}

const paymentColumns = `id, user_id, plan, billing_cycle, amount_cents, status,
	reference, stripe_session_id, created_at`

func scanPayment(row pgx.Row) (models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.ID, &p.UserID, &p.Plan, &p.BillingCycle, &p.AmountCents,
		&p.Status, &p.Reference, &p.StripeSessionID, &p.CreatedAt)
	return p, err
}

func (s *Service) CreatePayment(ctx context.Context, userID int64, plan, billingCycle string, amountCents int, status string) (models.Payment, error) {
	if userID == 0 || plan == "" || amountCents < 0 {
		return models.Payment{}, ErrInvalidRequest
	}
	return scanPayment(s.pool.QueryRow(ctx, `
		INSERT INTO payments (user_id, plan, billing_cycle, amount_cents, status, reference)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+paymentColumns,
		userID, plan, billingCycle, amountCents, status, uuid.NewString()))
}

func (s *Service) LinkPaymentSession(ctx context.Context, paymentID int64, sessionID string) error {
	ct, err := s.pool.Exec(ctx, `
		UPDATE payments SET stripe_session_id = $1
		WHERE id = $2`, sessionID, paymentID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) GetPayment(ctx context.Context, paymentID int64) (models.Payment, error) {
	p, err := scanPayment(s.pool.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments WHERE id = $1`, paymentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Payment{}, ErrNotFound
	}
	return p, err
}

func (s *Service) GetPaymentByStripeSession(ctx context.Context, sessionID string) (models.Payment, error) {
	p, err := scanPayment(s.pool.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments WHERE stripe_session_id = $1`, sessionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Payment{}, ErrNotFound
	}
	return p, err
}

func (s *Service) MarkPaymentPaid(ctx context.Context, paymentID int64) (models.Payment, error) {
	p, err := scanPayment(s.pool.QueryRow(ctx, `
		UPDATE payments SET status = $1
		WHERE id = $2
		RETURNING `+paymentColumns,
		models.PaymentStatusPaid, paymentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Payment{}, ErrNotFound
	}
	return p, err
}

func (s *Service) ListPayments(ctx context.Context, userID int64) ([]models.Payment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE user_id = $1
		ORDER BY id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var payments []models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// DashboardMetrics is the aggregate view for the admin dashboard.
type DashboardMetrics struct {
	ActiveUsers      int64   `json:"active_users"`
	ReportsGenerated int64   `json:"reports_generated"`
	TotalRevenue     float64 `json:"total_revenue"`
	AvgSeoScore      float64 `json:"avg_seo_score"`
}

func (s *Service) GetDashboardMetrics(ctx context.Context) (DashboardMetrics, error) {
	var m DashboardMetrics
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE is_active = true`).Scan(&m.ActiveUsers)
	if err != nil {
		return DashboardMetrics{}, err
	}
	err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM seo_analyses`).Scan(&m.ReportsGenerated)
	if err != nil {
		return DashboardMetrics{}, err
	}
	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0)::float / 100 FROM payments
		WHERE status = $1`, models.PaymentStatusPaid).Scan(&m.TotalRevenue)
	if err != nil {
		return DashboardMetrics{}, err
	}
	err = s.pool.QueryRow(ctx, `SELECT COALESCE(AVG(score), 0) FROM seo_analyses`).Scan(&m.AvgSeoScore)
	if err != nil {
		return DashboardMetrics{}, err
	}
	return m, nil
}
