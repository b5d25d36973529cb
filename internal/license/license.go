// Package license owns the subscription lifecycle: which plan governs a user
// at any instant, license issuance and expiry, and usage-limit arithmetic.
package license

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"astrapilot/internal/models"
	"astrapilot/internal/plans"
)

var ErrInvalidPlan = errors.New("invalid plan id")

// Resource types tracked against plan limits.
const (
	ResourceSeoAnalyses        = "seo_analyses"
	ResourceKeywordResearch    = "keyword_research"
	ResourceCompetitorAnalyses = "competitor_analyses"
	ResourceAPICalls           = "api_calls"
)

// Store is the persistence surface the manager needs. The ok return on
// ActiveLicense distinguishes "no active license" from a store failure.
type Store interface {
	ActiveLicense(ctx context.Context, userID int64) (models.License, bool, error)
	InsertLicense(ctx context.Context, userID int64, plan string, validUntil time.Time) (models.License, error)
	DeactivateUserLicenses(ctx context.Context, userID int64) error
	DeactivateLicense(ctx context.Context, licenseID int64) error
	CountSeoAnalysesSince(ctx context.Context, userID int64, since time.Time) (int, error)
}

// Status combines license fields with the governing plan's limits and features.
type Status struct {
	UserID     int64          `json:"user_id"`
	Plan       string         `json:"plan"`
	IsActive   bool           `json:"is_active"`
	ValidUntil *time.Time     `json:"valid_until"`
	UsageStats map[string]int `json:"usage_stats"`
	Limits     map[string]int `json:"limits"`
	Features   []string       `json:"features_available"`
}

type UsageCheck struct {
	Allowed      bool `json:"allowed"`
	Remaining    int  `json:"remaining"`
	Limit        int  `json:"limit"`
	CurrentUsage int  `json:"current_usage"`
}

// Manager serializes subscription changes per user so that the
// deactivate-then-insert sequence cannot interleave and leave two licenses
// active at once.
type Manager struct {
	store   Store
	catalog *plans.Catalog
	now     func() time.Time

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewManager(store Store, catalog *plans.Catalog) *Manager {
	return &Manager{
		store:   store,
		catalog: catalog,
		now:     time.Now,
		locks:   make(map[int64]*sync.Mutex),
	}
}

func (m *Manager) userLock(userID int64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[userID] = lock
	}
	return lock
}

func (m *Manager) Plans() []plans.Plan {
	return m.catalog.List()
}

func (m *Manager) Plan(planID string) (plans.Plan, bool) {
	return m.catalog.Get(planID)
}

// CreateSubscription deactivates every active license for the user and
// issues a new one. Any billing cycle other than "yearly" is treated as
// monthly; the billing API has always been permissive here.
func (m *Manager) CreateSubscription(ctx context.Context, userID int64, planID, billingCycle string) (models.License, error) {
	if _, ok := m.catalog.Get(planID); !ok {
		return models.License{}, fmt.Errorf("%w: %s", ErrInvalidPlan, planID)
	}

	validDays := 30
	if billingCycle == models.BillingCycleYearly {
		validDays = 365
	}
	validUntil := m.now().UTC().Add(time.Duration(validDays) * 24 * time.Hour)

	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := m.store.DeactivateUserLicenses(ctx, userID); err != nil {
		return models.License{}, err
	}
	return m.store.InsertLicense(ctx, userID, planID, validUntil)
}

// Status resolves the license governing the user right now. A license whose
// valid_until has passed is deactivated on the spot and the user falls back
// to the free plan, as does a user with no license at all.
func (m *Manager) Status(ctx context.Context, userID int64) (Status, error) {
	lic, ok, err := m.store.ActiveLicense(ctx, userID)
	if err != nil {
		return Status{}, err
	}

	if ok && lic.ValidUntil != nil && lic.ValidUntil.Before(m.now().UTC()) {
		if err := m.store.DeactivateLicense(ctx, lic.ID); err != nil {
			return Status{}, err
		}
		ok = false
	}

	stats, err := m.usageStats(ctx, userID)
	if err != nil {
		return Status{}, err
	}

	if !ok {
		free := m.catalog.Free()
		return Status{
			UserID:     userID,
			Plan:       plans.FreePlanID,
			IsActive:   true,
			ValidUntil: nil,
			UsageStats: stats,
			Limits:     free.Limits,
			Features:   free.Features,
		}, nil
	}

	plan, found := m.catalog.Get(lic.Plan)
	if !found {
		// Stored plan id was retired from the catalog; keep the stored id
		// visible but govern with free-tier limits.
		plan = m.catalog.Free()
	}
	return Status{
		UserID:     userID,
		Plan:       lic.Plan,
		IsActive:   lic.IsActive,
		ValidUntil: lic.ValidUntil,
		UsageStats: stats,
		Limits:     plan.Limits,
		Features:   plan.Features,
	}, nil
}

// CheckUsage reports whether the user may consume one more unit of the
// resource under the governing plan.
func (m *Manager) CheckUsage(ctx context.Context, userID int64, resourceType string) (UsageCheck, error) {
	status, err := m.Status(ctx, userID)
	if err != nil {
		return UsageCheck{}, err
	}

	limitKey := resourceType + "_per_month"
	if resourceType == ResourceKeywordResearch {
		limitKey = resourceType + "_per_day"
	}
	limit := status.Limits[limitKey]

	if limit == plans.Unlimited {
		return UsageCheck{Allowed: true, Remaining: plans.Unlimited, Limit: plans.Unlimited}, nil
	}

	current := status.UsageStats[resourceType]
	remaining := limit - current
	if remaining < 0 {
		remaining = 0
	}
	return UsageCheck{
		Allowed:      current < limit,
		Remaining:    remaining,
		Limit:        limit,
		CurrentUsage: current,
	}, nil
}

// CheckFeature reports whether the governing plan includes the named feature.
func (m *Manager) CheckFeature(ctx context.Context, userID int64, feature string) (bool, error) {
	status, err := m.Status(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, f := range status.Features {
		if f == feature {
			return true, nil
		}
	}
	return false, nil
}

// usageStats maps each resource type to its count for the current tracking
// period. Only seo_analyses is backed by real rows today.
// TODO: back keyword_research, competitor_analyses and api_calls with real
// per-period counters once those events are persisted.
func (m *Manager) usageStats(ctx context.Context, userID int64) (map[string]int, error) {
	now := m.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	seoCount, err := m.store.CountSeoAnalysesSince(ctx, userID, monthStart)
	if err != nil {
		return nil, err
	}
	return map[string]int{
		ResourceSeoAnalyses:        seoCount,
		ResourceKeywordResearch:    5,
		ResourceCompetitorAnalyses: 2,
		ResourceAPICalls:           45,
	}, nil
}
