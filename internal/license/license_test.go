package license

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astrapilot/internal/models"
	"astrapilot/internal/plans"
)

// fakeStore keeps license rows in memory, newest first semantics preserved
// by scanning for the latest created_at.
type fakeStore struct {
	licenses  []models.License
	seoCounts map[int64]int
	nextID    int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{seoCounts: make(map[int64]int), nextID: 1}
}

func (s *fakeStore) ActiveLicense(_ context.Context, userID int64) (models.License, bool, error) {
	var latest models.License
	found := false
	for _, lic := range s.licenses {
		if lic.UserID != userID || !lic.IsActive {
			continue
		}
		if !found || lic.CreatedAt.After(latest.CreatedAt) {
			latest = lic
			found = true
		}
	}
	return latest, found, nil
}

func (s *fakeStore) InsertLicense(_ context.Context, userID int64, plan string, validUntil time.Time) (models.License, error) {
	lic := models.License{
		ID:         s.nextID,
		UserID:     userID,
		Plan:       plan,
		IsActive:   true,
		ValidUntil: &validUntil,
		CreatedAt:  time.Now().UTC(),
	}
	s.nextID++
	s.licenses = append(s.licenses, lic)
	return lic, nil
}

func (s *fakeStore) DeactivateUserLicenses(_ context.Context, userID int64) error {
	for i := range s.licenses {
		if s.licenses[i].UserID == userID {
			s.licenses[i].IsActive = false
		}
	}
	return nil
}

func (s *fakeStore) DeactivateLicense(_ context.Context, licenseID int64) error {
	for i := range s.licenses {
		if s.licenses[i].ID == licenseID {
			s.licenses[i].IsActive = false
		}
	}
	return nil
}

func (s *fakeStore) CountSeoAnalysesSince(_ context.Context, userID int64, _ time.Time) (int, error) {
	return s.seoCounts[userID], nil
}

func (s *fakeStore) activeCount(userID int64) int {
	n := 0
	for _, lic := range s.licenses {
		if lic.UserID == userID && lic.IsActive {
			n++
		}
	}
	return n
}

func newTestManager(store Store) *Manager {
	return NewManager(store, plans.Default())
}

func TestSequentialSubscriptionsKeepOneActive(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	ctx := context.Background()

	planIDs := []string{"basic", "pro", "basic", "enterprise", "pro"}
	var last models.License
	for _, planID := range planIDs {
		lic, err := m.CreateSubscription(ctx, 1, planID, models.BillingCycleMonthly)
		require.NoError(t, err)
		last = lic
	}

	assert.Equal(t, 1, store.activeCount(1))
	active, ok, err := store.ActiveLicense(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, last.ID, active.ID)
	assert.Equal(t, "pro", active.Plan)
}

func TestExpiryFallsBackToFree(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	lic, err := m.CreateSubscription(ctx, 7, "pro", models.BillingCycleMonthly)
	require.NoError(t, err)
	require.NotNil(t, lic.ValidUntil)
	assert.Equal(t, base.Add(30*24*time.Hour), lic.ValidUntil.UTC())

	status, err := m.Status(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "pro", status.Plan)
	assert.True(t, status.IsActive)

	// Advance past valid_until: next status read deactivates the row and
	// synthesizes free-tier status.
	m.now = func() time.Time { return base.Add(31 * 24 * time.Hour) }
	status, err = m.Status(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "free", status.Plan)
	assert.True(t, status.IsActive)
	assert.Nil(t, status.ValidUntil)
	assert.Equal(t, 0, store.activeCount(7))
}

func TestYearlyCycleExtendsValidity(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	lic, err := m.CreateSubscription(context.Background(), 2, "basic", models.BillingCycleYearly)
	require.NoError(t, err)
	assert.Equal(t, base.Add(365*24*time.Hour), lic.ValidUntil.UTC())
}

func TestUnknownBillingCycleDefaultsToMonthly(t *testing.T) {
	// Anything other than "yearly" silently becomes monthly. This is
	// deliberate, not an oversight; this test keeps it visible.
	store := newFakeStore()
	m := newTestManager(store)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }

	lic, err := m.CreateSubscription(context.Background(), 2, "basic", "weekly")
	require.NoError(t, err)
	assert.Equal(t, base.Add(30*24*time.Hour), lic.ValidUntil.UTC())
}

func TestUnknownPlanRejected(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)

	_, err := m.CreateSubscription(context.Background(), 3, "not-a-real-plan", models.BillingCycleMonthly)
	require.ErrorIs(t, err, ErrInvalidPlan)
	assert.Empty(t, store.licenses)
}

func TestFreeTierDefaultStatus(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)

	status, err := m.Status(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "free", status.Plan)
	assert.True(t, status.IsActive)
	assert.Nil(t, status.ValidUntil)

	free := plans.Default().Free()
	assert.Equal(t, free.Limits, status.Limits)
	assert.Equal(t, free.Features, status.Features)
}

func TestRetiredPlanFallsBackToFreeLimits(t *testing.T) {
	store := newFakeStore()
	catalog := plans.NewCatalog(
		plans.Plan{PlanID: plans.FreePlanID, Name: "Free", Limits: map[string]int{"seo_analyses_per_month": 3}},
	)
	m := NewManager(store, catalog)
	ctx := context.Background()

	validUntil := time.Now().UTC().Add(24 * time.Hour)
	_, err := store.InsertLicense(ctx, 9, "legacy-gold", validUntil)
	require.NoError(t, err)

	status, err := m.Status(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, "legacy-gold", status.Plan)
	assert.Equal(t, 3, status.Limits["seo_analyses_per_month"])
}

func TestUnlimitedSentinelShortCircuits(t *testing.T) {
	store := newFakeStore()
	store.seoCounts[5] = 100000
	m := newTestManager(store)
	ctx := context.Background()

	_, err := m.CreateSubscription(ctx, 5, "enterprise", models.BillingCycleMonthly)
	require.NoError(t, err)

	check, err := m.CheckUsage(ctx, 5, ResourceSeoAnalyses)
	require.NoError(t, err)
	assert.True(t, check.Allowed)
	assert.Equal(t, plans.Unlimited, check.Remaining)
	assert.Equal(t, plans.Unlimited, check.Limit)
	assert.Zero(t, check.CurrentUsage)
}

func TestCheckUsageArithmetic(t *testing.T) {
	store := newFakeStore()
	store.seoCounts[6] = 4
	m := newTestManager(store)

	// Free plan: 10 seo analyses per month.
	check, err := m.CheckUsage(context.Background(), 6, ResourceSeoAnalyses)
	require.NoError(t, err)
	assert.True(t, check.Allowed)
	assert.Equal(t, 10, check.Limit)
	assert.Equal(t, 4, check.CurrentUsage)
	assert.Equal(t, 6, check.Remaining)

	store.seoCounts[6] = 10
	check, err = m.CheckUsage(context.Background(), 6, ResourceSeoAnalyses)
	require.NoError(t, err)
	assert.False(t, check.Allowed)
	assert.Equal(t, 0, check.Remaining)

	store.seoCounts[6] = 25
	check, err = m.CheckUsage(context.Background(), 6, ResourceSeoAnalyses)
	require.NoError(t, err)
	assert.False(t, check.Allowed)
	assert.Equal(t, 0, check.Remaining, "remaining clamps at zero past the limit")
}

func TestKeywordResearchUsesDailyKey(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)

	// Free plan: keyword_research_per_day = 5, stand-in usage = 5.
	check, err := m.CheckUsage(context.Background(), 8, ResourceKeywordResearch)
	require.NoError(t, err)
	assert.Equal(t, 5, check.Limit)
	assert.False(t, check.Allowed)
}

func TestUnknownResourceDefaultsToZeroLimit(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)

	check, err := m.CheckUsage(context.Background(), 8, "backlink_audits")
	require.NoError(t, err)
	assert.False(t, check.Allowed)
	assert.Equal(t, 0, check.Limit)
}

func TestCheckFeature(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(store)
	ctx := context.Background()

	has, err := m.CheckFeature(ctx, 11, "Basic SEO analysis")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = m.CheckFeature(ctx, 11, "White-label reporting")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = m.CreateSubscription(ctx, 11, "pro", models.BillingCycleMonthly)
	require.NoError(t, err)

	has, err = m.CheckFeature(ctx, 11, "White-label reporting")
	require.NoError(t, err)
	assert.True(t, has)
}
