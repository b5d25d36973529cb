package plans

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogOrder(t *testing.T) {
	catalog := Default()
	list := catalog.List()
	require.Len(t, list, 4)

	ids := []string{list[0].PlanID, list[1].PlanID, list[2].PlanID, list[3].PlanID}
	assert.Equal(t, []string{"free", "basic", "pro", "enterprise"}, ids)
}

func TestCatalogGet(t *testing.T) {
	catalog := Default()

	pro, ok := catalog.Get("pro")
	require.True(t, ok)
	assert.Equal(t, "Pro Plan", pro.Name)
	assert.True(t, pro.IsPopular)

	_, ok = catalog.Get("platinum")
	assert.False(t, ok)
}

func TestFreeFallback(t *testing.T) {
	catalog := Default()
	free := catalog.Free()
	assert.Equal(t, FreePlanID, free.PlanID)
	assert.Zero(t, free.PriceMonthly)
	assert.Equal(t, 10, free.Limits["seo_analyses_per_month"])
}

func TestUnlimitedSentinels(t *testing.T) {
	catalog := Default()
	enterprise, ok := catalog.Get("enterprise")
	require.True(t, ok)
	for key, limit := range enterprise.Limits {
		assert.Equal(t, Unlimited, limit, "limit %s should be unlimited", key)
	}

	basic, ok := catalog.Get("basic")
	require.True(t, ok)
	assert.Equal(t, Unlimited, basic.Limits["keyword_research_per_day"])
}

func TestListReturnsCopy(t *testing.T) {
	catalog := Default()
	list := catalog.List()
	list[0] = Plan{PlanID: "mutated"}

	free, ok := catalog.Get("free")
	require.True(t, ok)
	assert.Equal(t, "free", free.PlanID)
}
