// Package plans holds the static subscription plan catalog. The catalog is
// built once at startup and injected into the license manager; it is never
// mutated afterwards.
package plans

// Unlimited is the sentinel quota meaning no limit for a resource type.
const Unlimited = -1

// FreePlanID is the plan every user without a license falls back to.
const FreePlanID = "free"

type Plan struct {
	PlanID       string         `json:"plan_id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	PriceMonthly float64        `json:"price_monthly"`
	PriceYearly  float64        `json:"price_yearly"`
	Features     []string       `json:"features"`
	Limits       map[string]int `json:"limits"`
	IsPopular    bool           `json:"is_popular"`
}

// Catalog is an immutable, ordered set of plans keyed by plan id.
type Catalog struct {
	plans []Plan
	index map[string]int
}

func NewCatalog(plans ...Plan) *Catalog {
	c := &Catalog{plans: plans, index: make(map[string]int, len(plans))}
	for i, p := range plans {
		c.index[p.PlanID] = i
	}
	return c
}

func (c *Catalog) Get(planID string) (Plan, bool) {
	i, ok := c.index[planID]
	if !ok {
		return Plan{}, false
	}
	return c.plans[i], true
}

// List returns the plans in catalog-definition order.
func (c *Catalog) List() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

// Free returns the fallback plan. Every catalog must contain FreePlanID.
func (c *Catalog) Free() Plan {
	p, _ := c.Get(FreePlanID)
	return p
}

// Default is the production catalog.
func Default() *Catalog {
	return NewCatalog(
		Plan{
			PlanID:       "free",
			Name:         "Free Plan",
			Description:  "Perfect for trying out our SEO tools",
			PriceMonthly: 0.0,
			PriceYearly:  0.0,
			Features: []string{
				"Basic SEO analysis",
				"Keyword research (5 keywords/day)",
				"Basic reporting",
				"Email support",
			},
			Limits: map[string]int{
				"websites":                      1,
				"seo_analyses_per_month":        10,
				"keyword_research_per_day":      5,
				"competitor_analyses_per_month": 0,
				"api_calls_per_day":             50,
			},
		},
		Plan{
			PlanID:       "basic",
			Name:         "Basic Plan",
			Description:  "Great for small businesses and freelancers",
			PriceMonthly: 29.99,
			PriceYearly:  299.99,
			Features: []string{
				"Advanced SEO analysis",
				"Unlimited keyword research",
				"Competitor analysis (5/month)",
				"Custom reporting",
				"Priority email support",
				"SEO recommendations",
			},
			Limits: map[string]int{
				"websites":                      5,
				"seo_analyses_per_month":        100,
				"keyword_research_per_day":      Unlimited,
				"competitor_analyses_per_month": 5,
				"api_calls_per_day":             500,
			},
		},
		Plan{
			PlanID:       "pro",
			Name:         "Pro Plan",
			Description:  "Perfect for agencies and growing businesses",
			PriceMonthly: 79.99,
			PriceYearly:  799.99,
			Features: []string{
				"All Basic features",
				"White-label reporting",
				"Advanced competitor analysis",
				"Backlink tracking",
				"API access",
				"Custom integrations",
				"Phone support",
				"Team collaboration",
			},
			Limits: map[string]int{
				"websites":                      25,
				"seo_analyses_per_month":        500,
				"keyword_research_per_day":      Unlimited,
				"competitor_analyses_per_month": 25,
				"api_calls_per_day":             2000,
			},
			IsPopular: true,
		},
		Plan{
			PlanID:       "enterprise",
			Name:         "Enterprise Plan",
			Description:  "For large organizations with custom needs",
			PriceMonthly: 199.99,
			PriceYearly:  1999.99,
			Features: []string{
				"All Pro features",
				"Unlimited everything",
				"Custom reporting dashboard",
				"Dedicated account manager",
				"SLA guarantee",
				"Custom integrations",
				"On-premise deployment option",
				"Advanced analytics",
			},
			Limits: map[string]int{
				"websites":                      Unlimited,
				"seo_analyses_per_month":        Unlimited,
				"keyword_research_per_day":      Unlimited,
				"competitor_analyses_per_month": Unlimited,
				"api_calls_per_day":             Unlimited,
			},
		},
	)
}
