package engine

import (
	"time"

	"github.com/qepting91/hotfeed/internal/domain"
)

// MaxPage is the highest page index any provider will serve.
const MaxPage = 100

// PolicyTable maps a period key to its fetch strategy.
type PolicyTable map[string]domain.Policy

// Lookup returns the policy for period, falling back to the week policy.
func (t PolicyTable) Lookup(period string) domain.Policy {
	if p, ok := t[period]; ok {
		return p
	}
	return t[domain.PeriodWeek]
}

// NewPolicyTable builds the shared page/TTL schedule with provider-specific
// score floors, given in period order (1day, week, month, year, all).
func NewPolicyTable(floors [5]int) PolicyTable {
	pages := [5]int{1, 3, 5, 7, 10}
	ttls := [5]time.Duration{15 * time.Minute, 30 * time.Minute, 60 * time.Minute, 120 * time.Minute, 120 * time.Minute}

	t := make(PolicyTable, len(domain.Periods))
	for i, period := range domain.Periods {
		t[period] = domain.Policy{Pages: pages[i], MinScore: floors[i], TTL: ttls[i]}
	}
	return t
}

// Merge returns a copy of t with the set fields of overrides applied.
func (t PolicyTable) Merge(overrides map[string]domain.PolicyOverride) PolicyTable {
	out := make(PolicyTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	for k, o := range overrides {
		p := out[k]
		if o.Pages != nil {
			p.Pages = *o.Pages
		}
		if o.MinScore != nil {
			p.MinScore = *o.MinScore
		}
		if o.TTL != nil {
			p.TTL = *o.TTL
		}
		out[k] = p
	}
	return out
}
