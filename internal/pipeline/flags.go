package pipeline

import "github.com/metalake/ads-core/internal/meta"

// BreakdownsFlag gates the segmented ad performance tables. It sits
// outside the dataset catalog because the produced table names depend on
// the configured dimension combinations.
const BreakdownsFlag = "ad_performance_breakdowns"

// Flags toggles dataset extraction per run, keyed by dataset name.
type Flags map[string]bool

// DefaultFlags enables the standard production datasets.
func DefaultFlags() Flags {
	return Flags{
		"ads":            true,
		"ad_creatives":   true,
		"ad_performance": true,
	}
}

// Enabled reports whether a dataset is switched on.
func (f Flags) Enabled(name string) bool { return f[name] }

// NeedsAccounts reports whether any enabled dataset consumes the
// ad-account roster. Recommendations walk the business directly, so a
// recommendations-only run skips the account fetch.
func (f Flags) NeedsAccounts() bool {
	for _, name := range meta.AccountDependentDatasets() {
		if f[name] {
			return true
		}
	}
	return f[BreakdownsFlag]
}

// Names returns the enabled datasets in extraction order.
func (f Flags) Names() []string {
	var out []string
	for _, name := range meta.TableOrder {
		if f[name] {
			out = append(out, name)
		}
	}
	if f[BreakdownsFlag] {
		out = append(out, BreakdownsFlag)
	}
	return out
}
