package classify

import "lockcheck/internal/core"

// AggregateRisk reduces a unit's impacts to one risk level: the maximum
// of the per-impact levels, LOW when there are none. The fatal
// transaction/CONCURRENTLY conflict is reported separately and never
// folded into this scale.
func AggregateRisk(impacts []core.TableImpact) core.RiskLevel {
	risk := core.RiskLow
	for _, imp := range impacts {
		if r := impactRisk(imp); r > risk {
			risk = r
		}
	}
	return risk
}

func impactRisk(imp core.TableImpact) core.RiskLevel {
	switch {
	case imp.Duration == core.DurationRewrite:
		return core.RiskCritical
	case imp.Lock == core.LockShareRowExclusive || imp.Lock == core.LockShare:
		return core.RiskHigh
	case imp.Lock == core.LockAccessExclusive && imp.Duration != core.DurationInstant:
		// Full lock held for a validation scan: write-blocking plus
		// read-blocking for the scan makes this at least HIGH.
		return core.RiskHigh
	case imp.Lock == core.LockAccessExclusive:
		return core.RiskMedium
	default:
		return core.RiskLow
	}
}
