// Package cost implements the cost analytics core: pure cost calculation
// from token counts, usage aggregation, KPI derivation, budget forecasting,
// and anomaly detection over a per-day cost series.
//
// All internal arithmetic uses integer micro-USD so repeated aggregation
// cannot drift the way floating point does; conversion to displayable
// decimals happens only at the reporting boundary.
package cost

import "math"

// Micro is a monetary amount in micro-USD (1e-6 dollars).
type Micro int64

// microPerUSD is the fixed-point scale.
const microPerUSD = 1_000_000

// USD converts a micro amount to dollars for the reporting boundary.
func (m Micro) USD() float64 {
	return float64(m) / microPerUSD
}

// FromUSD converts dollars to the nearest micro-USD amount.
func FromUSD(v float64) Micro {
	return Micro(math.Round(v * microPerUSD))
}

// PerTokens prices count tokens at per1K micro-USD per 1000 tokens,
// rounding to the nearest micro.
func PerTokens(count int64, per1K Micro) Micro {
	if count <= 0 || per1K <= 0 {
		return 0
	}
	return Micro((count*int64(per1K) + 500) / 1000)
}
