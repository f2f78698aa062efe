package cost

import "time"

// The KPI payload is the dashboard contract. Field names follow the wire
// format consumed by the dashboard, not the snake_case used elsewhere.

// TodayStats aggregates the current UTC calendar day.
type TodayStats struct {
	Cost       float64 `json:"cost"`
	Tokens     int64   `json:"tokens"`
	Activities int64   `json:"activities"`
	Agents     int64   `json:"agents"`
}

// BudgetStatus reports month-to-date spend against the configured monthly
// budget. Percentage is clamped to [0, 100]; overage shows up as a negative
// Remaining instead.
type BudgetStatus struct {
	Used       float64 `json:"used"`
	Total      float64 `json:"total"`
	Percentage float64 `json:"percentage"`
	Remaining  float64 `json:"remaining"`
}

// Projection extrapolates the trailing daily mean to end of month.
// RecommendedDailyBudget is nil when no budget is configured: "no spend
// cap" must stay distinguishable from "cap exhausted".
type Projection struct {
	Daily                  float64  `json:"daily"`
	Monthly                float64  `json:"monthly"`
	AtRisk                 bool     `json:"atRisk"`
	RecommendedDailyBudget *float64 `json:"recommendedDailyBudget"`
}

// Derived holds headline ratios over the current day.
type Derived struct {
	AvgCostPerAgent      float64 `json:"avgCostPerAgent"`
	AvgTokensPerActivity float64 `json:"avgTokensPerActivity"`
	CostPer1KTokens      float64 `json:"costPer1KTokens"`
}

// KPIs is the full reporting payload. Sections are computed independently;
// a section that failed is nil rather than failing the whole payload.
type KPIs struct {
	Today        *TodayStats   `json:"today"`
	Budget       *BudgetStatus `json:"budget"`
	Projected    *Projection   `json:"projected"`
	Metrics      *Derived      `json:"metrics"`
	Anomalies    []Anomaly     `json:"anomalies"`
	AnomalyCount int           `json:"anomalyCount"`
	Timestamp    time.Time     `json:"timestamp"`
}

// Forecast is the budget forecaster's verdict. It reuses the same trailing
// projection as the KPI payload, never a second estimator.
type Forecast struct {
	AtRisk                 bool     `json:"atRisk"`
	ProjectedDaily         float64  `json:"projectedDaily"`
	ProjectedMonthly       float64  `json:"projectedMonthly"`
	RecommendedDailyBudget *float64 `json:"recommendedDailyBudget"`
	Configured             bool     `json:"configured"`
}

// BudgetUsage derives the budget section from month-to-date spend and the
// configured total. A zero total reports zero percentage, not a division
// error.
func BudgetUsage(used, total Micro) BudgetStatus {
	b := BudgetStatus{
		Used:      used.USD(),
		Total:     total.USD(),
		Remaining: (total - used).USD(),
	}
	if total > 0 {
		b.Percentage = clamp(used.USD()/total.USD()*100, 0, 100)
	}
	return b
}

// TrailingDailyMean computes the mean daily cost over the trailing window
// ending on today's UTC day. Calendar days with no activity count as zero.
// When history is shorter than the window, the divisor shrinks to the days
// since the first recorded activity, with a minimum of one day.
func TrailingDailyMean(buckets []DailyBucket, today time.Time, windowDays int, firstActivity time.Time) float64 {
	day := DayOf(today)
	windowStart := day.AddDate(0, 0, -(windowDays - 1))

	start := windowStart
	if !firstActivity.IsZero() {
		if first := DayOf(firstActivity); first.After(windowStart) {
			start = first
		}
	}

	days := int(day.Sub(start).Hours()/24) + 1
	if days < 1 {
		days = 1
	}

	var sum Micro
	for _, b := range buckets {
		d := DayOf(b.Day)
		if d.Before(start) || d.After(day) {
			continue
		}
		sum += b.CostMicro
	}

	return sum.USD() / float64(days)
}

// ProjectMonthly extrapolates a daily mean across the current UTC month.
func ProjectMonthly(daily float64, today time.Time) float64 {
	return daily * float64(DaysInMonth(today))
}

// RecommendDailyBudget splits the unspent budget over the days left in the
// month, today included. Overspent budgets recommend zero, not a negative.
func RecommendDailyBudget(used, total Micro, today time.Time) float64 {
	remaining := total - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining.USD() / float64(RemainingDaysInMonth(today))
}

// BuildForecast combines the shared projection with the budget config.
// An unconfigured (zero) budget is never at risk and carries a nil
// recommendation.
func BuildForecast(daily, monthly float64, used, total Micro, today time.Time) Forecast {
	f := Forecast{
		ProjectedDaily:   daily,
		ProjectedMonthly: monthly,
	}
	if total <= 0 {
		return f
	}

	f.Configured = true
	f.AtRisk = monthly > total.USD()
	rec := RecommendDailyBudget(used, total, today)
	f.RecommendedDailyBudget = &rec
	return f
}

// DeriveMetrics computes the headline ratios from today's aggregate.
// Zero denominators yield zero, never NaN.
func DeriveMetrics(today TodayStats) Derived {
	var d Derived
	if today.Agents > 0 {
		d.AvgCostPerAgent = today.Cost / float64(today.Agents)
	}
	if today.Activities > 0 {
		d.AvgTokensPerActivity = float64(today.Tokens) / float64(today.Activities)
	}
	if today.Tokens > 0 {
		d.CostPer1KTokens = today.Cost / (float64(today.Tokens) / 1000)
	}
	return d
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
