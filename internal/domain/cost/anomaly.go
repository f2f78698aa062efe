package cost

import (
	"math"
	"sort"
)

// Anomaly is a day whose cost statistically exceeds its leave-one-out
// baseline. Deviation is measured in baseline standard deviations.
type Anomaly struct {
	Date      string  `json:"date"`
	Cost      float64 `json:"cost"`
	Expected  float64 `json:"expectedCost"`
	Deviation float64 `json:"deviation"`
	Severity  string  `json:"severity"`
}

// Severity levels, scaled by the configured threshold multiplier k.
const (
	SeverityModerate = "moderate"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// stddevFloorUSD bounds the baseline deviation from below. A perfectly
// constant baseline would otherwise make any excess divide by zero; with
// the floor, sub-cent noise stays unflagged and real spikes keep a finite,
// sortable deviation.
const stddevFloorUSD = 0.01

// DetectAnomalies flags days whose cost exceeds mean + k*stddev, where the
// baseline mean and stddev are computed from the other days in the series
// (leave-one-out, so a spike cannot inflate its own baseline). Series with
// fewer than minSample days return nil: not enough data for a baseline
// beats a false positive. The result is ordered by descending |deviation|.
func DetectAnomalies(series []DailyBucket, k float64, minSample int) []Anomaly {
	if len(series) < minSample {
		return nil
	}

	var anomalies []Anomaly
	for i, b := range series {
		mean, stddev := baseline(series, i)
		if stddev < stddevFloorUSD {
			stddev = stddevFloorUSD
		}

		costUSD := b.CostMicro.USD()
		if costUSD <= mean+k*stddev {
			continue
		}

		dev := (costUSD - mean) / stddev
		anomalies = append(anomalies, Anomaly{
			Date:      DayOf(b.Day).Format("2006-01-02"),
			Cost:      costUSD,
			Expected:  mean,
			Deviation: dev,
			Severity:  severity(dev, k),
		})
	}

	sort.Slice(anomalies, func(i, j int) bool {
		return math.Abs(anomalies[i].Deviation) > math.Abs(anomalies[j].Deviation)
	})
	return anomalies
}

// baseline computes the mean and population standard deviation of the
// series with element skip excluded.
func baseline(series []DailyBucket, skip int) (mean, stddev float64) {
	n := len(series) - 1
	if n < 1 {
		return 0, 0
	}

	var sum float64
	for i, b := range series {
		if i == skip {
			continue
		}
		sum += b.CostMicro.USD()
	}
	mean = sum / float64(n)

	var sq float64
	for i, b := range series {
		if i == skip {
			continue
		}
		d := b.CostMicro.USD() - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(n))
}

// severity buckets a deviation relative to the flagging threshold k.
func severity(deviation, k float64) string {
	switch {
	case deviation >= 2*k:
		return SeverityCritical
	case deviation >= 1.5*k:
		return SeverityHigh
	default:
		return SeverityModerate
	}
}
