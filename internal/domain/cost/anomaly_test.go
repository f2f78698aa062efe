package cost

import (
	"math"
	"testing"
	"time"
)

func seriesOf(start time.Time, costs ...float64) []DailyBucket {
	buckets := make([]DailyBucket, len(costs))
	for i, c := range costs {
		buckets[i] = DailyBucket{
			Day:       start.AddDate(0, 0, i),
			CostMicro: FromUSD(c),
		}
	}
	return buckets
}

func TestDetectAnomaliesConstantSeries(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	series := seriesOf(start, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5)

	if got := DetectAnomalies(series, 2, 3); got != nil {
		t.Errorf("expected no anomalies in constant series, got %+v", got)
	}
}

func TestDetectAnomaliesSpike(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	series := seriesOf(start, 4, 5, 6, 4, 5, 6, 4, 5, 6, 50)

	got := DetectAnomalies(series, 2, 3)
	if len(got) != 1 {
		t.Fatalf("expected exactly one anomaly, got %d", len(got))
	}

	a := got[0]
	if a.Date != "2026-08-10" {
		t.Errorf("expected date 2026-08-10, got %s", a.Date)
	}
	if a.Cost != 50 {
		t.Errorf("expected cost 50, got %v", a.Cost)
	}
	if a.Expected != 5 {
		t.Errorf("expected baseline mean 5, got %v", a.Expected)
	}

	// Baseline without the spike is [4 5 6] repeated: mean 5, population
	// stddev sqrt(6/9).
	wantDev := 45 / math.Sqrt(6.0/9.0)
	if math.Abs(a.Deviation-wantDev) > 1e-9 {
		t.Errorf("expected deviation %v, got %v", wantDev, a.Deviation)
	}
	if a.Severity != SeverityCritical {
		t.Errorf("expected critical severity, got %s", a.Severity)
	}
}

func TestDetectAnomaliesMinSample(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	series := seriesOf(start, 5, 500)

	if got := DetectAnomalies(series, 2, 3); got != nil {
		t.Errorf("expected nil below minimum sample, got %+v", got)
	}
}

func TestDetectAnomaliesZeroVarianceBaseline(t *testing.T) {
	// A flat baseline has zero stddev; the floor keeps the spike's
	// deviation finite instead of dividing by zero.
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	series := seriesOf(start, 5, 5, 5, 5, 5, 5, 5, 5, 5, 50)

	got := DetectAnomalies(series, 2, 3)
	if len(got) != 1 {
		t.Fatalf("expected exactly one anomaly, got %d", len(got))
	}
	if math.Abs(got[0].Deviation-4500) > 1e-6 {
		t.Errorf("expected floored deviation 4500, got %v", got[0].Deviation)
	}
	if got[0].Severity != SeverityCritical {
		t.Errorf("expected critical severity, got %s", got[0].Severity)
	}
}

func TestDetectAnomaliesSubCentNoise(t *testing.T) {
	// 1.5 cents over a flat $5 baseline stays under mean + k*floor.
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	series := seriesOf(start, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5.015)

	if got := DetectAnomalies(series, 2, 3); got != nil {
		t.Errorf("expected sub-cent noise unflagged, got %+v", got)
	}
}

func TestDetectAnomaliesOrdering(t *testing.T) {
	// Two spikes over a near-zero baseline, larger one last in the
	// series. The result must order by descending deviation, not by day.
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	series := seriesOf(start, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 49, 50)

	got := DetectAnomalies(series, 2, 3)
	if len(got) != 2 {
		t.Fatalf("expected two anomalies, got %d", len(got))
	}
	if got[0].Date != "2026-08-10" || got[1].Date != "2026-08-09" {
		t.Errorf("expected order [2026-08-10 2026-08-09], got [%s %s]", got[0].Date, got[1].Date)
	}
	if math.Abs(got[0].Deviation) < math.Abs(got[1].Deviation) {
		t.Errorf("expected descending deviation, got %v then %v", got[0].Deviation, got[1].Deviation)
	}
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		deviation float64
		k         float64
		want      string
	}{
		{2.1, 2, SeverityModerate},
		{2.9, 2, SeverityModerate},
		{3.0, 2, SeverityHigh},
		{3.9, 2, SeverityHigh},
		{4.0, 2, SeverityCritical},
		{55, 2, SeverityCritical},
		{4.0, 3, SeverityModerate},
		{4.5, 3, SeverityHigh},
		{6.0, 3, SeverityCritical},
	}
	for _, tt := range tests {
		if got := severity(tt.deviation, tt.k); got != tt.want {
			t.Errorf("severity(%v, k=%v) = %s, want %s", tt.deviation, tt.k, got, tt.want)
		}
	}
}
