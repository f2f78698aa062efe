package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	adotel "github.com/agentdeck/agentdeck/internal/adapter/otel"
	"github.com/agentdeck/agentdeck/internal/adapter/ws"
	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/domain/cost"
	"github.com/agentdeck/agentdeck/internal/port/broadcast"
)

// defaultAnomalyWindowDays is the detection window applied when the caller
// does not name one.
const defaultAnomalyWindowDays = 30

// AnomalyService detects days whose spend statistically exceeds their
// baseline. Detection itself is a pure query; the periodic sweep is what
// announces newly flagged days to dashboards.
type AnomalyService struct {
	agg     *AggregatorService
	hub     broadcast.Broadcaster
	metrics *adotel.Metrics
	cfg     *config.Analytics

	mu        sync.Mutex
	announced map[string]string // date -> severity already broadcast
}

// NewAnomalyService creates a new AnomalyService.
func NewAnomalyService(agg *AggregatorService, hub broadcast.Broadcaster, metrics *adotel.Metrics, cfg *config.Analytics) *AnomalyService {
	return &AnomalyService{
		agg:       agg,
		hub:       hub,
		metrics:   metrics,
		cfg:       cfg,
		announced: make(map[string]string),
	}
}

// Detect flags anomalous days within the trailing window of the given
// length, ordered by descending deviation. days <= 0 applies the default
// window; windows beyond the configured maximum are rejected, not clamped.
func (s *AnomalyService) Detect(ctx context.Context, days int) ([]cost.Anomaly, error) {
	if days <= 0 {
		days = defaultAnomalyWindowDays
	}
	if days > s.cfg.AnomalyMaxWindowDays {
		return nil, fmt.Errorf("window of %d days exceeds the %d day maximum: %w",
			days, s.cfg.AnomalyMaxWindowDays, domain.ErrRange)
	}

	series, err := s.agg.Series(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("list daily buckets: %w", err)
	}

	return cost.DetectAnomalies(series, s.cfg.AnomalyK, s.cfg.AnomalyMinSample), nil
}

// StartSweep periodically re-runs detection and announces days not yet
// broadcast. It stops when ctx is cancelled.
func (s *AnomalyService) StartSweep(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *AnomalyService) sweep(ctx context.Context) {
	anomalies, err := s.Detect(ctx, 0)
	if err != nil {
		slog.Warn("anomaly sweep failed", "error", err)
		return
	}

	windowStart := cost.DayOf(time.Now().UTC()).
		AddDate(0, 0, -(defaultAnomalyWindowDays - 1)).
		Format("2006-01-02")
	s.prune(windowStart)

	for _, a := range anomalies {
		if !s.announce(a) {
			continue
		}
		s.metrics.AnomaliesDetected.Add(ctx, 1, metric.WithAttributes(
			attribute.String("severity", a.Severity),
		))
		s.hub.BroadcastEvent(ctx, ws.EventAnomalyDetected, ws.AnomalyDetectedEvent{
			Date:      a.Date,
			CostUSD:   a.Cost,
			Expected:  a.Expected,
			Deviation: a.Deviation,
			Severity:  a.Severity,
		})
		slog.Info("spend anomaly detected",
			"date", a.Date,
			"cost_usd", a.Cost,
			"expected_usd", a.Expected,
			"severity", a.Severity,
		)
	}
}

// announce reports whether this day is new or has escalated since its last
// broadcast.
func (s *AnomalyService) announce(a cost.Anomaly) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.announced[a.Date]; ok && prev == a.Severity {
		return false
	}
	s.announced[a.Date] = a.Severity
	return true
}

// prune drops announcements that have aged out of the detection window.
// Dates are ISO formatted, so string comparison orders them correctly.
func (s *AnomalyService) prune(windowStart string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for date := range s.announced {
		if date < windowStart {
			delete(s.announced, date)
		}
	}
}
