package service

import (
	"context"
	"testing"
	"time"

	"github.com/agentdeck/agentdeck/internal/config"
	"github.com/agentdeck/agentdeck/internal/domain/activity"
	"github.com/agentdeck/agentdeck/internal/domain/cost"
)

func microPtr(v int64) *int64 { return &v }

func newAggregator(t *testing.T, store *mockStore, cfg *config.Analytics) *AggregatorService {
	t.Helper()
	pricingSvc := NewPricingService(store, &mockCache{}, &mockBroadcaster{}, time.Minute)
	return NewAggregatorService(store, pricingSvc, cfg)
}

func TestAggregatorSummarize(t *testing.T) {
	now := time.Now().UTC()
	store := &mockStore{
		prices: testPricingRows(),
		activities: []activity.Activity{
			{ID: "a1", AgentID: "ag-1", Model: "gpt-4o", InputTokens: 1000, OutputTokens: 500, CostMicro: microPtr(7500), CreatedAt: now},
			{ID: "a2", AgentID: "ag-1", Model: "gpt-4o-mini", InputTokens: 200, OutputTokens: 100, CostMicro: microPtr(90), CreatedAt: now},
			{ID: "a3", AgentID: "ag-2", Model: "gpt-4o", InputTokens: 400, OutputTokens: 400, CostMicro: microPtr(5000), CreatedAt: now},
		},
	}
	svc := newAggregator(t, store, testAnalytics())

	totals, err := svc.Summarize(context.Background(), activity.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totals.Activities != 3 {
		t.Fatalf("expected 3 activities, got %d", totals.Activities)
	}
	if totals.CostMicro != 12590 {
		t.Fatalf("expected 12590 micro total, got %d", totals.CostMicro)
	}
	if totals.CostUSD != 0.01259 {
		t.Fatalf("expected finalized dollars 0.01259, got %v", totals.CostUSD)
	}
	if totals.TotalTokens != 2600 {
		t.Fatalf("expected 2600 tokens, got %d", totals.TotalTokens)
	}

	if len(totals.ByAgent) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(totals.ByAgent))
	}
	if totals.ByAgent["ag-1"].CostMicro != 7590 {
		t.Fatalf("expected ag-1 at 7590 micro, got %d", totals.ByAgent["ag-1"].CostMicro)
	}
	if len(totals.ByModel) != 2 {
		t.Fatalf("expected 2 models, got %d", len(totals.ByModel))
	}
	if totals.ByModel["gpt-4o"].Activities != 2 {
		t.Fatalf("expected 2 gpt-4o activities, got %d", totals.ByModel["gpt-4o"].Activities)
	}
}

func TestAggregatorSummarizePagesThroughRecords(t *testing.T) {
	now := time.Now().UTC()
	store := &mockStore{prices: testPricingRows()}
	// Three pages: two full plus a remainder.
	for i := 0; i < aggregatePageSize*2+17; i++ {
		store.activities = append(store.activities, activity.Activity{
			ID: "a", AgentID: "ag-1", Model: "gpt-4o", CostMicro: microPtr(1000), CreatedAt: now,
		})
	}
	svc := newAggregator(t, store, testAnalytics())

	totals, err := svc.Summarize(context.Background(), activity.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := int64(aggregatePageSize*2 + 17)
	if totals.Activities != want {
		t.Fatalf("expected %d activities across pages, got %d", want, totals.Activities)
	}
	if totals.CostMicro != cost.Micro(want*1000) {
		t.Fatalf("expected %d micro, got %d", want*1000, totals.CostMicro)
	}
}

func TestAggregatorSummarizeSkipsMalformed(t *testing.T) {
	now := time.Now().UTC()
	store := &mockStore{
		prices: testPricingRows(),
		activities: []activity.Activity{
			{ID: "ok", AgentID: "ag-1", Model: "gpt-4o", CostMicro: microPtr(100), CreatedAt: now},
			{ID: "no-agent", Model: "gpt-4o", CostMicro: microPtr(100), CreatedAt: now},
			{ID: "negative", AgentID: "ag-1", Model: "gpt-4o", InputTokens: -5, CreatedAt: now},
		},
	}
	svc := newAggregator(t, store, testAnalytics())

	totals, err := svc.Summarize(context.Background(), activity.Filter{})
	if err != nil {
		t.Fatalf("malformed records must not abort the reduction: %v", err)
	}
	if totals.Activities != 1 {
		t.Fatalf("expected 1 accumulated activity, got %d", totals.Activities)
	}
	if totals.Skipped != 2 {
		t.Fatalf("expected 2 skipped records, got %d", totals.Skipped)
	}
}

func TestAggregatorCostSource(t *testing.T) {
	now := time.Now().UTC()
	// Stored cost disagrees with what the current table would price.
	rows := []activity.Activity{
		{ID: "a1", AgentID: "ag-1", Model: "gpt-4o", InputTokens: 1000, OutputTokens: 500, CostMicro: microPtr(999_999), CreatedAt: now},
	}

	stored := newAggregator(t, &mockStore{prices: testPricingRows(), activities: rows}, testAnalytics())
	totals, err := stored.Summarize(context.Background(), activity.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totals.CostMicro != 999_999 {
		t.Fatalf("stored source must trust the captured cost, got %d", totals.CostMicro)
	}

	cfg := testAnalytics()
	cfg.CostSource = config.CostSourceRecompute
	recompute := newAggregator(t, &mockStore{prices: testPricingRows(), activities: rows}, cfg)
	totals, err = recompute.Summarize(context.Background(), activity.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totals.CostMicro != 7500 {
		t.Fatalf("recompute source must re-price from tokens, got %d", totals.CostMicro)
	}
}

func TestAggregatorCostSourceStoredDerivesWhenAbsent(t *testing.T) {
	now := time.Now().UTC()
	store := &mockStore{
		prices: testPricingRows(),
		activities: []activity.Activity{
			{ID: "a1", AgentID: "ag-1", Model: "gpt-4o", InputTokens: 1000, OutputTokens: 500, CreatedAt: now},
		},
	}
	svc := newAggregator(t, store, testAnalytics())

	totals, err := svc.Summarize(context.Background(), activity.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totals.CostMicro != 7500 {
		t.Fatalf("a record without stored cost must be priced from tokens, got %d", totals.CostMicro)
	}
}

func TestAggregatorMonthSpend(t *testing.T) {
	now := time.Now().UTC()
	monthStart, _ := cost.MonthBounds(now)
	today := cost.DayOf(now)
	store := &mockStore{
		buckets: []cost.DailyBucket{
			{Day: monthStart, CostMicro: 100_000},
			{Day: today, CostMicro: 250_000},
			{Day: monthStart.AddDate(0, -1, 0), CostMicro: 999_000},
		},
	}
	svc := newAggregator(t, store, testAnalytics())

	sum, err := svc.MonthSpend(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum != 350_000 {
		t.Fatalf("expected 350000 micro for the current month, got %d", sum)
	}
}

func TestAggregatorSeries(t *testing.T) {
	today := cost.DayOf(time.Now().UTC())
	store := &mockStore{}
	for i := 0; i < 10; i++ {
		store.buckets = append(store.buckets, cost.DailyBucket{
			Day:       today.AddDate(0, 0, -i),
			CostMicro: cost.Micro(1000 * (i + 1)),
		})
	}
	svc := newAggregator(t, store, testAnalytics())

	series, err := svc.Series(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(series))
	}
	for _, b := range series {
		if b.Day.Before(today.AddDate(0, 0, -6)) || b.Day.After(today) {
			t.Fatalf("bucket %v outside the trailing window", b.Day)
		}
	}
}

func TestScopeOf(t *testing.T) {
	now := time.Now().UTC()
	cases := []struct {
		filter activity.Filter
		want   string
	}{
		{activity.Filter{TicketID: "tk-1"}, "ticket"},
		{activity.Filter{AgentID: "ag-1"}, "agent"},
		{activity.Filter{TicketID: "tk-1", AgentID: "ag-1"}, "ticket"},
		{activity.Filter{Start: now}, "window"},
		{activity.Filter{}, "all"},
	}
	for _, tc := range cases {
		if got := scopeOf(tc.filter); got != tc.want {
			t.Fatalf("scopeOf(%+v) = %q, want %q", tc.filter, got, tc.want)
		}
	}
}
