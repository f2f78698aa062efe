package pricing

import "time"

// Catalog returns the pricing rows seeded on first boot. Prices are
// micro-USD per 1000 tokens ($0.003/1K input = 3000 micro). Operators
// adjust rows over the API; the fallback tier is priced at the high end so
// unknown models over-estimate rather than under-report.
func Catalog() []Entry {
	now := time.Now().UTC()
	mk := func(model string, in, out int64) Entry {
		return Entry{Model: model, InputPer1KMicro: in, OutputPer1KMicro: out, UpdatedAt: now}
	}

	return []Entry{
		mk("gpt-4o", 2500, 10000),
		mk("gpt-4o-mini", 150, 600),
		mk("gpt-4.1", 2000, 8000),
		mk("claude-sonnet-4", 3000, 15000),
		mk("claude-haiku-3.5", 800, 4000),
		mk("claude-opus-4", 15000, 75000),
		mk("gemini-2.5-pro", 1250, 10000),
		mk("gemini-2.5-flash", 300, 2500),
		mk(FallbackModel, 15000, 75000),
	}
}
