package cost

// Subtotal is one keyed slice of an aggregation, per agent or per model.
type Subtotal struct {
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	TotalTokens  int64   `json:"total_tokens"`
	CostMicro    Micro   `json:"cost_usd_micro"`
	CostUSD      float64 `json:"cost_usd"`
	Activities   int64   `json:"activities"`
}

// Totals is the result of reducing a set of activities scoped by ticket,
// agent, and/or time window. Skipped counts malformed records excluded
// from the reduction; they never abort it.
type Totals struct {
	InputTokens  int64                `json:"input_tokens"`
	OutputTokens int64                `json:"output_tokens"`
	TotalTokens  int64                `json:"total_tokens"`
	CostMicro    Micro                `json:"cost_usd_micro"`
	CostUSD      float64              `json:"cost_usd"`
	Activities   int64                `json:"activities"`
	Skipped      int64                `json:"skipped"`
	ByAgent      map[string]*Subtotal `json:"by_agent"`
	ByModel      map[string]*Subtotal `json:"by_model"`
}

// NewTotals returns an empty Totals ready to accumulate.
func NewTotals() *Totals {
	return &Totals{
		ByAgent: make(map[string]*Subtotal),
		ByModel: make(map[string]*Subtotal),
	}
}

// Accumulate folds one record into the totals.
func (t *Totals) Accumulate(agentID, model string, inputTokens, outputTokens int64, costMicro Micro) {
	t.InputTokens += inputTokens
	t.OutputTokens += outputTokens
	t.TotalTokens += inputTokens + outputTokens
	t.CostMicro += costMicro
	t.Activities++

	for _, st := range []*Subtotal{slot(t.ByAgent, agentID), slot(t.ByModel, model)} {
		st.InputTokens += inputTokens
		st.OutputTokens += outputTokens
		st.TotalTokens += inputTokens + outputTokens
		st.CostMicro += costMicro
		st.Activities++
	}
}

func slot(m map[string]*Subtotal, key string) *Subtotal {
	st, ok := m[key]
	if !ok {
		st = &Subtotal{}
		m[key] = st
	}
	return st
}

// Skip records one malformed record excluded from the reduction.
func (t *Totals) Skip() {
	t.Skipped++
}

// Finalize fills the display-dollar fields from the micro accumulators.
// Call once, after the last Accumulate.
func (t *Totals) Finalize() *Totals {
	t.CostUSD = t.CostMicro.USD()
	for _, st := range t.ByAgent {
		st.CostUSD = st.CostMicro.USD()
	}
	for _, st := range t.ByModel {
		st.CostUSD = st.CostMicro.USD()
	}
	return t
}
