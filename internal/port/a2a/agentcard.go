package a2a

// BuildAgentCard returns the static AgentCard for the AgentDeck service.
func BuildAgentCard(baseURL, version string) AgentCard {
	return AgentCard{
		Name:        "AgentDeck",
		Description: "Cost and token analytics over an AI agent workspace",
		URL:         baseURL,
		Version:     version,
		Skills: []Skill{
			{
				ID:          "cost-kpis",
				Name:        "Cost KPIs",
				Description: "Report today's spend, budget usage, month-end projection and anomalies",
				InputModes:  []string{"text"},
				OutputModes: []string{"text"},
			},
			{
				ID:          "cost-summary",
				Name:        "Cost Summary",
				Description: "Aggregate cost and token totals for an agent, a ticket or a time window",
				InputModes:  []string{"text"},
				OutputModes: []string{"text"},
			},
			{
				ID:          "anomalies",
				Name:        "Spend Anomalies",
				Description: "List days whose spend deviates from the trailing baseline",
				InputModes:  []string{"text"},
				OutputModes: []string{"text"},
			},
		},
		Capabilities: struct {
			Streaming bool `json:"streaming"`
		}{Streaming: false},
	}
}
