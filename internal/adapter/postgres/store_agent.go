package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentdeck/agentdeck/internal/domain/agent"
)

func (s *Store) CreateAgent(ctx context.Context, a *agent.Agent) error {
	labelsJSON, err := json.Marshal(a.Labels)
	if err != nil {
		return fmt.Errorf("marshal labels: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO agents (id, name, kind, model, labels, last_seen, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.Name, a.Kind, a.Model, labelsJSON, nullTime(a.LastSeen), a.Version, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create agent: %w", err)
	}
	return nil
}

func (s *Store) GetAgent(ctx context.Context, id string) (*agent.Agent, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, kind, model, labels, last_seen, version, created_at, updated_at
		 FROM agents WHERE id = $1`, id)

	a, err := scanAgent(row)
	if err != nil {
		return nil, notFoundWrap(err, "get agent %s", id)
	}
	return &a, nil
}

func (s *Store) ListAgents(ctx context.Context) ([]agent.Agent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, kind, model, labels, last_seen, version, created_at, updated_at
		 FROM agents ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var agents []agent.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// TouchAgent records a heartbeat. An empty model leaves the stored model
// untouched.
func (s *Store) TouchAgent(ctx context.Context, id, model string, seenAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE agents
		 SET last_seen = $3,
		     model = CASE WHEN $2 = '' THEN model ELSE $2 END,
		     updated_at = $3
		 WHERE id = $1`,
		id, model, seenAt)
	return execExpectOne(tag, err, "touch agent %s", id)
}

func scanAgent(row scannable) (agent.Agent, error) {
	var a agent.Agent
	var labelsJSON []byte
	var lastSeen sql.NullTime
	err := row.Scan(&a.ID, &a.Name, &a.Kind, &a.Model, &labelsJSON, &lastSeen, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return a, err
	}
	if labelsJSON != nil {
		if err := json.Unmarshal(labelsJSON, &a.Labels); err != nil {
			return a, fmt.Errorf("unmarshal agent labels: %w", err)
		}
	}
	if lastSeen.Valid {
		a.LastSeen = lastSeen.Time.UTC()
	}
	return a, nil
}
