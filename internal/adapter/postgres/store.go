package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentdeck/agentdeck/internal/domain/activity"
	"github.com/agentdeck/agentdeck/internal/domain/cost"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// dateArg formats a day boundary as an ISO date string. DATE parameters
// are bound as text so the session time zone never shifts day boundaries.
func dateArg(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// --- Activities ---

func (s *Store) CreateActivity(ctx context.Context, a *activity.Activity) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO activities (id, agent_id, ticket_id, model, input_tokens, output_tokens, cost_micro, price_estimated, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.AgentID, nullIfEmpty(a.TicketID), a.Model, a.InputTokens, a.OutputTokens, a.CostMicro, a.PriceEstimated, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

func (s *Store) GetActivity(ctx context.Context, id string) (*activity.Activity, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, agent_id, COALESCE(ticket_id, ''), model, input_tokens, output_tokens, cost_micro, price_estimated, created_at
		 FROM activities WHERE id = $1`, id)

	a, err := scanActivity(row)
	if err != nil {
		return nil, notFoundWrap(err, "get activity %s", id)
	}
	return &a, nil
}

func (s *Store) ListActivities(ctx context.Context, f activity.Filter) ([]activity.Activity, error) {
	q := `SELECT id, agent_id, COALESCE(ticket_id, ''), model, input_tokens, output_tokens, cost_micro, price_estimated, created_at
	      FROM activities`

	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.TicketID != "" {
		conds = append(conds, "ticket_id = "+arg(f.TicketID))
	}
	if f.AgentID != "" {
		conds = append(conds, "agent_id = "+arg(f.AgentID))
	}
	if !f.Start.IsZero() {
		conds = append(conds, "created_at >= "+arg(f.Start))
	}
	if !f.End.IsZero() {
		conds = append(conds, "created_at <= "+arg(f.End))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	// Tie-break on id so paging with equal timestamps stays stable.
	q += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		q += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		q += " OFFSET " + arg(f.Offset)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var activities []activity.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (s *Store) FirstActivityAt(ctx context.Context) (time.Time, error) {
	var first *time.Time
	err := s.pool.QueryRow(ctx, `SELECT MIN(created_at) FROM activities`).Scan(&first)
	if err != nil {
		return time.Time{}, fmt.Errorf("first activity at: %w", err)
	}
	if first == nil {
		// No activities yet; the zero time is the documented sentinel.
		return time.Time{}, nil
	}
	return first.UTC(), nil
}

// --- Daily buckets ---

// ApplyActivity folds one activity into its day's bucket exactly once.
// The applied_activities row is the dedup ledger: on conflict the record
// was folded before and the whole transaction is abandoned.
func (s *Store) ApplyActivity(ctx context.Context, a *activity.Activity) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	tag, err := tx.Exec(ctx,
		`INSERT INTO applied_activities (activity_id) VALUES ($1) ON CONFLICT DO NOTHING`, a.ID)
	if err != nil {
		return false, fmt.Errorf("mark applied %s: %w", a.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	var costMicro int64
	if a.CostMicro != nil {
		costMicro = *a.CostMicro
	}
	day := dateArg(cost.DayOf(a.CreatedAt))

	_, err = tx.Exec(ctx,
		`INSERT INTO daily_buckets (day, cost_micro, tokens, activities, agents)
		 VALUES ($1, $2, $3, 1, 0)
		 ON CONFLICT (day) DO UPDATE SET
		   cost_micro = daily_buckets.cost_micro + EXCLUDED.cost_micro,
		   tokens = daily_buckets.tokens + EXCLUDED.tokens,
		   activities = daily_buckets.activities + 1`,
		day, costMicro, a.TotalTokens())
	if err != nil {
		return false, fmt.Errorf("fold bucket %s: %w", day, err)
	}

	// First sighting of this agent on this day bumps the distinct count.
	tag, err = tx.Exec(ctx,
		`INSERT INTO bucket_agents (day, agent_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		day, a.AgentID)
	if err != nil {
		return false, fmt.Errorf("record bucket agent: %w", err)
	}
	if tag.RowsAffected() > 0 {
		if _, err := tx.Exec(ctx,
			`UPDATE daily_buckets SET agents = agents + 1 WHERE day = $1`, day); err != nil {
			return false, fmt.Errorf("bump bucket agents: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit fold: %w", err)
	}
	return true, nil
}

func (s *Store) ListDailyBuckets(ctx context.Context, start, end time.Time) ([]cost.DailyBucket, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT day, cost_micro, tokens, activities, agents
		 FROM daily_buckets WHERE day >= $1 AND day < $2 ORDER BY day`,
		dateArg(start), dateArg(end))
	if err != nil {
		return nil, fmt.Errorf("list daily buckets: %w", err)
	}
	defer rows.Close()

	return collectBuckets(rows)
}

// AggregateDaily recomputes per-day rollups straight from the record set,
// bypassing the materialized buckets.
func (s *Store) AggregateDaily(ctx context.Context, start, end time.Time) ([]cost.DailyBucket, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT (created_at AT TIME ZONE 'UTC')::date AS day,
		        SUM(COALESCE(cost_micro, 0)),
		        SUM(input_tokens + output_tokens),
		        COUNT(*),
		        COUNT(DISTINCT agent_id)
		 FROM activities
		 WHERE created_at >= $1 AND created_at < $2
		 GROUP BY 1 ORDER BY 1`, start, end)
	if err != nil {
		return nil, fmt.Errorf("aggregate daily: %w", err)
	}
	defer rows.Close()

	return collectBuckets(rows)
}

// RebuildDailyBuckets drops every bucket and refolds the whole record set.
// Returns the number of activities folded.
func (s *Store) RebuildDailyBuckets(ctx context.Context) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx, `TRUNCATE daily_buckets, bucket_agents, applied_activities`); err != nil {
		return 0, fmt.Errorf("truncate buckets: %w", err)
	}

	tag, err := tx.Exec(ctx, `INSERT INTO applied_activities (activity_id) SELECT id FROM activities`)
	if err != nil {
		return 0, fmt.Errorf("rebuild applied ledger: %w", err)
	}
	folded := tag.RowsAffected()

	_, err = tx.Exec(ctx,
		`INSERT INTO daily_buckets (day, cost_micro, tokens, activities, agents)
		 SELECT (created_at AT TIME ZONE 'UTC')::date,
		        SUM(COALESCE(cost_micro, 0)),
		        SUM(input_tokens + output_tokens),
		        COUNT(*),
		        COUNT(DISTINCT agent_id)
		 FROM activities GROUP BY 1`)
	if err != nil {
		return 0, fmt.Errorf("rebuild buckets: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO bucket_agents (day, agent_id)
		 SELECT DISTINCT (created_at AT TIME ZONE 'UTC')::date, agent_id FROM activities`)
	if err != nil {
		return 0, fmt.Errorf("rebuild bucket agents: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit rebuild: %w", err)
	}
	return folded, nil
}

// --- Scanners ---

func scanActivity(row scannable) (activity.Activity, error) {
	var a activity.Activity
	err := row.Scan(&a.ID, &a.AgentID, &a.TicketID, &a.Model, &a.InputTokens, &a.OutputTokens, &a.CostMicro, &a.PriceEstimated, &a.CreatedAt)
	return a, err
}

func collectBuckets(rows interface {
	scannable
	Next() bool
	Err() error
}) ([]cost.DailyBucket, error) {
	var buckets []cost.DailyBucket
	for rows.Next() {
		var b cost.DailyBucket
		if err := rows.Scan(&b.Day, &b.CostMicro, &b.Tokens, &b.Activities, &b.Agents); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		b.CostUSD = b.CostMicro.USD()
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}
