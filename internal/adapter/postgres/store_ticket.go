package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/domain/ticket"
)

func (s *Store) CreateTicket(ctx context.Context, t *ticket.Ticket) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tickets (id, title, description, status, assignee, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.Title, t.Description, t.Status, t.Assignee, t.Version, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create ticket: %w", err)
	}
	return nil
}

func (s *Store) GetTicket(ctx context.Context, id string) (*ticket.Ticket, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, title, description, status, assignee, version, created_at, updated_at
		 FROM tickets WHERE id = $1`, id)

	t, err := scanTicket(row)
	if err != nil {
		return nil, notFoundWrap(err, "get ticket %s", id)
	}
	return &t, nil
}

func (s *Store) ListTickets(ctx context.Context, status ticket.Status) ([]ticket.Ticket, error) {
	q := `SELECT id, title, description, status, assignee, version, created_at, updated_at
	      FROM tickets`
	var args []any
	if status != "" {
		q += ` WHERE status = $1`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []ticket.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// UpdateTicket writes t guarded by its version: the row must still be at
// t.Version or the write is refused with domain.ErrConflict. On success
// t.Version is advanced to the stored value.
func (s *Store) UpdateTicket(ctx context.Context, t *ticket.Ticket) error {
	err := s.pool.QueryRow(ctx,
		`UPDATE tickets
		 SET title = $3, description = $4, status = $5, assignee = $6, version = version + 1, updated_at = $7
		 WHERE id = $1 AND version = $2
		 RETURNING version`,
		t.ID, t.Version, t.Title, t.Description, t.Status, t.Assignee, t.UpdatedAt).Scan(&t.Version)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("update ticket %s: %w", t.ID, err)
	}

	// No row matched: either the ticket is gone or the version is stale.
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tickets WHERE id = $1)`, t.ID).Scan(&exists); err != nil {
		return fmt.Errorf("update ticket %s: %w", t.ID, err)
	}
	if exists {
		return fmt.Errorf("update ticket %s: stale version %d: %w", t.ID, t.Version, domain.ErrConflict)
	}
	return fmt.Errorf("update ticket %s: %w", t.ID, domain.ErrNotFound)
}

func scanTicket(row scannable) (ticket.Ticket, error) {
	var t ticket.Ticket
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Assignee, &t.Version, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}
