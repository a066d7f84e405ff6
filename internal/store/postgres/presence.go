package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/katachi/katachi/internal/domain"
)

type PresenceRepo struct {
	pool *pgxpool.Pool
}

func NewPresenceRepo(pool *pgxpool.Pool) *PresenceRepo {
	return &PresenceRepo{pool: pool}
}

// Upsert keeps the color assigned when the row was first inserted so a
// user's cursor keeps a stable color for the whole visit.
func (r *PresenceRepo) Upsert(ctx context.Context, p *domain.Presence) (*domain.Presence, error) {
	var stored domain.Presence

	err := r.pool.QueryRow(ctx,
		`INSERT INTO presence (id, user_id, board_id, cursor_x, cursor_y, color, last_seen_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id, board_id) DO UPDATE
		   SET cursor_x = EXCLUDED.cursor_x, cursor_y = EXCLUDED.cursor_y, last_seen_at = EXCLUDED.last_seen_at
		 RETURNING id, user_id, board_id, cursor_x, cursor_y, color, last_seen_at`,
		p.ID, p.UserID, p.BoardID, p.CursorX, p.CursorY, p.Color, p.LastSeenAt,
	).Scan(
		&stored.ID, &stored.UserID, &stored.BoardID,
		&stored.CursorX, &stored.CursorY, &stored.Color, &stored.LastSeenAt,
	)
	if err != nil {
		return nil, fmt.Errorf("presenceRepo.Upsert: %w", err)
	}

	return &stored, nil
}

func (r *PresenceRepo) Remove(ctx context.Context, userID, boardID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM presence WHERE user_id = $1 AND board_id = $2`,
		userID, boardID,
	)
	if err != nil {
		return fmt.Errorf("presenceRepo.Remove: %w", err)
	}

	return nil
}

func (r *PresenceRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Presence, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, board_id, cursor_x, cursor_y, color, last_seen_at
		 FROM presence WHERE board_id = $1`,
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("presenceRepo.ListByBoard: %w", err)
	}
	defer rows.Close()

	var records []*domain.Presence
	for rows.Next() {
		var p domain.Presence
		if scanErr := rows.Scan(
			&p.ID, &p.UserID, &p.BoardID, &p.CursorX, &p.CursorY, &p.Color, &p.LastSeenAt,
		); scanErr != nil {
			return nil, fmt.Errorf("presenceRepo.ListByBoard: scan: %w", scanErr)
		}
		records = append(records, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("presenceRepo.ListByBoard: rows: %w", err)
	}

	return records, nil
}

func (r *PresenceRepo) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM presence WHERE last_seen_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("presenceRepo.DeleteStale: %w", err)
	}

	return tag.RowsAffected(), nil
}
