package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/katachi/katachi/internal/domain"
)

type ConnectionRepo struct {
	pool *pgxpool.Pool
}

func NewConnectionRepo(pool *pgxpool.Pool) *ConnectionRepo {
	return &ConnectionRepo{pool: pool}
}

func (r *ConnectionRepo) Create(ctx context.Context, c *domain.Connection) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO connections (id, board_id, from_card_id, to_card_id, color, width, style, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.BoardID, c.FromCardID, c.ToCardID, c.Color, c.Width, c.Style,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("connectionRepo.Create: %w", err)
	}

	return nil
}

func (r *ConnectionRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Connection, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, board_id, from_card_id, to_card_id, color, width, style, created_at, updated_at, deleted_at
		 FROM connections WHERE board_id = $1 AND deleted_at IS NULL
		 ORDER BY created_at`,
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("connectionRepo.ListByBoard: %w", err)
	}
	defer rows.Close()

	var conns []*domain.Connection
	for rows.Next() {
		var c domain.Connection
		if scanErr := rows.Scan(
			&c.ID, &c.BoardID, &c.FromCardID, &c.ToCardID, &c.Color, &c.Width, &c.Style,
			&c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("connectionRepo.ListByBoard: scan: %w", scanErr)
		}
		conns = append(conns, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("connectionRepo.ListByBoard: rows: %w", err)
	}

	return conns, nil
}
