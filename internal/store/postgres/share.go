package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/katachi/katachi/internal/domain"
)

type ShareRepo struct {
	pool *pgxpool.Pool
}

func NewShareRepo(pool *pgxpool.Pool) *ShareRepo {
	return &ShareRepo{pool: pool}
}

func (r *ShareRepo) Get(ctx context.Context, boardID, userID uuid.UUID) (*domain.BoardShare, error) {
	var s domain.BoardShare

	err := r.pool.QueryRow(ctx,
		`SELECT id, board_id, user_id, permission, invited_by, created_at
		 FROM board_shares WHERE board_id = $1 AND user_id = $2`,
		boardID, userID,
	).Scan(&s.ID, &s.BoardID, &s.UserID, &s.Permission, &s.InvitedBy, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("shareRepo.Get: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("shareRepo.Get: %w", err)
	}

	return &s, nil
}

func (r *ShareRepo) Upsert(ctx context.Context, s *domain.BoardShare) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO board_shares (id, board_id, user_id, permission, invited_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (board_id, user_id) DO UPDATE SET permission = EXCLUDED.permission`,
		s.ID, s.BoardID, s.UserID, s.Permission, s.InvitedBy, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("shareRepo.Upsert: %w", err)
	}

	return nil
}

func (r *ShareRepo) Delete(ctx context.Context, boardID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM board_shares WHERE board_id = $1 AND user_id = $2`,
		boardID, userID,
	)
	if err != nil {
		return fmt.Errorf("shareRepo.Delete: %w", err)
	}

	return nil
}

func (r *ShareRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.BoardShare, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, board_id, user_id, permission, invited_by, created_at
		 FROM board_shares WHERE user_id = $1
		 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("shareRepo.ListByUser: %w", err)
	}
	defer rows.Close()

	var shares []*domain.BoardShare
	for rows.Next() {
		var s domain.BoardShare
		if scanErr := rows.Scan(&s.ID, &s.BoardID, &s.UserID, &s.Permission, &s.InvitedBy, &s.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("shareRepo.ListByUser: scan: %w", scanErr)
		}
		shares = append(shares, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("shareRepo.ListByUser: rows: %w", err)
	}

	return shares, nil
}
