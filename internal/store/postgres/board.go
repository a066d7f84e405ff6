package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/katachi/katachi/internal/domain"
)

type BoardRepo struct {
	pool *pgxpool.Pool
}

func NewBoardRepo(pool *pgxpool.Pool) *BoardRepo {
	return &BoardRepo{pool: pool}
}

func (r *BoardRepo) Create(ctx context.Context, b *domain.Board) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO boards (id, user_id, name, background_color, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.ID, b.UserID, b.Name, b.BackgroundColor, b.Version, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("boardRepo.Create: %w", err)
	}

	return nil
}

func (r *BoardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	var b domain.Board

	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, name, background_color, version, created_at, updated_at, deleted_at
		 FROM boards WHERE id = $1 AND deleted_at IS NULL`,
		id,
	).Scan(
		&b.ID, &b.UserID, &b.Name, &b.BackgroundColor, &b.Version,
		&b.CreatedAt, &b.UpdatedAt, &b.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("boardRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("boardRepo.GetByID: %w", err)
	}

	return &b, nil
}

func (r *BoardRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool

	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM boards WHERE id = $1)`,
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("boardRepo.Exists: %w", err)
	}

	return exists, nil
}

// Update is a compare-and-swap on version: the write only lands when the
// stored version still equals expectedVersion. This is the whole of the
// board-level optimistic concurrency protocol; there is no locking.
func (r *BoardRepo) Update(ctx context.Context, b *domain.Board, expectedVersion int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE boards SET name = $1, background_color = $2, version = version + 1, updated_at = now()
		 WHERE id = $3 AND version = $4 AND deleted_at IS NULL`,
		b.Name, b.BackgroundColor, b.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("boardRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a lost CAS race from a missing board.
		if _, getErr := r.GetByID(ctx, b.ID); getErr != nil {
			return fmt.Errorf("boardRepo.Update: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("boardRepo.Update: %w", domain.ErrConflict)
	}

	return nil
}

func (r *BoardRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE boards SET deleted_at = now(), version = version + 1, updated_at = now()
		 WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("boardRepo.SoftDelete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("boardRepo.SoftDelete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *BoardRepo) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE boards SET updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		at, id,
	)
	if err != nil {
		return fmt.Errorf("boardRepo.Touch: %w", err)
	}

	return nil
}

func (r *BoardRepo) ListByOwner(ctx context.Context, userID uuid.UUID) ([]*domain.Board, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, name, background_color, version, created_at, updated_at, deleted_at
		 FROM boards WHERE user_id = $1 AND deleted_at IS NULL
		 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("boardRepo.ListByOwner: %w", err)
	}
	defer rows.Close()

	return scanBoards(rows, "boardRepo.ListByOwner")
}

func scanBoards(rows pgx.Rows, caller string) ([]*domain.Board, error) {
	var boards []*domain.Board
	for rows.Next() {
		var b domain.Board
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.Name, &b.BackgroundColor, &b.Version,
			&b.CreatedAt, &b.UpdatedAt, &b.DeletedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		boards = append(boards, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return boards, nil
}
