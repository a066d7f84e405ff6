package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/katachi/katachi/internal/domain"
)

// HistoryRepo is append-only: snapshots are inserted once per accepted
// mutation and never updated or deleted.
type HistoryRepo struct {
	pool *pgxpool.Pool
}

func NewHistoryRepo(pool *pgxpool.Pool) *HistoryRepo {
	return &HistoryRepo{pool: pool}
}

func (r *HistoryRepo) AppendCard(ctx context.Context, h *domain.CardHistory) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO card_history (id, card_id, board_id, user_id, version, snapshot, operation, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		h.ID, h.CardID, h.BoardID, h.UserID, h.Version, []byte(h.Snapshot), h.Operation, h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("historyRepo.AppendCard: %w", err)
	}

	return nil
}

func (r *HistoryRepo) AppendBoard(ctx context.Context, h *domain.BoardHistory) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO board_history (id, board_id, user_id, version, snapshot, operation, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		h.ID, h.BoardID, h.UserID, h.Version, []byte(h.Snapshot), h.Operation, h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("historyRepo.AppendBoard: %w", err)
	}

	return nil
}

func (r *HistoryRepo) ListByBoard(ctx context.Context, boardID uuid.UUID, limit int) ([]*domain.BoardHistory, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, board_id, user_id, version, snapshot, operation, created_at
		 FROM board_history WHERE board_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		boardID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("historyRepo.ListByBoard: %w", err)
	}
	defer rows.Close()

	return scanBoardHistory(rows, "historyRepo.ListByBoard")
}

func (r *HistoryRepo) ListByCard(ctx context.Context, cardID uuid.UUID, limit int) ([]*domain.CardHistory, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, card_id, board_id, user_id, version, snapshot, operation, created_at
		 FROM card_history WHERE card_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		cardID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("historyRepo.ListByCard: %w", err)
	}
	defer rows.Close()

	var entries []*domain.CardHistory
	for rows.Next() {
		var (
			h   domain.CardHistory
			raw []byte
		)
		if scanErr := rows.Scan(&h.ID, &h.CardID, &h.BoardID, &h.UserID, &h.Version, &raw, &h.Operation, &h.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("historyRepo.ListByCard: scan: %w", scanErr)
		}
		h.Snapshot = raw
		entries = append(entries, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("historyRepo.ListByCard: rows: %w", err)
	}

	return entries, nil
}

func scanBoardHistory(rows pgx.Rows, caller string) ([]*domain.BoardHistory, error) {
	var entries []*domain.BoardHistory
	for rows.Next() {
		var (
			h   domain.BoardHistory
			raw []byte
		)
		if err := rows.Scan(&h.ID, &h.BoardID, &h.UserID, &h.Version, &raw, &h.Operation, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		h.Snapshot = raw
		entries = append(entries, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return entries, nil
}
