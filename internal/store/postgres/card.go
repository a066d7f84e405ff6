package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/katachi/katachi/internal/domain"
)

type CardRepo struct {
	pool *pgxpool.Pool
}

func NewCardRepo(pool *pgxpool.Pool) *CardRepo {
	return &CardRepo{pool: pool}
}

func encodePayload(p domain.CardPayload) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return raw, nil
}

func (r *CardRepo) Create(ctx context.Context, c *domain.Card) error {
	payload, err := encodePayload(c.Payload)
	if err != nil {
		return fmt.Errorf("cardRepo.Create: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO cards (id, board_id, type, position_x, position_y, width, height, z_index, color, payload, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID, c.BoardID, c.Type, c.Position.X, c.Position.Y,
		c.Size.Width, c.Size.Height, c.ZIndex, c.Color, payload,
		c.Version, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("cardRepo.Create: %w", err)
	}

	return nil
}

func (r *CardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, board_id, type, position_x, position_y, width, height, z_index, color, payload, version, created_at, updated_at, deleted_at
		 FROM cards WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)

	c, err := scanCard(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("cardRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("cardRepo.GetByID: %w", err)
	}

	return c, nil
}

// Update is deliberately last-write-wins: cards mutate far more often
// than boards and the protocol does not CAS their version, only bump it.
func (r *CardRepo) Update(ctx context.Context, c *domain.Card) error {
	payload, err := encodePayload(c.Payload)
	if err != nil {
		return fmt.Errorf("cardRepo.Update: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE cards SET position_x = $1, position_y = $2, width = $3, height = $4,
		        z_index = $5, color = $6, payload = $7, version = version + 1, updated_at = now()
		 WHERE id = $8 AND deleted_at IS NULL`,
		c.Position.X, c.Position.Y, c.Size.Width, c.Size.Height,
		c.ZIndex, c.Color, payload, c.ID,
	)
	if err != nil {
		return fmt.Errorf("cardRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cardRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *CardRepo) SoftDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE cards SET deleted_at = now(), version = version + 1, updated_at = now()
		 WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("cardRepo.SoftDelete: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *CardRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Card, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, board_id, type, position_x, position_y, width, height, z_index, color, payload, version, created_at, updated_at, deleted_at
		 FROM cards WHERE board_id = $1 AND deleted_at IS NULL
		 ORDER BY z_index`,
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("cardRepo.ListByBoard: %w", err)
	}
	defer rows.Close()

	var cards []*domain.Card
	for rows.Next() {
		c, scanErr := scanCard(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("cardRepo.ListByBoard: scan: %w", scanErr)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cardRepo.ListByBoard: rows: %w", err)
	}

	return cards, nil
}

func (r *CardRepo) ExistingIDs(ctx context.Context, boardID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id FROM cards WHERE board_id = $1 AND id = ANY($2) AND deleted_at IS NULL`,
		boardID, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("cardRepo.ExistingIDs: %w", err)
	}
	defer rows.Close()

	var found []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("cardRepo.ExistingIDs: scan: %w", scanErr)
		}
		found = append(found, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cardRepo.ExistingIDs: rows: %w", err)
	}

	return found, nil
}

func scanCard(row pgx.Row) (*domain.Card, error) {
	var (
		c   domain.Card
		raw []byte
	)

	err := row.Scan(
		&c.ID, &c.BoardID, &c.Type, &c.Position.X, &c.Position.Y,
		&c.Size.Width, &c.Size.Height, &c.ZIndex, &c.Color, &raw,
		&c.Version, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Payload, err = domain.DecodeCardPayload(c.Type, raw)
	if err != nil {
		return nil, err
	}

	return &c, nil
}
