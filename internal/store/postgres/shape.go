package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/katachi/katachi/internal/domain"
)

type ShapeRepo struct {
	pool *pgxpool.Pool
}

func NewShapeRepo(pool *pgxpool.Pool) *ShapeRepo {
	return &ShapeRepo{pool: pool}
}

func (r *ShapeRepo) Create(ctx context.Context, s *domain.Shape) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO shapes (id, board_id, type, position_x, position_y, width, height, color, stroke_width, fill, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		s.ID, s.BoardID, s.Type, s.Position.X, s.Position.Y,
		s.Size.Width, s.Size.Height, s.Color, s.StrokeWidth, s.Fill,
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("shapeRepo.Create: %w", err)
	}

	return nil
}

func (r *ShapeRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Shape, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, board_id, type, position_x, position_y, width, height, color, stroke_width, fill, created_at, updated_at, deleted_at
		 FROM shapes WHERE board_id = $1 AND deleted_at IS NULL
		 ORDER BY created_at`,
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("shapeRepo.ListByBoard: %w", err)
	}
	defer rows.Close()

	var shapes []*domain.Shape
	for rows.Next() {
		var s domain.Shape
		if scanErr := rows.Scan(
			&s.ID, &s.BoardID, &s.Type, &s.Position.X, &s.Position.Y,
			&s.Size.Width, &s.Size.Height, &s.Color, &s.StrokeWidth, &s.Fill,
			&s.CreatedAt, &s.UpdatedAt, &s.DeletedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("shapeRepo.ListByBoard: scan: %w", scanErr)
		}
		shapes = append(shapes, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("shapeRepo.ListByBoard: rows: %w", err)
	}

	return shapes, nil
}
