package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/katachi/katachi/internal/domain"
)

type shapeData struct {
	BoardID  uuid.UUID `json:"boardId"`
	Type     string    `json:"type"`
	Position struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"position"`
	Size struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"size"`
	Color string `json:"color"`
	Width int    `json:"width"`
	Fill  bool   `json:"fill"`
}

// applyShape supports create only, mirroring connections.
func (s *Service) applyShape(ctx context.Context, userID uuid.UUID, op Operation, res *Result) error {
	if op.Operation != OpCreate {
		return fmt.Errorf("shape operation %q not supported", op.Operation)
	}

	var data shapeData
	if err := json.Unmarshal(op.Data, &data); err != nil {
		return fmt.Errorf("shape data: %w", err)
	}

	ok, err := s.requireEdit(ctx, userID, data.BoardID, op, res)
	if err != nil || !ok {
		return err
	}

	now := time.Now()
	shape := &domain.Shape{
		ID:      op.ID,
		BoardID: data.BoardID,
		Type:    data.Type,
		Position: domain.Point{
			X: clampPixel(data.Position.X),
			Y: clampPixel(data.Position.Y),
		},
		Size: domain.Dimensions{
			Width:  roundPixel(data.Size.Width),
			Height: roundPixel(data.Size.Height),
		},
		Color:       data.Color,
		StrokeWidth: data.Width,
		Fill:        data.Fill,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.shapes.Create(ctx, shape); err != nil {
		return err
	}

	res.synced(op.ID)
	return nil
}
