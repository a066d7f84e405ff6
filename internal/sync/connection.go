package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/katachi/katachi/internal/domain"
)

type connectionData struct {
	BoardID    uuid.UUID `json:"boardId"`
	FromCardID uuid.UUID `json:"fromCardId"`
	ToCardID   uuid.UUID `json:"toCardId"`
	Color      string    `json:"color"`
	Width      int       `json:"width"`
	Style      string    `json:"style"`
}

// applyConnection supports create only. Connections are append-only
// server-side; removing one in the UI has no durable effect.
func (s *Service) applyConnection(ctx context.Context, userID uuid.UUID, op Operation, res *Result) error {
	if op.Operation != OpCreate {
		return fmt.Errorf("connection operation %q not supported", op.Operation)
	}

	var data connectionData
	if err := json.Unmarshal(op.Data, &data); err != nil {
		return fmt.Errorf("connection data: %w", err)
	}

	ok, err := s.requireEdit(ctx, userID, data.BoardID, op, res)
	if err != nil || !ok {
		return err
	}

	now := time.Now()
	conn := &domain.Connection{
		ID:         op.ID,
		BoardID:    data.BoardID,
		FromCardID: data.FromCardID,
		ToCardID:   data.ToCardID,
		Color:      data.Color,
		Width:      data.Width,
		Style:      data.Style,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.connections.Create(ctx, conn); err != nil {
		return err
	}

	res.synced(op.ID)
	return nil
}
