package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/katachi/katachi/internal/domain"
	"github.com/katachi/katachi/internal/realtime"
)

const insufficientPermissions = "Insufficient permissions"

// cardData is the card portion of an operation's data field. Positions
// and sizes arrive as floats from canvas interactions and are rounded to
// integer pixels before they hit the store.
type cardData struct {
	BoardID  uuid.UUID       `json:"boardId"`
	Type     domain.CardType `json:"type"`
	Position struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"position"`
	Size struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"size"`
	ZIndex    int             `json:"zIndex"`
	Color     string          `json:"color"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// point rounds and clamps: canvas coordinates are non-negative integers.
func (d *cardData) point() domain.Point {
	return domain.Point{
		X: clampPixel(d.Position.X),
		Y: clampPixel(d.Position.Y),
	}
}

func (d *cardData) dimensions() domain.Dimensions {
	return domain.Dimensions{
		Width:  roundPixel(d.Size.Width),
		Height: roundPixel(d.Size.Height),
	}
}

func roundPixel(v float64) int {
	return int(math.Round(v))
}

func clampPixel(v float64) int {
	n := roundPixel(v)
	if n < 0 {
		return 0
	}
	return n
}

func (s *Service) applyCard(ctx context.Context, userID uuid.UUID, op Operation, res *Result) error {
	switch op.Operation {
	case OpCreate:
		return s.createCard(ctx, userID, op, res)
	case OpUpdate:
		return s.updateCard(ctx, userID, op, res)
	case OpDelete:
		return s.deleteCard(ctx, userID, op, res)
	default:
		return fmt.Errorf("unknown operation %q", op.Operation)
	}
}

// requireEdit resolves the caller's permission on a board and records an
// authorization error when mutation is not allowed.
func (s *Service) requireEdit(ctx context.Context, userID, boardID uuid.UUID, op Operation, res *Result) (bool, error) {
	perm, err := s.perms.Resolve(ctx, userID, boardID)
	if err != nil {
		return false, err
	}
	if !perm.CanEdit() {
		res.operr(op.ID, op.Type, insufficientPermissions)
		return false, nil
	}
	return true, nil
}

func (s *Service) createCard(ctx context.Context, userID uuid.UUID, op Operation, res *Result) error {
	var data cardData
	if err := json.Unmarshal(op.Data, &data); err != nil {
		return fmt.Errorf("card data: %w", err)
	}

	ok, err := s.requireEdit(ctx, userID, data.BoardID, op, res)
	if err != nil || !ok {
		return err
	}

	card, err := s.buildCard(ctx, op.ID, &data)
	if err != nil {
		return err
	}

	if err := s.cards.Create(ctx, card); err != nil {
		return err
	}

	if err := s.appendCardHistory(ctx, op.ID, data.BoardID, userID, 1, op.Data, domain.HistoryOpCreate); err != nil {
		return err
	}

	s.publish(ctx, &realtime.Event{
		Type:    realtime.EventCardCreated,
		BoardID: data.BoardID,
		CardID:  &card.ID,
		UserID:  userID,
		Data:    op.Data,
	})

	res.synced(op.ID)
	return nil
}

// updateCard upserts: an update targeting a card the server has never
// seen becomes a create at version 1. Clients legitimately edit a card
// before their own create round-trip confirms, so a missing target is a
// recoverable ordering artifact, not an error.
func (s *Service) updateCard(ctx context.Context, userID uuid.UUID, op Operation, res *Result) error {
	var data cardData
	if err := json.Unmarshal(op.Data, &data); err != nil {
		return fmt.Errorf("card data: %w", err)
	}

	existing, err := s.cards.GetByID(ctx, op.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.createCard(ctx, userID, op, res)
		}
		return err
	}

	ok, err := s.requireEdit(ctx, userID, existing.BoardID, op, res)
	if err != nil || !ok {
		return err
	}

	payload, err := domain.DecodeCardPayload(existing.Type, data.Payload)
	if err != nil {
		return err
	}
	payload, err = s.sanitizeColumnRefs(ctx, existing.BoardID, payload)
	if err != nil {
		return err
	}

	updated := &domain.Card{
		ID:       op.ID,
		BoardID:  existing.BoardID,
		Type:     existing.Type,
		Position: data.point(),
		Size:     data.dimensions(),
		ZIndex:   data.ZIndex,
		Color:    data.Color,
		Payload:  payload,
	}
	if err := s.cards.Update(ctx, updated); err != nil {
		return err
	}

	// Card edits surface on the board row too, so pollers comparing
	// board timestamps notice without diffing every card.
	if err := s.boards.Touch(ctx, existing.BoardID, time.Now()); err != nil {
		log.Warn().Err(err).Str("board_id", existing.BoardID.String()).Msg("sync: touch board")
	}

	if err := s.appendCardHistory(ctx, op.ID, existing.BoardID, userID, existing.Version+1, op.Data, domain.HistoryOpUpdate); err != nil {
		return err
	}

	s.publish(ctx, &realtime.Event{
		Type:    realtime.EventCardUpdated,
		BoardID: existing.BoardID,
		CardID:  &op.ID,
		UserID:  userID,
		Data:    op.Data,
	})

	res.synced(op.ID)
	return nil
}

// deleteCard is idempotent: deleting an absent or already-deleted card
// reports synced, not an error.
func (s *Service) deleteCard(ctx context.Context, userID uuid.UUID, op Operation, res *Result) error {
	boardID := uuid.Nil
	version := 0

	existing, err := s.cards.GetByID(ctx, op.ID)
	switch {
	case err == nil:
		boardID = existing.BoardID
		version = existing.Version
	case errors.Is(err, domain.ErrNotFound):
		// Fall back to the board id the client supplied, when any.
		if len(op.Data) > 0 {
			var data cardData
			if jsonErr := json.Unmarshal(op.Data, &data); jsonErr == nil {
				boardID = data.BoardID
			}
		}
	default:
		return err
	}

	if boardID != uuid.Nil {
		ok, permErr := s.requireEdit(ctx, userID, boardID, op, res)
		if permErr != nil || !ok {
			return permErr
		}
	}

	deleted, err := s.cards.SoftDelete(ctx, op.ID)
	if err != nil {
		return err
	}

	if deleted {
		if err := s.boards.Touch(ctx, boardID, time.Now()); err != nil {
			log.Warn().Err(err).Str("board_id", boardID.String()).Msg("sync: touch board")
		}

		if err := s.appendCardHistory(ctx, op.ID, boardID, userID, version+1, op.Data, domain.HistoryOpDelete); err != nil {
			return err
		}

		s.publish(ctx, &realtime.Event{
			Type:    realtime.EventCardDeleted,
			BoardID: boardID,
			CardID:  &op.ID,
			UserID:  userID,
		})
	}

	res.synced(op.ID)
	return nil
}

// buildCard assembles a version-1 card from wire data, decoding the
// type-tagged payload and sanitizing column references.
func (s *Service) buildCard(ctx context.Context, id uuid.UUID, data *cardData) (*domain.Card, error) {
	payload, err := domain.DecodeCardPayload(data.Type, data.Payload)
	if err != nil {
		return nil, err
	}
	payload, err = s.sanitizeColumnRefs(ctx, data.BoardID, payload)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	createdAt := data.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := data.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	return &domain.Card{
		ID:        id,
		BoardID:   data.BoardID,
		Type:      data.Type,
		Position:  data.point(),
		Size:      data.dimensions(),
		ZIndex:    data.ZIndex,
		Color:     data.Color,
		Payload:   payload,
		Version:   1,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// sanitizeColumnRefs drops column references to cards that do not exist
// (or are deleted) on the board, keeping the nesting invariant intact.
func (s *Service) sanitizeColumnRefs(ctx context.Context, boardID uuid.UUID, payload domain.CardPayload) (domain.CardPayload, error) {
	column, isColumn := payload.(*domain.ColumnPayload)
	if !isColumn || len(column.CardIDs) == 0 {
		return payload, nil
	}

	existing, err := s.cards.ExistingIDs(ctx, boardID, column.CardIDs)
	if err != nil {
		return nil, err
	}

	if len(existing) != len(column.CardIDs) {
		log.Debug().
			Int("submitted", len(column.CardIDs)).
			Int("kept", len(existing)).
			Str("board_id", boardID.String()).
			Msg("sync: dropped dangling column references")
	}
	column.CardIDs = existing
	return column, nil
}

func (s *Service) appendCardHistory(ctx context.Context, cardID, boardID, userID uuid.UUID, version int, snapshot json.RawMessage, op domain.HistoryOp) error {
	if len(snapshot) == 0 {
		snapshot = json.RawMessage(`{}`)
	}
	return s.history.AppendCard(ctx, &domain.CardHistory{
		ID:        uuid.New(),
		CardID:    cardID,
		BoardID:   boardID,
		UserID:    userID,
		Version:   version,
		Snapshot:  snapshot,
		Operation: op,
		CreatedAt: time.Now(),
	})
}
