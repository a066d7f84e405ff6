package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/katachi/katachi/internal/domain"
	"github.com/katachi/katachi/internal/realtime"
)

// boardData is the board portion of an operation's data field.
type boardData struct {
	Name            string    `json:"name"`
	BackgroundColor string    `json:"backgroundColor"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (s *Service) applyBoard(ctx context.Context, userID uuid.UUID, op Operation, res *Result) error {
	switch op.Operation {
	case OpCreate:
		return s.createBoard(ctx, userID, op, res)
	case OpUpdate:
		return s.updateBoard(ctx, userID, op, res)
	case OpDelete:
		return s.deleteBoard(ctx, userID, op, res)
	default:
		return fmt.Errorf("unknown operation %q", op.Operation)
	}
}

func (s *Service) createBoard(ctx context.Context, userID uuid.UUID, op Operation, res *Result) error {
	var data boardData
	if err := json.Unmarshal(op.Data, &data); err != nil {
		return fmt.Errorf("board data: %w", err)
	}

	// Creating an id that was ever used is a conflict, not an upsert:
	// board ids are client-generated and must be globally fresh.
	exists, err := s.boards.Exists(ctx, op.ID)
	if err != nil {
		return err
	}
	if exists {
		res.conflict(Conflict{ID: op.ID, Type: EntityBoard, Reason: "already_exists"})
		return nil
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

	board := &domain.Board{
		ID:              op.ID,
		UserID:          userID,
		Name:            data.Name,
		BackgroundColor: data.BackgroundColor,
		Version:         1,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}
	if err := s.boards.Create(ctx, board); err != nil {
		return err
	}

	if err := s.appendBoardHistory(ctx, op.ID, userID, 1, op.Data, domain.HistoryOpCreate); err != nil {
		return err
	}

	res.synced(op.ID)
	return nil
}

func (s *Service) updateBoard(ctx context.Context, userID uuid.UUID, op Operation, res *Result) error {
	var data boardData
	if err := json.Unmarshal(op.Data, &data); err != nil {
		return fmt.Errorf("board data: %w", err)
	}

	existing, err := s.boards.GetByID(ctx, op.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			res.operr(op.ID, EntityBoard, "Board not found")
			return nil
		}
		return err
	}
	if existing.UserID != userID {
		res.operr(op.ID, EntityBoard, "Board not found")
		return nil
	}

	// Server wins on version mismatch: no merge, the client refetches.
	if op.Version == nil || *op.Version != existing.Version {
		res.conflict(Conflict{
			ID:            op.ID,
			Type:          EntityBoard,
			ServerVersion: &existing.Version,
			ClientVersion: op.Version,
		})
		return nil
	}

	updated := &domain.Board{
		ID:              op.ID,
		Name:            data.Name,
		BackgroundColor: data.BackgroundColor,
	}
	if err := s.boards.Update(ctx, updated, existing.Version); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Lost the CAS race to a concurrent writer after our read.
			current, getErr := s.boards.GetByID(ctx, op.ID)
			serverVersion := existing.Version
			if getErr == nil {
				serverVersion = current.Version
			}
			res.conflict(Conflict{
				ID:            op.ID,
				Type:          EntityBoard,
				ServerVersion: &serverVersion,
				ClientVersion: op.Version,
			})
			return nil
		}
		return err
	}

	if err := s.appendBoardHistory(ctx, op.ID, userID, existing.Version+1, op.Data, domain.HistoryOpUpdate); err != nil {
		return err
	}

	s.publish(ctx, &realtime.Event{
		Type:    realtime.EventBoardUpdated,
		BoardID: op.ID,
		UserID:  userID,
		Data:    op.Data,
	})

	res.synced(op.ID)
	return nil
}

// deleteBoard is ownership-gated like update but skips the version
// check: an intent to delete holds regardless of edits the client has
// not seen yet.
func (s *Service) deleteBoard(ctx context.Context, userID uuid.UUID, op Operation, res *Result) error {
	existing, err := s.boards.GetByID(ctx, op.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Already gone; deletion is idempotent.
			res.synced(op.ID)
			return nil
		}
		return err
	}
	if existing.UserID != userID {
		res.operr(op.ID, EntityBoard, "Board not found")
		return nil
	}

	if err := s.boards.SoftDelete(ctx, op.ID); err != nil {
		return err
	}

	if err := s.appendBoardHistory(ctx, op.ID, userID, existing.Version+1, op.Data, domain.HistoryOpDelete); err != nil {
		return err
	}

	res.synced(op.ID)
	return nil
}

func (s *Service) appendBoardHistory(ctx context.Context, boardID, userID uuid.UUID, version int, snapshot json.RawMessage, op domain.HistoryOp) error {
	if len(snapshot) == 0 {
		snapshot = json.RawMessage(`{}`)
	}
	return s.history.AppendBoard(ctx, &domain.BoardHistory{
		ID:        uuid.New(),
		BoardID:   boardID,
		UserID:    userID,
		Version:   version,
		Snapshot:  snapshot,
		Operation: op,
		CreatedAt: time.Now(),
	})
}
