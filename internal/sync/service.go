package sync

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/katachi/katachi/internal/domain"
	"github.com/katachi/katachi/internal/realtime"
	redisstore "github.com/katachi/katachi/internal/store/redis"
)

// Service applies sync batches against the store. It holds no state of
// its own; conflict safety comes entirely from per-entity version checks
// at write time.
type Service struct {
	boards      domain.BoardRepository
	cards       domain.CardRepository
	connections domain.ConnectionRepository
	shapes      domain.ShapeRepository
	history     domain.HistoryRepository
	perms       PermissionResolver
	pub         realtime.Publisher
}

func NewService(
	boards domain.BoardRepository,
	cards domain.CardRepository,
	connections domain.ConnectionRepository,
	shapes domain.ShapeRepository,
	history domain.HistoryRepository,
	perms PermissionResolver,
	pub realtime.Publisher,
) *Service {
	return &Service{
		boards:      boards,
		cards:       cards,
		connections: connections,
		shapes:      shapes,
		history:     history,
		perms:       perms,
		pub:         pub,
	}
}

// ProcessBatch applies operations strictly in array order. Operations
// are isolated: one failing never aborts its siblings. The returned
// Result maps every operation to exactly one of synced/conflicts/errors.
func (s *Service) ProcessBatch(ctx context.Context, userID uuid.UUID, ops []Operation) (*Result, error) {
	res := newResult()

	for _, op := range ops {
		if err := s.applyOne(ctx, userID, op, res); err != nil {
			res.operr(op.ID, op.Type, err.Error())
		}
	}

	return res, nil
}

func (s *Service) applyOne(ctx context.Context, userID uuid.UUID, op Operation, res *Result) error {
	switch op.Type {
	case EntityBoard:
		return s.applyBoard(ctx, userID, op, res)
	case EntityCard:
		return s.applyCard(ctx, userID, op, res)
	case EntityConnection:
		return s.applyConnection(ctx, userID, op, res)
	case EntityShape:
		return s.applyShape(ctx, userID, op, res)
	default:
		return fmt.Errorf("unknown entity type %q", op.Type)
	}
}

// publish fans an event out to the board channel. Fan-out is a hint:
// a failed publish is logged, never surfaced as an operation failure,
// because the durable write already landed.
func (s *Service) publish(ctx context.Context, event *realtime.Event) {
	raw, err := event.Encode()
	if err != nil {
		log.Error().Err(err).Str("event", event.Type).Msg("sync: encode fan-out event")
		return
	}
	if err := s.pub.Publish(ctx, redisstore.BoardChannel(event.BoardID), raw); err != nil {
		log.Warn().Err(err).Str("event", event.Type).Str("board_id", event.BoardID.String()).Msg("sync: publish fan-out event")
	}
}
