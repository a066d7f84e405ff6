package realtime

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/katachi/katachi/internal/domain"
	redisstore "github.com/katachi/katachi/internal/store/redis"
)

// PresenceService persists cursor positions and broadcasts them to the
// board channel. Rows are coarse liveness records: refreshed on every
// cursor update, deleted on leave, swept when stale.
type PresenceService struct {
	repo domain.PresenceRepository
	pub  Publisher
}

func NewPresenceService(repo domain.PresenceRepository, pub Publisher) *PresenceService {
	return &PresenceService{repo: repo, pub: pub}
}

// Update upserts the cursor record and publishes a presence event. A new
// user gets a random cursor color that sticks for the visit.
func (s *PresenceService) Update(ctx context.Context, userID uuid.UUID, userName string, boardID uuid.UUID, cursorX, cursorY int) error {
	stored, err := s.repo.Upsert(ctx, &domain.Presence{
		ID:         uuid.New(),
		UserID:     userID,
		BoardID:    boardID,
		CursorX:    cursorX,
		CursorY:    cursorY,
		Color:      randomCursorColor(),
		LastSeenAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("presence.Update: %w", err)
	}

	event := &Event{
		Type:     EventPresence,
		BoardID:  boardID,
		UserID:   userID,
		UserName: userName,
		CursorX:  stored.CursorX,
		CursorY:  stored.CursorY,
		Color:    stored.Color,
	}
	raw, err := event.Encode()
	if err != nil {
		return fmt.Errorf("presence.Update: %w", err)
	}
	if err := s.pub.Publish(ctx, redisstore.BoardChannel(boardID), raw); err != nil {
		return fmt.Errorf("presence.Update: %w", err)
	}

	return nil
}

// Remove deletes the cursor record and tells the board the user is gone.
func (s *PresenceService) Remove(ctx context.Context, userID, boardID uuid.UUID) error {
	if err := s.repo.Remove(ctx, userID, boardID); err != nil {
		return fmt.Errorf("presence.Remove: %w", err)
	}

	event := &Event{
		Type:    EventPresenceLeft,
		BoardID: boardID,
		UserID:  userID,
	}
	raw, err := event.Encode()
	if err != nil {
		return fmt.Errorf("presence.Remove: %w", err)
	}
	if err := s.pub.Publish(ctx, redisstore.BoardChannel(boardID), raw); err != nil {
		return fmt.Errorf("presence.Remove: %w", err)
	}

	return nil
}

// StartCleanup sweeps stale presence rows until ctx is cancelled.
// Sessions normally remove their own rows; the sweep covers crashed
// connections that never got to.
func (s *PresenceService) StartCleanup(ctx context.Context, interval, ttl time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.repo.DeleteStale(ctx, time.Now().Add(-ttl))
				if err != nil {
					log.Warn().Err(err).Msg("presence cleanup")
					continue
				}
				if n > 0 {
					log.Debug().Int64("removed", n).Msg("presence cleanup")
				}
			}
		}
	}()
}

func randomCursorColor() string {
	//nolint:gosec // cursor colors are cosmetic
	return fmt.Sprintf("#%06x", rand.Intn(0xFFFFFF+1))
}
