package sync_test

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/katachi/katachi/internal/domain"
	"github.com/katachi/katachi/internal/realtime"
	"github.com/katachi/katachi/internal/sync"
)

// ---------------------------------------------------------------------------
// Mock repositories — func fields so each test wires only what it needs
// ---------------------------------------------------------------------------

type mockBoardRepo struct {
	createFunc      func(ctx context.Context, b *domain.Board) error
	getByIDFunc     func(ctx context.Context, id uuid.UUID) (*domain.Board, error)
	existsFunc      func(ctx context.Context, id uuid.UUID) (bool, error)
	updateFunc      func(ctx context.Context, b *domain.Board, expectedVersion int) error
	softDeleteFunc  func(ctx context.Context, id uuid.UUID) error
	touchFunc       func(ctx context.Context, id uuid.UUID, at time.Time) error
	listByOwnerFunc func(ctx context.Context, userID uuid.UUID) ([]*domain.Board, error)
}

func (m *mockBoardRepo) Create(ctx context.Context, b *domain.Board) error {
	return m.createFunc(ctx, b)
}

func (m *mockBoardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Board, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockBoardRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return m.existsFunc(ctx, id)
}

func (m *mockBoardRepo) Update(ctx context.Context, b *domain.Board, expectedVersion int) error {
	return m.updateFunc(ctx, b, expectedVersion)
}

func (m *mockBoardRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return m.softDeleteFunc(ctx, id)
}

func (m *mockBoardRepo) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	if m.touchFunc == nil {
		return nil
	}
	return m.touchFunc(ctx, id, at)
}

func (m *mockBoardRepo) ListByOwner(ctx context.Context, userID uuid.UUID) ([]*domain.Board, error) {
	return m.listByOwnerFunc(ctx, userID)
}

type mockCardRepo struct {
	createFunc      func(ctx context.Context, c *domain.Card) error
	getByIDFunc     func(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	updateFunc      func(ctx context.Context, c *domain.Card) error
	softDeleteFunc  func(ctx context.Context, id uuid.UUID) (bool, error)
	listByBoardFunc func(ctx context.Context, boardID uuid.UUID) ([]*domain.Card, error)
	existingIDsFunc func(ctx context.Context, boardID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error)
}

func (m *mockCardRepo) Create(ctx context.Context, c *domain.Card) error {
	return m.createFunc(ctx, c)
}

func (m *mockCardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockCardRepo) Update(ctx context.Context, c *domain.Card) error {
	return m.updateFunc(ctx, c)
}

func (m *mockCardRepo) SoftDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	return m.softDeleteFunc(ctx, id)
}

func (m *mockCardRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Card, error) {
	return m.listByBoardFunc(ctx, boardID)
}

func (m *mockCardRepo) ExistingIDs(ctx context.Context, boardID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	if m.existingIDsFunc == nil {
		return ids, nil
	}
	return m.existingIDsFunc(ctx, boardID, ids)
}

type mockConnectionRepo struct {
	createFunc      func(ctx context.Context, c *domain.Connection) error
	listByBoardFunc func(ctx context.Context, boardID uuid.UUID) ([]*domain.Connection, error)
}

func (m *mockConnectionRepo) Create(ctx context.Context, c *domain.Connection) error {
	return m.createFunc(ctx, c)
}

func (m *mockConnectionRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Connection, error) {
	return m.listByBoardFunc(ctx, boardID)
}

type mockShapeRepo struct {
	createFunc      func(ctx context.Context, s *domain.Shape) error
	listByBoardFunc func(ctx context.Context, boardID uuid.UUID) ([]*domain.Shape, error)
}

func (m *mockShapeRepo) Create(ctx context.Context, s *domain.Shape) error {
	return m.createFunc(ctx, s)
}

func (m *mockShapeRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*domain.Shape, error) {
	return m.listByBoardFunc(ctx, boardID)
}

// recordingHistoryRepo collects appended entries so tests can assert on
// the audit trail without wiring per-test funcs.
type recordingHistoryRepo struct {
	mu     stdsync.Mutex
	cards  []*domain.CardHistory
	boards []*domain.BoardHistory
}

func (r *recordingHistoryRepo) AppendCard(_ context.Context, h *domain.CardHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cards = append(r.cards, h)
	return nil
}

func (r *recordingHistoryRepo) AppendBoard(_ context.Context, h *domain.BoardHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.boards = append(r.boards, h)
	return nil
}

func (r *recordingHistoryRepo) ListByBoard(_ context.Context, boardID uuid.UUID, _ int) ([]*domain.BoardHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.BoardHistory
	for _, h := range r.boards {
		if h.BoardID == boardID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *recordingHistoryRepo) ListByCard(_ context.Context, cardID uuid.UUID, _ int) ([]*domain.CardHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.CardHistory
	for _, h := range r.cards {
		if h.CardID == cardID {
			out = append(out, h)
		}
	}
	return out, nil
}

// recordingPublisher collects fan-out events by channel.
type recordingPublisher struct {
	mu        stdsync.Mutex
	published []publishedEvent
	err       error
}

type publishedEvent struct {
	channel string
	event   *realtime.Event
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	event, err := realtime.DecodeEvent(payload)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, publishedEvent{channel: channel, event: event})
	return nil
}

func (p *recordingPublisher) events() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.published...)
}

// staticPerms resolves every board to one fixed permission.
type staticPerms struct {
	perm domain.Permission
	err  error
}

func (s *staticPerms) Resolve(context.Context, uuid.UUID, uuid.UUID) (domain.Permission, error) {
	return s.perm, s.err
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type fixture struct {
	boards      *mockBoardRepo
	cards       *mockCardRepo
	connections *mockConnectionRepo
	shapes      *mockShapeRepo
	history     *recordingHistoryRepo
	perms       *staticPerms
	pub         *recordingPublisher
}

func newFixture() *fixture {
	return &fixture{
		boards:      &mockBoardRepo{},
		cards:       &mockCardRepo{},
		connections: &mockConnectionRepo{},
		shapes:      &mockShapeRepo{},
		history:     &recordingHistoryRepo{},
		perms:       &staticPerms{perm: domain.PermissionOwner},
		pub:         &recordingPublisher{},
	}
}

func (f *fixture) service() *sync.Service {
	return sync.NewService(f.boards, f.cards, f.connections, f.shapes, f.history, f.perms, f.pub)
}
