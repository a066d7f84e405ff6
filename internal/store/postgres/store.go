package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/katachi/katachi/internal/domain"
)

type Store struct {
	pool        *pgxpool.Pool
	boards      *BoardRepo
	cards       *CardRepo
	connections *ConnectionRepo
	shapes      *ShapeRepo
	shares      *ShareRepo
	presence    *PresenceRepo
	history     *HistoryRepo
	users       *UserRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:        pool,
		boards:      NewBoardRepo(pool),
		cards:       NewCardRepo(pool),
		connections: NewConnectionRepo(pool),
		shapes:      NewShapeRepo(pool),
		shares:      NewShareRepo(pool),
		presence:    NewPresenceRepo(pool),
		history:     NewHistoryRepo(pool),
		users:       NewUserRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Boards() domain.BoardRepository           { return s.boards }
func (s *Store) Cards() domain.CardRepository             { return s.cards }
func (s *Store) Connections() domain.ConnectionRepository { return s.connections }
func (s *Store) Shapes() domain.ShapeRepository           { return s.shapes }
func (s *Store) Shares() domain.ShareRepository           { return s.shares }
func (s *Store) Presence() domain.PresenceRepository      { return s.presence }
func (s *Store) History() domain.HistoryRepository        { return s.history }
func (s *Store) Users() domain.UserRepository             { return s.users }
