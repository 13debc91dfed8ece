package players

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/agentstation/roster/internal/db"
	"github.com/agentstation/roster/pkg/errors"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// Repository is the storage contract the HTTP handlers depend on.
type Repository interface {
	List(ctx context.Context) ([]Player, error)
	Get(ctx context.Context, id uuid.UUID) (Player, error)
	Insert(ctx context.Context, p Player) (Player, error)
}

// Store implements Repository on the shared connection pool.
type Store struct {
	pool *db.Pool
}

var _ Repository = (*Store)(nil)

// NewStore returns a Store using pool.
func NewStore(pool *db.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the player table and its unique username index
// when they are missing. Existing rows are left untouched.
func (s *Store) EnsureSchema(ctx context.Context) error {
	tx, release, err := s.pool.Session(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := tx.AutoMigrate(&Player{}); err != nil {
		return errors.WrapResource("migrate", "player", "", err)
	}
	return nil
}

// List returns every player. An empty table yields an empty, non-nil slice.
func (s *Store) List(ctx context.Context) ([]Player, error) {
	tx, release, err := s.pool.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	players := make([]Player, 0)
	if err := tx.Find(&players).Error; err != nil {
		return nil, errors.WrapResource("list", "player", "", err)
	}
	return players, nil
}

// Get returns the player with id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Player, error) {
	tx, release, err := s.pool.Session(ctx)
	if err != nil {
		return Player{}, err
	}
	defer release()

	var p Player
	if err := tx.Where("id = ?", id).Take(&p).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return Player{}, errors.NewNotFoundError("player", id.String())
		}
		return Player{}, errors.WrapResource("get", "player", id.String(), err)
	}
	return p, nil
}

// Insert stores p under a newly generated id and returns the stored row.
func (s *Store) Insert(ctx context.Context, p Player) (Player, error) {
	tx, release, err := s.pool.Session(ctx)
	if err != nil {
		return Player{}, err
	}
	defer release()

	p.ID = nil
	if err := tx.Create(&p).Error; err != nil {
		if isUniqueViolation(err) {
			return Player{}, errors.NewConflictError("player", "username", p.Username, err)
		}
		if errors.IsValidationError(err) {
			return Player{}, err
		}
		return Player{}, errors.WrapResource("insert", "player", "", err)
	}
	return p, nil
}

func isUniqueViolation(err error) bool {
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
