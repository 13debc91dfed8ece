package players

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/agentstation/roster/internal/db"
	"github.com/agentstation/roster/pkg/errors"
)

func ptr[T any](v T) *T { return &v }

// lakers is the seed roster used across the storage tests.
var lakers = []Player{
	{Number: 24, Name: "Kobe Bryant", Username: "kobe", Email: ptr("kobe@lakers.com")},
	{Number: 23, Name: "LeBron James", Username: "kingjames"},
	{Number: 32, Name: "Magic Johnson", Username: "magic", Email: ptr("magic@lakers.com")},
	{Number: 33, Name: "Kareem Abdul-Jabbar", Username: "kareem"},
	{Number: 34, Name: "Shaquille O'Neal", Username: "shaq", Email: ptr("shaq@lakers.com")},
	{Number: 8, Name: "Kobe Bryant", Username: "blackmamba"},
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Discard,
		TranslateError:         true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	pool, err := db.FromGorm(gdb, time.Second)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := NewStore(pool)
	require.NoError(t, store.EnsureSchema(context.Background()))
	return store
}

func seed(t *testing.T, store *Store) []Player {
	t.Helper()
	out := make([]Player, 0, len(lakers))
	for _, p := range lakers {
		saved, err := store.Insert(context.Background(), p)
		require.NoError(t, err)
		out = append(out, saved)
	}
	return out
}

func TestStoreListEmpty(t *testing.T) {
	store := newTestStore(t)

	got, err := store.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStoreSeededRoster(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)

	got, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 6)

	var kobe int
	for _, p := range got {
		if p.Username == "kobe" {
			kobe++
		}
	}
	assert.Equal(t, 1, kobe)
}

func TestStoreInsertAssignsFreshIDs(t *testing.T) {
	store := newTestStore(t)
	saved := seed(t, store)

	seen := map[uuid.UUID]bool{}
	for _, p := range saved {
		require.NotNil(t, p.ID)
		assert.Equal(t, uuid.Version(4), p.ID.Version())
		assert.False(t, seen[*p.ID], "id issued twice")
		seen[*p.ID] = true
	}

	rambo, err := store.Insert(context.Background(), Player{
		Number: 31, Name: "Kurt Rambis", Username: "rambo", Email: ptr("kurt@lakers.com"),
	})
	require.NoError(t, err)
	require.NotNil(t, rambo.ID)
	assert.False(t, seen[*rambo.ID])

	all, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 7)
}

func TestStoreInsertIgnoresCallerID(t *testing.T) {
	store := newTestStore(t)
	supplied := uuid.New()

	saved, err := store.Insert(context.Background(), Player{ID: &supplied, Number: 1, Name: "A", Username: "a"})
	require.NoError(t, err)
	require.NotNil(t, saved.ID)
	assert.NotEqual(t, supplied, *saved.ID)
}

func TestStoreGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	saved := seed(t, store)

	for _, want := range saved {
		got, err := store.Get(context.Background(), *want.ID)
		require.NoError(t, err)
		assert.Equal(t, want.Number, got.Number)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Username, got.Username)
		assert.Equal(t, want.Email, got.Email)
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestStoreInsertRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		player Player
		field  string
	}{
		{"missing name", Player{Number: 1, Username: "noname"}, "name"},
		{"missing username", Player{Number: 2, Name: "No Username"}, "username"},
		{"blank name", Player{Number: 3, Name: "   ", Username: "blank"}, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)

			_, err := store.Insert(context.Background(), tt.player)
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
			assert.Contains(t, err.Error(), tt.field)

			all, err := store.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestStoreInsertDuplicateUsername(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)

	_, err := store.Insert(context.Background(), Player{Number: 99, Name: "Impostor", Username: "kobe"})
	require.Error(t, err)
	assert.True(t, errors.IsAlreadyExists(err))

	all, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 6)
}
