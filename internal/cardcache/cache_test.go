package cardcache

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/flashplay/internal/game"
	"github.com/vytor/flashplay/internal/models"
	"github.com/vytor/flashplay/internal/testutil/mocks"
)

type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	failGet error
	failSet error
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	b, ok := m.data[key]
	if !ok {
		return nil, ErrMiss
	}
	return b, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		return m.failSet
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func reverse(n int, swap func(i, j int)) {
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		swap(i, j)
	}
}

var testPool = game.Pool{
	Cards: []models.Flashcard{
		{ID: 1, DeckID: 7, FrontText: "cat", BackText: "kedi"},
		{ID: 2, DeckID: 7, FrontText: "dog", BackText: "köpek"},
	},
	Choices: map[int64][]models.ChoiceOption{
		1: {{Text: "kedi", IsCorrect: true}, {Text: "köpek"}},
	},
}

func TestCachedSource_MissThenHit(t *testing.T) {
	ctx := context.Background()
	src := new(mocks.MockCardSource)
	src.On("FetchCards", mock.Anything, int64(7), game.ModeChoice, false).Return(testPool, nil).Once()

	store := newMemStore()
	cached := NewCachedSource(src, store, time.Minute, "u1")
	cached.shuffle = reverse

	first, err := cached.FetchCards(ctx, 7, game.ModeChoice, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Cards[0].ID)
	assert.Equal(t, time.Minute, store.ttls["flashplay:cards:u1:7:multiple_choice"])

	second, err := cached.FetchCards(ctx, 7, game.ModeChoice, false)
	require.NoError(t, err)
	require.Len(t, second.Cards, 2)
	assert.Equal(t, int64(2), second.Cards[0].ID, "hits are reshuffled")
	assert.Equal(t, "köpek", second.Choices[1][0].Text)
	src.AssertNumberOfCalls(t, "FetchCards", 1)
}

func TestCachedSource_HardModeBypasses(t *testing.T) {
	ctx := context.Background()
	src := new(mocks.MockCardSource)
	src.On("FetchCards", mock.Anything, int64(7), game.ModeStandard, true).Return(testPool, nil)

	store := newMemStore()
	cached := NewCachedSource(src, store, time.Minute, "u1")
	for i := 0; i < 2; i++ {
		_, err := cached.FetchCards(ctx, 7, game.ModeStandard, true)
		require.NoError(t, err)
	}
	src.AssertNumberOfCalls(t, "FetchCards", 2)
	assert.Empty(t, store.data)
}

func TestCachedSource_StoreFailuresFallThrough(t *testing.T) {
	ctx := context.Background()
	src := new(mocks.MockCardSource)
	src.On("FetchCards", mock.Anything, int64(7), game.ModeStandard, false).Return(testPool, nil)

	store := newMemStore()
	store.failGet = stderrors.New("connection refused")
	store.failSet = stderrors.New("connection refused")

	pool, err := NewCachedSource(src, store, time.Minute, "u1").FetchCards(ctx, 7, game.ModeStandard, false)
	require.NoError(t, err)
	assert.Len(t, pool.Cards, 2)
}

func TestCachedSource_EmptyAndFailedPoolsAreNotCached(t *testing.T) {
	ctx := context.Background()
	src := new(mocks.MockCardSource)
	src.On("FetchCards", mock.Anything, int64(8), game.ModeStandard, false).Return(game.Pool{}, nil)
	src.On("FetchCards", mock.Anything, int64(9), game.ModeStandard, false).Return(game.Pool{}, stderrors.New("down"))

	store := newMemStore()
	cached := NewCachedSource(src, store, time.Minute, "u1")

	pool, err := cached.FetchCards(ctx, 8, game.ModeStandard, false)
	require.NoError(t, err)
	assert.Empty(t, pool.Cards)

	_, err = cached.FetchCards(ctx, 9, game.ModeStandard, false)
	assert.Error(t, err)
	assert.Empty(t, store.data)
}

func TestCachedSource_CorruptEntryIsRefetched(t *testing.T) {
	ctx := context.Background()
	src := new(mocks.MockCardSource)
	src.On("FetchCards", mock.Anything, int64(7), game.ModeStandard, false).Return(testPool, nil)

	store := newMemStore()
	store.data[Key("u1", 7, game.ModeStandard)] = []byte("{not json")

	pool, err := NewCachedSource(src, store, time.Minute, "u1").FetchCards(ctx, 7, game.ModeStandard, false)
	require.NoError(t, err)
	assert.Len(t, pool.Cards, 2)
	src.AssertNumberOfCalls(t, "FetchCards", 1)
}

func TestKeyIsUserScoped(t *testing.T) {
	assert.NotEqual(t, Key("u1", 7, game.ModeWrite), Key("u2", 7, game.ModeWrite))
	assert.Equal(t, "flashplay:cards:u1:7:write", Key("u1", 7, game.ModeWrite))
}
