package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/flashplay/internal/models"
	"github.com/vytor/flashplay/internal/repository"
	"github.com/vytor/flashplay/internal/repository/sqlite"
	"github.com/vytor/flashplay/internal/testutil"
)

type CardRepositorySuite struct {
	suite.Suite
	db    *sql.DB
	decks repository.DeckRepository
	repo  repository.CardRepository
}

func (s *CardRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T()).DB
	s.decks = sqlite.NewDeckRepository(s.db)
	s.repo = sqlite.NewCardRepository(s.db)
}

func (s *CardRepositorySuite) setupDeck(owner, title string) int64 {
	id, err := s.decks.Insert(context.Background(), models.Deck{OwnerID: owner, Title: title})
	s.Require().NoError(err)
	return id
}

func (s *CardRepositorySuite) TestInsert() {
	ctx := context.Background()
	deckID := s.setupDeck("u1", "Animals")

	id, err := s.repo.Insert(ctx, models.Flashcard{DeckID: deckID, FrontText: "cat", BackText: "kedi"})
	s.Require().NoError(err)
	s.Assert().Greater(id, int64(0))

	cards, err := s.repo.List(ctx, models.CardFilter{DeckID: deckID})
	s.Require().NoError(err)
	s.Require().Len(cards, 1)
	s.Assert().Equal(id, cards[0].ID)
	s.Assert().Equal("cat", cards[0].FrontText)
	s.Assert().Equal("kedi", cards[0].BackText)
	s.Assert().Equal(deckID, cards[0].DeckID)
	s.Assert().False(cards[0].CreatedAt.IsZero())
}

func (s *CardRepositorySuite) TestInsertBatchAndList() {
	ctx := context.Background()
	deckID := s.setupDeck("u1", "Animals")
	otherDeck := s.setupDeck("u1", "Colors")

	ids, err := s.repo.InsertBatch(ctx, []models.Flashcard{
		{DeckID: deckID, FrontText: "cat", BackText: "kedi"},
		{DeckID: deckID, FrontText: "dog", BackText: "köpek"},
		{DeckID: otherDeck, FrontText: "red", BackText: "kırmızı"},
	})
	s.Require().NoError(err)
	s.Assert().Len(ids, 3)

	cards, err := s.repo.List(ctx, models.CardFilter{DeckID: deckID, UserID: "u1"})
	s.Require().NoError(err)
	s.Require().Len(cards, 2)
	s.Assert().Equal("cat", cards[0].FrontText)
	s.Assert().Equal("dog", cards[1].FrontText)

	limited, err := s.repo.List(ctx, models.CardFilter{DeckID: deckID, Limit: 1})
	s.Require().NoError(err)
	s.Assert().Len(limited, 1)

	other, err := s.repo.List(ctx, models.CardFilter{DeckID: otherDeck})
	s.Require().NoError(err)
	s.Assert().Len(other, 1)

	empty, err := s.repo.InsertBatch(ctx, nil)
	s.Require().NoError(err)
	s.Assert().Empty(empty)
}

func (s *CardRepositorySuite) TestHardOnlyFilter() {
	ctx := context.Background()
	deckID := s.setupDeck("u1", "Animals")
	ids, err := s.repo.InsertBatch(ctx, []models.Flashcard{
		{DeckID: deckID, FrontText: "cat", BackText: "kedi"},
		{DeckID: deckID, FrontText: "dog", BackText: "köpek"},
		{DeckID: deckID, FrontText: "bird", BackText: "kuş"},
	})
	s.Require().NoError(err)

	now := time.Now()
	// cat: missed twice, right once. dog: even. bird: unseen.
	s.Require().NoError(s.repo.RecordOutcome(ctx, ids[0], "u1", false, now))
	s.Require().NoError(s.repo.RecordOutcome(ctx, ids[0], "u1", false, now))
	s.Require().NoError(s.repo.RecordOutcome(ctx, ids[0], "u1", true, now))
	s.Require().NoError(s.repo.RecordOutcome(ctx, ids[1], "u1", false, now))
	s.Require().NoError(s.repo.RecordOutcome(ctx, ids[1], "u1", true, now))
	// Another user's misses do not count.
	s.Require().NoError(s.repo.RecordOutcome(ctx, ids[2], "u2", false, now))

	hard, err := s.repo.List(ctx, models.CardFilter{DeckID: deckID, UserID: "u1", HardOnly: true})
	s.Require().NoError(err)
	s.Require().Len(hard, 1)
	s.Assert().Equal(ids[0], hard[0].ID)

	hard, err = s.repo.List(ctx, models.CardFilter{DeckID: deckID, UserID: "u2", HardOnly: true})
	s.Require().NoError(err)
	s.Assert().Len(hard, 1)
}

func (s *CardRepositorySuite) TestRecordOutcomeAccumulates() {
	ctx := context.Background()
	deckID := s.setupDeck("u1", "Animals")
	id, err := s.repo.Insert(ctx, models.Flashcard{DeckID: deckID, FrontText: "cat", BackText: "kedi"})
	s.Require().NoError(err)
	hardOnly := models.CardFilter{DeckID: deckID, UserID: "u1", HardOnly: true}

	s.Require().NoError(s.repo.RecordOutcome(ctx, id, "u1", true, time.Now()))
	s.Require().NoError(s.repo.RecordOutcome(ctx, id, "u1", true, time.Now()))
	s.Require().NoError(s.repo.RecordOutcome(ctx, id, "u1", false, time.Now()))
	hard, err := s.repo.List(ctx, hardOnly)
	s.Require().NoError(err)
	s.Assert().Empty(hard)

	// 2 right, 3 wrong
	s.Require().NoError(s.repo.RecordOutcome(ctx, id, "u1", false, time.Now()))
	s.Require().NoError(s.repo.RecordOutcome(ctx, id, "u1", false, time.Now()))
	hard, err = s.repo.List(ctx, hardOnly)
	s.Require().NoError(err)
	s.Assert().Len(hard, 1)
}

func (s *CardRepositorySuite) TestDeckCardCount() {
	ctx := context.Background()
	deckID := s.setupDeck("u1", "Animals")
	s.setupDeck("u2", "Someone else")
	_, err := s.repo.InsertBatch(ctx, []models.Flashcard{
		{DeckID: deckID, FrontText: "cat", BackText: "kedi"},
		{DeckID: deckID, FrontText: "dog", BackText: "köpek"},
	})
	s.Require().NoError(err)

	deck, err := s.decks.Get(ctx, deckID)
	s.Require().NoError(err)
	s.Assert().Equal(2, deck.CardCount)
	s.Assert().Equal("Animals", deck.Title)

	decks, err := s.decks.ListByOwner(ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(decks, 1)
	s.Assert().Equal(deckID, decks[0].ID)

	_, err = s.decks.Get(ctx, 999)
	s.Assert().ErrorIs(err, sql.ErrNoRows)
}

func TestCardRepositorySuite(t *testing.T) {
	suite.Run(t, new(CardRepositorySuite))
}
