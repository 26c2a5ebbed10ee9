package game_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/flashplay/internal/game"
	"github.com/vytor/flashplay/internal/models"
)

func TestIsMatch(t *testing.T) {
	front := game.Tile{ID: "1-front", PairID: 1, Side: game.SideFront}
	back := game.Tile{ID: "1-back", PairID: 1, Side: game.SideBack}
	other := game.Tile{ID: "2-back", PairID: 2, Side: game.SideBack}

	assert.True(t, game.IsMatch(front, back))
	assert.True(t, game.IsMatch(back, front))
	assert.False(t, game.IsMatch(front, front))
	assert.False(t, game.IsMatch(back, back))
	assert.False(t, game.IsMatch(front, other))
}

func TestBuildTiles(t *testing.T) {
	cards := []models.Flashcard{
		{ID: 1, FrontText: "cat", BackText: "kedi"},
		{ID: 2, FrontText: "dog", BackText: "köpek"},
	}
	tiles := game.BuildTiles(cards, rand.New(rand.NewSource(42)))
	require.Len(t, tiles, 4)

	byID := make(map[string]game.Tile, len(tiles))
	for _, tile := range tiles {
		byID[tile.ID] = tile
	}
	require.Contains(t, byID, "1-front")
	require.Contains(t, byID, "2-back")
	assert.Equal(t, "cat", byID["1-front"].Text)
	assert.Equal(t, "köpek", byID["2-back"].Text)
	assert.Equal(t, int64(2), byID["2-back"].PairID)
	assert.True(t, game.IsMatch(byID["2-front"], byID["2-back"]))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    game.Mode
		wantErr bool
	}{
		{in: "standard", want: game.ModeStandard},
		{in: "Write", want: game.ModeWrite},
		{in: "multiple_choice", want: game.ModeChoice},
		{in: "quiz", want: game.ModeChoice},
		{in: "match", want: game.ModeMatch},
		{in: "speedrun", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := game.ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModeTextRoundTrip(t *testing.T) {
	var m game.Mode
	require.NoError(t, m.UnmarshalText([]byte("multiple_choice")))
	text, err := m.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "multiple_choice", string(text))

	var c game.Challenge
	assert.Error(t, c.UnmarshalText([]byte("hardcore")))
	require.NoError(t, c.UnmarshalText([]byte("survival")))
	assert.Equal(t, game.ChallengeSurvival, c)
}

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 0, game.Accuracy(0, 0))
	assert.Equal(t, 50, game.Accuracy(1, 1))
	assert.Equal(t, 67, game.Accuracy(2, 1))
	assert.Equal(t, 100, game.Accuracy(5, 0))
}
