package game

import (
	"fmt"
	"math/rand"

	"github.com/vytor/flashplay/internal/models"
)

type Side string

const (
	SideFront Side = "front"
	SideBack  Side = "back"
)

// Tile is one face-down card of the memory game. Both tiles dealt from a
// flashcard share its id as PairID.
type Tile struct {
	ID     string `json:"id"`
	CardID int64  `json:"card_id"`
	Text   string `json:"text"`
	Side   Side   `json:"side"`
	PairID int64  `json:"pair_id"`
}

// IsMatch reports whether two tiles form a pair: same pair, opposite sides.
func IsMatch(a, b Tile) bool {
	return a.PairID == b.PairID && a.Side != b.Side
}

// BuildTiles deals a front and a back tile for every card and shuffles them.
func BuildTiles(cards []models.Flashcard, rng *rand.Rand) []Tile {
	tiles := make([]Tile, 0, len(cards)*2)
	for _, c := range cards {
		tiles = append(tiles,
			Tile{ID: fmt.Sprintf("%d-front", c.ID), CardID: c.ID, Text: c.FrontText, Side: SideFront, PairID: c.ID},
			Tile{ID: fmt.Sprintf("%d-back", c.ID), CardID: c.ID, Text: c.BackText, Side: SideBack, PairID: c.ID},
		)
	}
	rng.Shuffle(len(tiles), func(i, j int) {
		tiles[i], tiles[j] = tiles[j], tiles[i]
	})
	return tiles
}

// samplePairs keeps at most n cards with distinct ids, in pool order.
func samplePairs(cards []models.Flashcard, n int) []models.Flashcard {
	seen := make(map[int64]bool, n)
	out := make([]models.Flashcard, 0, n)
	for _, c := range cards {
		if len(out) == n {
			break
		}
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}
