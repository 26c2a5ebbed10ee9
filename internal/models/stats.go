package models

type DeckStats struct {
	DeckID       int64   `json:"deck_id"`
	TotalCards   int     `json:"total_cards"`
	HardCards    int     `json:"hard_cards"`
	Sessions     int     `json:"sessions"`
	CardsStudied int     `json:"cards_studied"`
	TotalCorrect int     `json:"total_correct"`
	TotalWrong   int     `json:"total_wrong"`
	Accuracy     float64 `json:"accuracy"`
	AvgDuration  float64 `json:"avg_duration_seconds"`
}
