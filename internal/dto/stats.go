package dto

import "time"

type LeaderboardEntryDTO struct {
	Rank        int    `json:"rank" example:"1"`
	CourierID   string `json:"courier_id" example:"1001"`
	Handle      string `json:"handle,omitempty" example:"alice"`
	DisplayName string `json:"display_name" example:"@alice"`
	Total       int64  `json:"total" example:"800"`
}

type StatsResponseDTO struct {
	WeekStart time.Time             `json:"week_start" example:"2026-10-12T00:00:00+03:00"`
	Entries   []LeaderboardEntryDTO `json:"entries"`
	Text      string                `json:"text"`
}
