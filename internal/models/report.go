package models

import "time"

const (
	MovementFast      = "fast"
	MovementSlow      = "slow"
	MovementNonMoving = "non-moving"
)

type FSNEntry struct {
	ProductID    int64     `json:"productId"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	BookingCount int       `json:"bookingCount"`
	LastBookedAt time.Time `json:"lastBookedAt"`
	Movement     string    `json:"movement"`
}

type FSNReport struct {
	GeneratedAt time.Time  `json:"generatedAt"`
	Since       time.Time  `json:"since"`
	Fast        []FSNEntry `json:"fast"`
	Slow        []FSNEntry `json:"slow"`
	NonMoving   []FSNEntry `json:"nonMoving"`
}
