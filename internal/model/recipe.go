package model

import "time"

type Recipe struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Name         string    `json:"name"`
	Ingredients  []string  `json:"ingredients"`
	Instructions []string  `json:"instructions"`
	CookingTime  string    `json:"cooking_time,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
