package chat

import "time"

// Chat groups the messages of one conversation under an owning user.
// Created on first use; only the title is ever mutated afterwards.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}
