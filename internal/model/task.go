package model

import "time"

// Task is a simple to-do board item. Status is an opaque client string;
// the server only stores it.
type Task struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
