package domain

import "time"

// Project is a book project owned by a user. The gateway only cares about
// ownership; the heavy content pipeline lives elsewhere.
type Project struct {
	ID        string
	OwnerID   string
	Title     string
	Subtitle  string
	WordCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}
