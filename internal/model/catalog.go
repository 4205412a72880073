package model

import "time"

type Genre struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type Actor struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Movie embeds its genres and actors so a single response describes the
// whole film.  DurationMin drives the end time of every showtime.
type Movie struct {
	ID          uint64     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DurationMin int        `json:"duration_min"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
	Genres      []Genre    `json:"genres"`
	Actors      []Actor    `json:"actors"`
}

// Duration returns the running time as a time.Duration.
func (m Movie) Duration() time.Duration {
	return time.Duration(m.DurationMin) * time.Minute
}

// Review is a user's rating (1..5) and comment on a movie.
type Review struct {
	ID       uint64    `json:"id"`
	AuthorID uint64    `json:"-"`
	Author   *User     `json:"author,omitempty"`
	MovieID  uint64    `json:"movie"`
	Rating   int       `json:"rating"`
	Comment  string    `json:"comment"`
	Date     time.Time `json:"date"`
}
