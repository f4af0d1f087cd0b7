// Package domain contains the core business entities for the shelfrate catalog.
package domain

// Book represents a catalog entry.
//
// The Ratings slice is a back-reference holding the IDs of all ratings that
// target this book. The store keeps it consistent with the rating records in
// the same transaction; nothing else may write to it.
type Book struct {
	Record
	ISBN      string   `json:"ISBN"`
	Title     string   `json:"bookTitle"`
	Author    string   `json:"bookAuthor"`
	Year      *int     `json:"yearOfPublication,omitempty"`
	Publisher string   `json:"publisher,omitempty"`
	ImageURLS string   `json:"imageUrlS,omitempty"`
	ImageURLM string   `json:"imageUrlM,omitempty"`
	ImageURLL string   `json:"imageUrlL,omitempty"`
	Ratings   []string `json:"ratings,omitempty"`
}

// RatedBook is a Book enriched with rating aggregates computed at query time.
// AvgRating is nil when the book has no ratings; it is never persisted.
type RatedBook struct {
	Book
	AvgRating    *float64 `json:"avgRating"`
	RatingsCount int      `json:"ratingsCount"`
}

// RankedBook is a RatedBook with its popularity score attached.
type RankedBook struct {
	RatedBook
	Score float64 `json:"weightedScore"`
}

// HasRatings reports whether any rating aggregates were joined.
func (b *RatedBook) HasRatings() bool {
	return b.AvgRating != nil
}

// AddRatingRef appends a rating ID to the back-reference list if not present.
func (b *Book) AddRatingRef(ratingID string) {
	for _, id := range b.Ratings {
		if id == ratingID {
			return
		}
	}
	b.Ratings = append(b.Ratings, ratingID)
}

// RemoveRatingRef removes a rating ID from the back-reference list.
// Returns true if the ID was present.
func (b *Book) RemoveRatingRef(ratingID string) bool {
	for i, id := range b.Ratings {
		if id == ratingID {
			b.Ratings = append(b.Ratings[:i], b.Ratings[i+1:]...)
			return true
		}
	}
	return false
}
