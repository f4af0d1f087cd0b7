package domain

// Rating is one user's rating of one book.
// At most one Rating exists per (UserID, BookID) pair; the store's upsert
// semantics enforce this, not a uniqueness constraint alone.
type Rating struct {
	Record
	UserID  string  `json:"userId"`
	BookID  string  `json:"bookId"`
	Value   float64 `json:"rating"`
	Comment string  `json:"comment,omitempty"`
}
