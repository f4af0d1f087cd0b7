package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/shelfrate/shelfrate-server/internal/domain"
	apperr "github.com/shelfrate/shelfrate-server/internal/errors"
)

// Rating records are not served by the generic Entity layer because every
// mutation must also touch the owning book's back-reference list. Badger
// transactions make the pair atomic, so the rating record and the book's
// Ratings list can never diverge.
//
// Key layout:
//
//	rating:<id>                        -> rating record
//	rating:idx:pair:<userID>:<bookID>  -> rating ID (one rating per pair)
//	rating:idx:user:<userID>:<id>      -> rating ID (scan: all ratings by user)
//	rating:idx:book:<bookID>:<id>      -> rating ID (scan: all ratings of book)

func ratingKey(id string) string {
	return ratingPrefix + id
}

func ratingPairKey(userID, bookID string) string {
	return ratingPrefix + "idx:pair:" + userID + ":" + bookID
}

func ratingUserKey(userID, id string) string {
	return ratingPrefix + "idx:user:" + userID + ":" + id
}

func ratingBookKey(bookID, id string) string {
	return ratingPrefix + "idx:book:" + bookID + ":" + id
}

// UpsertRating creates or overwrites the rating for (rating.UserID,
// rating.BookID) in a single transaction.
//
// If a rating for the pair exists, its value and comment are overwritten in
// place and its identity is unchanged; rating.ID is ignored. Otherwise the
// record is created under rating.ID and appended to the book's back-reference
// list atomically. Returns ErrNotFound if the book does not exist.
func (s *Store) UpsertRating(ctx context.Context, rating *domain.Rating) (*domain.Rating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result domain.Rating

	err := s.db.Update(func(txn *badger.Txn) error {
		existingID, err := lookupID(txn, ratingPairKey(rating.UserID, rating.BookID))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check rating pair index: %w", err)
		}

		if existingID != "" {
			if err := getLocked(txn, ratingKey(existingID), &result); err != nil {
				return fmt.Errorf("failed to load existing rating %s: %w", existingID, err)
			}
			result.Value = rating.Value
			result.Comment = rating.Comment
			result.Touch()
			return setLocked(txn, ratingKey(result.ID), &result)
		}

		// New rating: the book must exist before we can reference it.
		var book domain.Book
		err = getLocked(txn, bookPrefix+rating.BookID, &book)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return apperr.NotFoundf("book %s not found", rating.BookID)
		}
		if err != nil {
			return fmt.Errorf("failed to load book %s: %w", rating.BookID, err)
		}

		result = *rating
		if err := setLocked(txn, ratingKey(result.ID), &result); err != nil {
			return fmt.Errorf("failed to set rating: %w", err)
		}

		for _, key := range []string{
			ratingPairKey(result.UserID, result.BookID),
			ratingUserKey(result.UserID, result.ID),
			ratingBookKey(result.BookID, result.ID),
		} {
			if err := txn.Set([]byte(key), []byte(result.ID)); err != nil {
				return fmt.Errorf("failed to set rating index key: %w", err)
			}
		}

		book.AddRatingRef(result.ID)
		book.Touch()
		return setLocked(txn, bookPrefix+book.ID, &book)
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// DeleteRating removes the rating for (userID, bookID) and pulls its ID from
// the book's back-reference list in the same transaction.
//
// Returns ErrNotFound if no rating exists for the pair. A rating that
// references a missing book is an integrity violation and fails loudly
// instead of being swallowed.
func (s *Store) DeleteRating(ctx context.Context, userID, bookID string) (*domain.Rating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var deleted domain.Rating

	err := s.db.Update(func(txn *badger.Txn) error {
		id, err := lookupID(txn, ratingPairKey(userID, bookID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return apperr.NotFound("rating not found")
		}
		if err != nil {
			return fmt.Errorf("failed to check rating pair index: %w", err)
		}

		if err := getLocked(txn, ratingKey(id), &deleted); err != nil {
			return fmt.Errorf("failed to load rating %s: %w", id, err)
		}

		for _, key := range []string{
			ratingKey(id),
			ratingPairKey(userID, bookID),
			ratingUserKey(userID, id),
			ratingBookKey(bookID, id),
		} {
			if err := txn.Delete([]byte(key)); err != nil {
				return fmt.Errorf("failed to delete rating key: %w", err)
			}
		}

		var book domain.Book
		err = getLocked(txn, bookPrefix+bookID, &book)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return apperr.Internalf("rating %s references missing book %s", id, bookID)
		}
		if err != nil {
			return fmt.Errorf("failed to load book %s: %w", bookID, err)
		}

		if !book.RemoveRatingRef(id) && s.logger != nil {
			s.logger.Warn("rating was absent from book back-reference list",
				"rating_id", id,
				"book_id", bookID,
			)
		}
		book.Touch()
		return setLocked(txn, bookPrefix+book.ID, &book)
	})
	if err != nil {
		return nil, err
	}

	return &deleted, nil
}

// GetRating retrieves the rating for (userID, bookID).
// Returns ErrNotFound if none exists.
func (s *Store) GetRating(ctx context.Context, userID, bookID string) (*domain.Rating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rating domain.Rating
	err := s.db.View(func(txn *badger.Txn) error {
		id, err := lookupID(txn, ratingPairKey(userID, bookID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return apperr.NotFound("rating not found")
		}
		if err != nil {
			return err
		}
		return getLocked(txn, ratingKey(id), &rating)
	})
	if err != nil {
		return nil, err
	}

	return &rating, nil
}

// RatingsByUser returns all ratings created by a user.
func (s *Store) RatingsByUser(ctx context.Context, userID string) ([]*domain.Rating, error) {
	return s.ratingsByIndex(ctx, ratingPrefix+"idx:user:"+userID+":")
}

// RatingsByBook returns all ratings targeting a book.
func (s *Store) RatingsByBook(ctx context.Context, bookID string) ([]*domain.Rating, error) {
	return s.ratingsByIndex(ctx, ratingPrefix+"idx:book:"+bookID+":")
}

// ratingsByIndex scans an index prefix and loads each referenced rating
// within one read transaction.
func (s *Store) ratingsByIndex(ctx context.Context, prefix string) ([]*domain.Rating, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ratings []*domain.Rating
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var id string
			err := it.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			})
			if err != nil {
				return err
			}

			var rating domain.Rating
			if err := getLocked(txn, ratingKey(id), &rating); err != nil {
				return fmt.Errorf("failed to load rating %s: %w", id, err)
			}
			ratings = append(ratings, &rating)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return ratings, nil
}

// lookupID reads a string ID stored under an index key.
func lookupID(txn *badger.Txn, key string) (string, error) {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return "", err
	}
	var id string
	err = item.Value(func(val []byte) error {
		id = string(val)
		return nil
	})
	return id, err
}
