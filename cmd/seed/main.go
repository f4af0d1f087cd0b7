// Package main provides a tool to seed the database from CSV dumps.
//
// Book rows are semicolon-separated:
//
//	ISBN;Title;Author;Year;Publisher;ImageURLS;ImageURLM;ImageURLL
//
// Rating rows are semicolon-separated:
//
//	UserID;ISBN;Rating
//
// Usage:
//
//	STORE_PATH=~/shelfrate/data go run ./cmd/seed --books Books.csv
//	STORE_PATH=~/shelfrate/data go run ./cmd/seed --books Books.csv --ratings Ratings.csv
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/shelfrate/shelfrate-server/internal/domain"
	apperr "github.com/shelfrate/shelfrate-server/internal/errors"
	"github.com/shelfrate/shelfrate-server/internal/id"
	"github.com/shelfrate/shelfrate-server/internal/store"
)

var (
	booksPath   = flag.String("books", "", "Path to the books CSV file")
	ratingsPath = flag.String("ratings", "", "Path to the ratings CSV file")
	hasHeader   = flag.Bool("header", true, "Whether CSV files start with a header row")
)

func main() {
	flag.Parse()

	if *booksPath == "" && *ratingsPath == "" {
		log.Fatal("Nothing to do: pass --books and/or --ratings")
	}

	storePath := os.Getenv("STORE_PATH")
	if storePath == "" {
		storePath = os.ExpandEnv("$HOME/shelfrate/data")
	}

	fmt.Printf("Opening database at: %s\n", storePath)

	s, err := store.New(storePath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	if *booksPath != "" {
		imported, skipped, err := importBooks(ctx, s, *booksPath)
		if err != nil {
			log.Fatalf("Book import failed: %v", err)
		}
		fmt.Printf("Books: %d imported, %d skipped\n", imported, skipped)
	}

	if *ratingsPath != "" {
		imported, skipped, err := importRatings(ctx, s, *ratingsPath)
		if err != nil {
			log.Fatalf("Rating import failed: %v", err)
		}
		fmt.Printf("Ratings: %d imported, %d skipped\n", imported, skipped)
	}
}

func openCSV(path string) (*csv.Reader, *os.File, error) {
	f, err := os.Open(path) //#nosec G304 -- CLI input path
	if err != nil {
		return nil, nil, err
	}

	r := csv.NewReader(f)
	r.Comma = ';'
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	return r, f, nil
}

func importBooks(ctx context.Context, s *store.Store, path string) (imported, skipped int, err error) {
	r, f, err := openCSV(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	first := *hasHeader
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return imported, skipped, fmt.Errorf("read row: %w", err)
		}
		if first {
			first = false
			continue
		}
		if len(row) < 3 {
			skipped++
			continue
		}

		book := &domain.Book{
			ISBN:   strings.TrimSpace(row[0]),
			Title:  strings.TrimSpace(row[1]),
			Author: strings.TrimSpace(row[2]),
		}
		if len(row) > 3 {
			if year, err := strconv.Atoi(strings.TrimSpace(row[3])); err == nil && year > 0 {
				book.Year = &year
			}
		}
		if len(row) > 4 {
			book.Publisher = strings.TrimSpace(row[4])
		}
		if len(row) > 5 {
			book.ImageURLS = strings.TrimSpace(row[5])
		}
		if len(row) > 6 {
			book.ImageURLM = strings.TrimSpace(row[6])
		}
		if len(row) > 7 {
			book.ImageURLL = strings.TrimSpace(row[7])
		}

		if book.Title == "" {
			skipped++
			continue
		}

		bookID, err := id.Generate("book")
		if err != nil {
			return imported, skipped, err
		}
		book.ID = bookID
		book.InitTimestamps()

		switch err := s.Books.Create(ctx, bookID, book); {
		case err == nil:
			imported++
		case apperr.Is(err, apperr.ErrAlreadyExists):
			// Duplicate ISBN in the dump, first one wins.
			skipped++
		default:
			return imported, skipped, fmt.Errorf("create book %q: %w", book.Title, err)
		}
	}

	return imported, skipped, nil
}

func importRatings(ctx context.Context, s *store.Store, path string) (imported, skipped int, err error) {
	r, f, err := openCSV(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	first := *hasHeader
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return imported, skipped, fmt.Errorf("read row: %w", err)
		}
		if first {
			first = false
			continue
		}
		if len(row) < 3 {
			skipped++
			continue
		}

		userID := strings.TrimSpace(row[0])
		isbn := strings.TrimSpace(row[1])
		value, convErr := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if userID == "" || isbn == "" || convErr != nil || value < 1 || value > 10 {
			// The BX dump uses 0 for implicit feedback, which is not a rating.
			skipped++
			continue
		}

		book, err := s.Books.GetByIndex(ctx, "isbn", isbn)
		if apperr.Is(err, apperr.ErrNotFound) {
			skipped++
			continue
		}
		if err != nil {
			return imported, skipped, fmt.Errorf("lookup isbn %q: %w", isbn, err)
		}

		ratingID, err := id.Generate("rating")
		if err != nil {
			return imported, skipped, err
		}
		rating := &domain.Rating{
			UserID: userID,
			BookID: book.ID,
			Value:  value,
		}
		rating.ID = ratingID
		rating.InitTimestamps()

		if _, err := s.UpsertRating(ctx, rating); err != nil {
			return imported, skipped, fmt.Errorf("rating for isbn %q: %w", isbn, err)
		}
		imported++
	}

	return imported, skipped, nil
}
