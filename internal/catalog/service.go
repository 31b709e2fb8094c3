// Package catalog implements the book catalog: create, list with search and
// pagination, fetch, partial update and delete.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/ayush/library-api/internal/models"
	"github.com/ayush/library-api/internal/store"
	"github.com/ayush/library-api/internal/validation"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 5
	MaxPerPage     = 100
)

var (
	ErrDuplicateISBN   = errors.New("a book with this isbn already exists")
	ErrBookNotFound    = errors.New("book not found")
	ErrNoInput         = errors.New("no input data provided")
	ErrStorageConflict = errors.New("storage conflict")
)

// BookStore defines the interface for book persistence.
type BookStore interface {
	CreateBook(ctx context.Context, b models.NewBook) (*models.Book, error)
	ISBNExists(ctx context.Context, isbn string) (bool, error)
	GetBook(ctx context.Context, id int64) (*models.Book, error)
	ListBooks(ctx context.Context, q models.BookQuery) ([]models.Book, int, error)
	UpdateBook(ctx context.Context, id int64, patch models.BookPatch) (*models.Book, error)
	DeleteBook(ctx context.Context, id int64) error
}

type Service struct {
	books    BookStore
	validate *validation.Validator
	log      logrus.FieldLogger
}

func NewService(books BookStore, v *validation.Validator, logger logrus.FieldLogger) *Service {
	return &Service{books: books, validate: v, log: logger.WithField("component", "catalog")}
}

// AddBook validates in, rejects a known ISBN and stores the book. A unique
// violation raised by the store itself is reported as ErrStorageConflict.
func (s *Service) AddBook(ctx context.Context, in models.BookInput) (*models.Book, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	exists, err := s.books.ISBNExists(ctx, *in.ISBN)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateISBN
	}

	book, err := s.books.CreateBook(ctx, models.NewBook{
		Title:         *in.Title,
		Author:        *in.Author,
		PublishedYear: in.PublishedYear,
		ISBN:          *in.ISBN,
	})
	if errors.Is(err, store.ErrDuplicateKey) {
		return nil, fmt.Errorf("%w: %v", ErrStorageConflict, err)
	}
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"book_id": book.ID, "isbn": book.ISBN}).Info("book added")
	return book, nil
}

// ListBooks returns one page of the catalog, optionally filtered by a
// case-insensitive substring of title or author. Out-of-range page or perPage
// values fall back to the defaults; perPage is capped at MaxPerPage.
func (s *Service) ListBooks(ctx context.Context, page, perPage int, search string) (*models.BookPage, error) {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	offset := math.MaxInt
	if page-1 <= math.MaxInt/perPage {
		offset = (page - 1) * perPage
	}

	books, total, err := s.books.ListBooks(ctx, models.BookQuery{Search: search, Offset: offset, Limit: perPage})
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []models.Book{}
	}

	return &models.BookPage{
		TotalBooks:  total,
		TotalPages:  (total + perPage - 1) / perPage,
		CurrentPage: page,
		PerPage:     perPage,
		Books:       books,
	}, nil
}

func (s *Service) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	book, err := s.books.GetBook(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrBookNotFound
	}
	return book, err
}

// UpdateBook overwrites only the fields present in patch. Field formats are
// not re-validated here.
func (s *Service) UpdateBook(ctx context.Context, id int64, patch models.BookPatch) (*models.Book, error) {
	if patch.Empty() {
		if _, err := s.GetBook(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrNoInput
	}

	book, err := s.books.UpdateBook(ctx, id, patch)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrBookNotFound
	case errors.Is(err, store.ErrDuplicateKey):
		return nil, fmt.Errorf("%w: %v", ErrStorageConflict, err)
	case err != nil:
		return nil, err
	}

	s.log.WithField("book_id", book.ID).Info("book updated")
	return book, nil
}

func (s *Service) DeleteBook(ctx context.Context, id int64) error {
	err := s.books.DeleteBook(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrBookNotFound
	}
	if err != nil {
		return err
	}

	s.log.WithField("book_id", id).Info("book deleted")
	return nil
}
