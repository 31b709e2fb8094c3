package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/library-api/internal/models"
	"github.com/ayush/library-api/internal/store"
	"github.com/ayush/library-api/internal/store/memstore"
	"github.com/ayush/library-api/internal/validation"
)

func strPtr(s string) *string { return &s }
func intPtr(v int32) *int32 { return &v }

func newTestService(t *testing.T, books BookStore) *Service {
	t.Helper()
	logger, _ := test.NewNullLogger()
	return NewService(books, validation.New(), logger)
}

func duneInput() models.BookInput {
	return models.BookInput{Title: strPtr("Dune"), Author: strPtr("Herbert"), ISBN: strPtr("9780441013593")}
}

// racingStore reports a fresh ISBN and then loses the insert race.
type racingStore struct {
	*memstore.Store
}

func (racingStore) ISBNExists(context.Context, string) (bool, error) { return false, nil }

func TestService_AddBook(t *testing.T) {
	svc := newTestService(t, memstore.New())
	ctx := context.Background()

	book, err := svc.AddBook(ctx, duneInput())
	require.NoError(t, err)
	assert.NotZero(t, book.ID)
	assert.Equal(t, "Dune", book.Title)
	assert.Nil(t, book.PublishedYear)
}

func TestService_AddBook_DuplicateISBN(t *testing.T) {
	svc := newTestService(t, memstore.New())
	ctx := context.Background()

	_, err := svc.AddBook(ctx, duneInput())
	require.NoError(t, err)

	_, err = svc.AddBook(ctx, models.BookInput{Title: strPtr("Other"), Author: strPtr("Someone"), ISBN: strPtr("9780441013593")})
	assert.ErrorIs(t, err, ErrDuplicateISBN)

	page, err := svc.ListBooks(ctx, 1, 5, "")
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalBooks)
}

func TestService_AddBook_StorageConflict(t *testing.T) {
	books := memstore.New()
	svc := newTestService(t, racingStore{books})
	ctx := context.Background()

	_, err := books.CreateBook(ctx, models.NewBook{Title: "Dune", Author: "Herbert", ISBN: "9780441013593"})
	require.NoError(t, err)

	_, err = svc.AddBook(ctx, duneInput())
	assert.ErrorIs(t, err, ErrStorageConflict)

	_, total, err := books.ListBooks(ctx, models.BookQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestService_AddBook_Validation(t *testing.T) {
	svc := newTestService(t, memstore.New())

	_, err := svc.AddBook(context.Background(), models.BookInput{Title: strPtr(""), ISBN: strPtr("123")})

	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, validation.Errors{
		"title":  {"Shorter than minimum length 1."},
		"author": {"Missing data for required field."},
		"isbn":   {"Shorter than minimum length 10."},
	}, verrs)
}

func TestService_ListBooks_Empty(t *testing.T) {
	svc := newTestService(t, memstore.New())

	page, err := svc.ListBooks(context.Background(), 1, 5, "")
	require.NoError(t, err)
	assert.Equal(t, &models.BookPage{TotalBooks: 0, TotalPages: 0, CurrentPage: 1, PerPage: 5, Books: []models.Book{}}, page)
}

func TestService_ListBooks_Pagination(t *testing.T) {
	books := memstore.New()
	svc := newTestService(t, books)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		author := "Herbert"
		if i%2 == 1 {
			author = "Le Guin"
		}
		_, err := svc.AddBook(ctx, models.BookInput{
			Title:  strPtr(fmt.Sprintf("Book %02d", i)),
			Author: strPtr(author),
			ISBN:   strPtr(fmt.Sprintf("97800000000%02d", i)),
		})
		require.NoError(t, err)
	}

	tests := []struct {
		name        string
		page        int
		perPage     int
		search      string
		wantTotal   int
		wantPages   int
		wantPage    int
		wantPerPage int
		wantFirst   string
		wantLen     int
	}{
		{name: "defaults", wantTotal: 12, wantPages: 3, wantPage: 1, wantPerPage: 5, wantFirst: "Book 00", wantLen: 5},
		{name: "last partial page", page: 3, perPage: 5, wantTotal: 12, wantPages: 3, wantPage: 3, wantPerPage: 5, wantFirst: "Book 10", wantLen: 2},
		{name: "beyond last page", page: 9, perPage: 5, wantTotal: 12, wantPages: 3, wantPage: 9, wantPerPage: 5, wantLen: 0},
		{name: "search author case-insensitive", page: 1, perPage: 10, search: "le gUIN", wantTotal: 6, wantPages: 1, wantPage: 1, wantPerPage: 10, wantFirst: "Book 01", wantLen: 6},
		{name: "search title", page: 1, perPage: 5, search: "book 1", wantTotal: 2, wantPages: 1, wantPage: 1, wantPerPage: 5, wantFirst: "Book 10", wantLen: 2},
		{name: "per_page capped", page: 1, perPage: 1000, wantTotal: 12, wantPages: 1, wantPage: 1, wantPerPage: MaxPerPage, wantFirst: "Book 00", wantLen: 12},
		{name: "no match", search: "tolkien", wantTotal: 0, wantPages: 0, wantPage: 1, wantPerPage: 5, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.ListBooks(ctx, tt.page, tt.perPage, tt.search)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, page.TotalBooks)
			assert.Equal(t, tt.wantPages, page.TotalPages)
			assert.Equal(t, tt.wantPage, page.CurrentPage)
			assert.Equal(t, tt.wantPerPage, page.PerPage)
			require.Len(t, page.Books, tt.wantLen)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantFirst, page.Books[0].Title)
			}
		})
	}
}

func TestService_UpdateBook(t *testing.T) {
	svc := newTestService(t, memstore.New())
	ctx := context.Background()

	in := duneInput()
	in.PublishedYear = intPtr(1965)
	created, err := svc.AddBook(ctx, in)
	require.NoError(t, err)

	updated, err := svc.UpdateBook(ctx, created.ID, models.BookPatch{Title: strPtr("X")})
	require.NoError(t, err)
	assert.Equal(t, "X", updated.Title)
	assert.Equal(t, "Herbert", updated.Author)
	assert.Equal(t, "9780441013593", updated.ISBN)
	assert.Equal(t, intPtr(1965), updated.PublishedYear)

	fetched, err := svc.GetBook(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, fetched)
}

func TestService_UpdateBook_Errors(t *testing.T) {
	svc := newTestService(t, memstore.New())
	ctx := context.Background()

	_, err := svc.UpdateBook(ctx, 404, models.BookPatch{Title: strPtr("X")})
	assert.ErrorIs(t, err, ErrBookNotFound)

	_, err = svc.UpdateBook(ctx, 404, models.BookPatch{})
	assert.ErrorIs(t, err, ErrBookNotFound)

	created, err := svc.AddBook(ctx, duneInput())
	require.NoError(t, err)
	_, err = svc.UpdateBook(ctx, created.ID, models.BookPatch{})
	assert.ErrorIs(t, err, ErrNoInput)

	other, err := svc.AddBook(ctx, models.BookInput{Title: strPtr("Emma"), Author: strPtr("Austen"), ISBN: strPtr("9780141439587")})
	require.NoError(t, err)
	_, err = svc.UpdateBook(ctx, other.ID, models.BookPatch{ISBN: strPtr("9780441013593")})
	assert.ErrorIs(t, err, ErrStorageConflict)
}

func TestService_UpdateBook_SkipsFormatValidation(t *testing.T) {
	svc := newTestService(t, memstore.New())
	ctx := context.Background()

	created, err := svc.AddBook(ctx, duneInput())
	require.NoError(t, err)

	updated, err := svc.UpdateBook(ctx, created.ID, models.BookPatch{ISBN: strPtr("1")})
	require.NoError(t, err)
	assert.Equal(t, "1", updated.ISBN)
}

func TestService_DeleteBook(t *testing.T) {
	svc := newTestService(t, memstore.New())
	ctx := context.Background()

	created, err := svc.AddBook(ctx, duneInput())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBook(ctx, created.ID))

	_, err = svc.GetBook(ctx, created.ID)
	assert.ErrorIs(t, err, ErrBookNotFound)
	_, err = svc.UpdateBook(ctx, created.ID, models.BookPatch{Title: strPtr("X")})
	assert.ErrorIs(t, err, ErrBookNotFound)
	assert.ErrorIs(t, svc.DeleteBook(ctx, created.ID), ErrBookNotFound)
}

type failingStore struct {
	BookStore
}

func (failingStore) ListBooks(context.Context, models.BookQuery) ([]models.Book, int, error) {
	return nil, 0, errors.New("connection reset")
}

func (failingStore) DeleteBook(context.Context, int64) error {
	return fmt.Errorf("delete book: %w", store.ErrNotFound)
}

func TestService_PassesThroughStoreErrors(t *testing.T) {
	svc := newTestService(t, failingStore{})

	_, err := svc.ListBooks(context.Background(), 1, 5, "")
	assert.EqualError(t, err, "connection reset")

	assert.ErrorIs(t, svc.DeleteBook(context.Background(), 1), ErrBookNotFound)
}
