package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/library-api/internal/models"
)

// newTestStore connects to the database named by LIBRARY_TEST_POSTGRES_DSN,
// migrates it and empties both tables.
func newTestStore(t *testing.T) *PostgresStore {
	t.Helper()

	dsn := os.Getenv("LIBRARY_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LIBRARY_TEST_POSTGRES_DSN not set")
	}
	require.NoError(t, Migrate(dsn))

	ctx := context.Background()
	pool, err := NewPool(ctx, dsn, 4)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE books, members RESTART IDENTITY`)
	require.NoError(t, err)

	return NewPostgresStore(pool)
}

func newBook(title, author, isbn string) models.NewBook {
	return models.NewBook{Title: title, Author: author, ISBN: isbn}
}

func TestPostgres_Members(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	joined := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	m, err := s.CreateMember(ctx, "Ada", "ada@example.com", "hash", joined)
	require.NoError(t, err)
	assert.NotZero(t, m.ID)
	assert.True(t, joined.Equal(m.JoinDate))

	_, err = s.CreateMember(ctx, "Ada Again", "ada@example.com", "hash", joined)
	assert.ErrorIs(t, err, ErrDuplicateKey)

	byEmail, err := s.GetMemberByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", byEmail.PasswordHash)

	byID, err := s.GetMemberByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", byID.Name)
	assert.Empty(t, byID.PasswordHash)

	_, err = s.GetMemberByID(ctx, m.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgres_BookLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	dune, err := s.CreateBook(ctx, newBook("Dune", "Frank Herbert", "9780441013593"))
	require.NoError(t, err)
	assert.NotZero(t, dune.ID)

	exists, err := s.ISBNExists(ctx, "9780441013593")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = s.CreateBook(ctx, newBook("Dune copy", "Someone", "9780441013593"))
	assert.ErrorIs(t, err, ErrDuplicateKey)

	title := "Dune Messiah"
	updated, err := s.UpdateBook(ctx, dune.ID, models.BookPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", updated.Title)
	assert.Equal(t, "Frank Herbert", updated.Author)
	assert.Equal(t, "9780441013593", updated.ISBN)

	got, err := s.GetBook(ctx, dune.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	require.NoError(t, s.DeleteBook(ctx, dune.ID))
	_, err = s.GetBook(ctx, dune.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteBook(ctx, dune.ID), ErrNotFound)

	_, err = s.UpdateBook(ctx, dune.ID, models.BookPatch{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgres_ListBooks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, b := range []models.NewBook{
		newBook("Dune", "Frank Herbert", "9780441013593"),
		newBook("Children of Dune", "Frank Herbert", "9780441104024"),
		newBook("Neuromancer", "William Gibson", "9780441569595"),
		newBook("100% Pure", "Anon_ymous", "1234567890"),
	} {
		_, err := s.CreateBook(ctx, b)
		require.NoError(t, err)
	}

	books, total, err := s.ListBooks(ctx, models.BookQuery{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, books, 2)
	assert.Equal(t, "Dune", books[0].Title)

	books, total, err = s.ListBooks(ctx, models.BookQuery{Search: "dUNe", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, books, 2)

	books, total, err = s.ListBooks(ctx, models.BookQuery{Search: "gibson", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Neuromancer", books[0].Title)

	_, total, err = s.ListBooks(ctx, models.BookQuery{Search: "%", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	books, total, err = s.ListBooks(ctx, models.BookQuery{Limit: 5, Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Empty(t, books)
}
