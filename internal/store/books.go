package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ayush/library-api/internal/models"
)

const bookColumns = `id, title, author, published_year, isbn`

func scanBook(row pgx.CollectableRow) (models.Book, error) {
	var b models.Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.PublishedYear, &b.ISBN)
	return b, err
}

// CreateBook inserts b in its own transaction. A concurrent insert of the same
// ISBN surfaces as ErrDuplicateKey and nothing is written.
func (s *PostgresStore) CreateBook(ctx context.Context, b models.NewBook) (*models.Book, error) {
	book := models.Book{Title: b.Title, Author: b.Author, PublishedYear: b.PublishedYear, ISBN: b.ISBN}
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx,
			`INSERT INTO books (title, author, published_year, isbn)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			b.Title, b.Author, b.PublishedYear, b.ISBN,
		).Scan(&book.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("create book: %w", mapError(err))
	}
	return &book, nil
}

func (s *PostgresStore) ISBNExists(ctx context.Context, isbn string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM books WHERE isbn = $1)`, isbn,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check isbn: %w", mapError(err))
	}
	return exists, nil
}

func (s *PostgresStore) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", mapError(err))
	}
	b, err := pgx.CollectExactlyOneRow(rows, scanBook)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", mapError(err))
	}
	return &b, nil
}

// ListBooks returns one page of books in id order together with the number of
// books matching q.Search. Count and page come from the same snapshot.
func (s *PostgresStore) ListBooks(ctx context.Context, q models.BookQuery) ([]models.Book, int, error) {
	var (
		where string
		args  []any
	)
	if q.Search != "" {
		where = ` WHERE title ILIKE $1 ESCAPE '\' OR author ILIKE $1 ESCAPE '\'`
		args = append(args, "%"+escapeLike(q.Search)+"%")
	}

	var (
		total int
		books []models.Book
	)
	txOpts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	err := pgx.BeginTxFunc(ctx, s.pool, txOpts, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM books`+where, args...).Scan(&total); err != nil {
			return err
		}

		n := len(args)
		query := fmt.Sprintf(`SELECT %s FROM books%s ORDER BY id LIMIT $%d OFFSET $%d`, bookColumns, where, n+1, n+2)
		rows, err := tx.Query(ctx, query, append(args, q.Limit, q.Offset)...)
		if err != nil {
			return err
		}
		books, err = pgx.CollectRows(rows, scanBook)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", mapError(err))
	}
	return books, total, nil
}

// UpdateBook locks the row, applies patch and writes the result back.
func (s *PostgresStore) UpdateBook(ctx context.Context, id int64, patch models.BookPatch) (*models.Book, error) {
	var book models.Book
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		book, err = pgx.CollectExactlyOneRow(rows, scanBook)
		if err != nil {
			return err
		}

		patch.Apply(&book)
		_, err = tx.Exec(ctx,
			`UPDATE books SET title = $2, author = $3, published_year = $4, isbn = $5 WHERE id = $1`,
			book.ID, book.Title, book.Author, book.PublishedYear, book.ISBN,
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update book: %w", mapError(err))
	}
	return &book, nil
}

func (s *PostgresStore) DeleteBook(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete book: %w", mapError(pgx.ErrNoRows))
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
