// Package memstore is an in-memory implementation of the member and book
// repositories and of the token revocation list. It backs STORE_DRIVER=memory
// and the service tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ayush/library-api/internal/models"
	"github.com/ayush/library-api/internal/store"
)

type Store struct {
	mu         sync.Mutex
	members    map[int64]models.Member
	books      map[int64]models.Book
	nextMember int64
	nextBook   int64
}

func New() *Store {
	return &Store{
		members: make(map[int64]models.Member),
		books:   make(map[int64]models.Book),
	}
}

func (s *Store) CreateMember(_ context.Context, name, email, passwordHash string, joinDate time.Time) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.members {
		if m.Email == email {
			return nil, fmt.Errorf("create member: %w", store.ErrDuplicateKey)
		}
	}
	s.nextMember++
	m := models.Member{ID: s.nextMember, Name: name, Email: email, PasswordHash: passwordHash, JoinDate: joinDate}
	s.members[m.ID] = m
	return &m, nil
}

func (s *Store) GetMemberByEmail(_ context.Context, email string) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.members {
		if m.Email == email {
			return &m, nil
		}
	}
	return nil, fmt.Errorf("get member by email: %w", store.ErrNotFound)
}

func (s *Store) GetMemberByID(_ context.Context, id int64) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[id]
	if !ok {
		return nil, fmt.Errorf("get member: %w", store.ErrNotFound)
	}
	m.PasswordHash = ""
	return &m, nil
}

func (s *Store) CreateBook(_ context.Context, b models.NewBook) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isbnTaken(b.ISBN, 0) {
		return nil, fmt.Errorf("create book: %w", store.ErrDuplicateKey)
	}
	s.nextBook++
	book := models.Book{ID: s.nextBook, Title: b.Title, Author: b.Author, PublishedYear: copyInt(b.PublishedYear), ISBN: b.ISBN}
	s.books[book.ID] = book
	return &book, nil
}

func (s *Store) ISBNExists(_ context.Context, isbn string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isbnTaken(isbn, 0), nil
}

func (s *Store) GetBook(_ context.Context, id int64) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return nil, fmt.Errorf("get book: %w", store.ErrNotFound)
	}
	return &b, nil
}

func (s *Store) ListBooks(_ context.Context, q models.BookQuery) ([]models.Book, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(q.Search)
	var matched []models.Book
	for _, b := range s.books {
		if needle == "" ||
			strings.Contains(strings.ToLower(b.Title), needle) ||
			strings.Contains(strings.ToLower(b.Author), needle) {
			matched = append(matched, b)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	if q.Offset >= total {
		return []models.Book{}, total, nil
	}
	end := total
	if q.Limit > 0 && q.Offset+q.Limit < total {
		end = q.Offset + q.Limit
	}
	return matched[q.Offset:end], total, nil
}

// UpdateBook applies patch atomically; on a duplicate ISBN the stored book is
// left untouched.
func (s *Store) UpdateBook(_ context.Context, id int64, patch models.BookPatch) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[id]
	if !ok {
		return nil, fmt.Errorf("update book: %w", store.ErrNotFound)
	}
	patch.Apply(&b)
	if s.isbnTaken(b.ISBN, id) {
		return nil, fmt.Errorf("update book: %w", store.ErrDuplicateKey)
	}
	b.PublishedYear = copyInt(b.PublishedYear)
	s.books[id] = b
	return &b, nil
}

func (s *Store) DeleteBook(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[id]; !ok {
		return fmt.Errorf("delete book: %w", store.ErrNotFound)
	}
	delete(s.books, id)
	return nil
}

func (s *Store) isbnTaken(isbn string, except int64) bool {
	for id, b := range s.books {
		if id != except && b.ISBN == isbn {
			return true
		}
	}
	return false
}

func copyInt(v *int32) *int32 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
