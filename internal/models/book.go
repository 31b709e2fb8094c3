package models

import (
	"bytes"
	"encoding/json"
)

// Book represents a row in the books table.
type Book struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	PublishedYear *int32 `json:"published_year"`
	ISBN          string `json:"isbn"`
}

// BookInput is the JSON body for POST /books. Pointer fields tell a missing
// key apart from an empty value.
type BookInput struct {
	Title         *string `json:"title"          validate:"required,min=1,max=150"`
	Author        *string `json:"author"         validate:"required,min=1,max=100"`
	PublishedYear *int32  `json:"published_year"`
	ISBN          *string `json:"isbn"           validate:"required,min=10,max=20"`
}

// NewBook is a validated book ready to be inserted.
type NewBook struct {
	Title         string
	Author        string
	PublishedYear *int32
	ISBN          string
}

// BookPatch is the JSON body for PUT/PATCH /books/{id}. Only keys present in
// the request are applied.
type BookPatch struct {
	Title         *string     `json:"title"`
	Author        *string     `json:"author"`
	PublishedYear OptionalInt `json:"published_year"`
	ISBN          *string     `json:"isbn"`
}

// Empty reports whether the patch carries no fields.
func (p BookPatch) Empty() bool {
	return p.Title == nil && p.Author == nil && !p.PublishedYear.Set && p.ISBN == nil
}

// Apply overwrites the fields of b that are present in p.
func (p BookPatch) Apply(b *Book) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.PublishedYear.Set {
		b.PublishedYear = p.PublishedYear.Value
	}
	if p.ISBN != nil {
		b.ISBN = *p.ISBN
	}
}

// OptionalInt distinguishes an absent JSON key (Set=false) from an explicit
// null (Set=true, Value=nil). Values outside the int32 range of the
// published_year column fail to decode.
type OptionalInt struct {
	Set   bool
	Value *int32
}

func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var v int32
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// BookQuery selects one page of the catalog.
type BookQuery struct {
	Search string
	Offset int
	Limit  int
}

// BookPage is the response body for GET /books.
type BookPage struct {
	TotalBooks  int    `json:"total_books"`
	TotalPages  int    `json:"total_pages"`
	CurrentPage int    `json:"current_page"`
	PerPage     int    `json:"per_page"`
	Books       []Book `json:"books"`
}
